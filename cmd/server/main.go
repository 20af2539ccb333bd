package main

import (
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/splitkaro/server/internal/api"
	"github.com/splitkaro/server/internal/auth"
	"github.com/splitkaro/server/internal/config"
	"github.com/splitkaro/server/internal/ledger"
	"github.com/splitkaro/server/internal/storage/sqlite"
	"github.com/splitkaro/server/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	ledgerSvc := ledger.NewService(store)
	authn := auth.NewPasswordAuthenticator(store)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	handler := api.New(store, ledgerSvc, authn, jwtManager).Handler()

	// HTTP/2 without TLS, for clients that speak h2c
	h2cHandler := h2c.NewHandler(handler, &http2.Server{})

	slog.Info("Server starting", "address", cfg.Bind)
	if err := http.ListenAndServe(cfg.Bind, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
