// Package api exposes the ledger engine and its surrounding surfaces (auth,
// groups) as a JSON HTTP API. All mutation of balances goes through the
// ledger service; handlers never touch the balance store directly.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/splitkaro/server/internal/auth"
	"github.com/splitkaro/server/internal/ledger"
	"github.com/splitkaro/server/internal/middleware"
	"github.com/splitkaro/server/internal/storage"
)

type API struct {
	router *mux.Router
	store  storage.Store
	ledger *ledger.Service
	authn  auth.Authenticator
	jwt    *auth.JWTManager
}

// New creates the API with all routes registered.
func New(store storage.Store, ledgerSvc *ledger.Service, authn auth.Authenticator, jwtManager *auth.JWTManager) *API {
	a := &API{
		router: mux.NewRouter(),
		store:  store,
		ledger: ledgerSvc,
		authn:  authn,
		jwt:    jwtManager,
	}
	a.setupRoutes()
	return a
}

func (a *API) setupRoutes() {
	// Public endpoints
	a.router.HandleFunc("/api/auth/register", a.handleRegister).Methods("POST")
	a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("POST")
	a.router.HandleFunc("/healthz", a.handleHealth).Methods("GET")
	a.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Protected endpoints
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuth(a.jwt))

	protected.HandleFunc("/me", a.handleMe).Methods("GET")

	protected.HandleFunc("/groups", a.handleCreateGroup).Methods("POST")
	protected.HandleFunc("/groups", a.handleListGroups).Methods("GET")
	protected.HandleFunc("/groups/{group_id}", a.handleGetGroup).Methods("GET")
	protected.HandleFunc("/groups/{group_id}", a.handleUpdateGroup).Methods("PUT")
	protected.HandleFunc("/groups/{group_id}", a.handleDeleteGroup).Methods("DELETE")

	protected.HandleFunc("/groups/{group_id}/expenses", a.handleCreateExpense).Methods("POST")
	protected.HandleFunc("/groups/{group_id}/expenses", a.handleListExpenses).Methods("GET")
	protected.HandleFunc("/expenses/{expense_id}", a.handleUpdateExpense).Methods("PUT")
	protected.HandleFunc("/expenses/{expense_id}", a.handleDeleteExpense).Methods("DELETE")

	protected.HandleFunc("/groups/{group_id}/balances", a.handleGetBalances).Methods("GET")
	protected.HandleFunc("/groups/{group_id}/balances/recompute", a.handleRecompute).Methods("POST")
	protected.HandleFunc("/groups/{group_id}/settle", a.handleGetSettlementPlan).Methods("GET")
	protected.HandleFunc("/groups/{group_id}/settlements", a.handleRecordSettlement).Methods("POST")
	protected.HandleFunc("/groups/{group_id}/settlements", a.handleListSettlements).Methods("GET")
}

// Handler returns the fully wrapped HTTP handler: CORS outside, request
// logging inside.
func (a *API) Handler() http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(middleware.Logging(a.router))
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
