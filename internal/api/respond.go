package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/splitkaro/server/internal/auth"
	"github.com/splitkaro/server/internal/ledger"
	"github.com/splitkaro/server/internal/models"
	"github.com/splitkaro/server/internal/storage"
	"github.com/splitkaro/server/pkg/money"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps engine and auth errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, ledger.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailExists), errors.Is(err, auth.ErrWeakPassword):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		slog.Error("Request error", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// balanceEntry is the API shape of one member's net balance.
type balanceEntry struct {
	MemberID         string `json:"member_id"`
	Balance          int64  `json:"balance"`
	BalanceFormatted string `json:"balance_formatted"`
}

func toBalanceEntries(balances []models.MemberBalance) []balanceEntry {
	out := make([]balanceEntry, len(balances))
	for i, b := range balances {
		out[i] = balanceEntry{
			MemberID:         b.MemberID,
			Balance:          b.Balance,
			BalanceFormatted: money.Format(b.Balance),
		}
	}
	return out
}

// transferEntry is the API shape of one planned settlement transfer.
type transferEntry struct {
	From            string `json:"from"`
	To              string `json:"to"`
	Amount          int64  `json:"amount"`
	AmountFormatted string `json:"amount_formatted"`
}

func toTransferEntries(transfers []models.Transfer) []transferEntry {
	out := make([]transferEntry, len(transfers))
	for i, t := range transfers {
		out[i] = transferEntry{
			From:            t.From,
			To:              t.To,
			Amount:          t.Amount,
			AmountFormatted: money.Format(t.Amount),
		}
	}
	return out
}
