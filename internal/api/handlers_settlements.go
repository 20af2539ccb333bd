package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/splitkaro/server/internal/ledger"
	"github.com/splitkaro/server/internal/middleware"
	"github.com/splitkaro/server/internal/models"
	"github.com/splitkaro/server/pkg/money"
)

// settlementResponse decorates a settlement with its formatted amount.
type settlementResponse struct {
	*models.Settlement
	AmountFormatted string `json:"amount_formatted"`
}

func toSettlementResponse(s *models.Settlement) settlementResponse {
	return settlementResponse{Settlement: s, AmountFormatted: money.Format(s.Amount)}
}

func (a *API) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := mux.Vars(r)["group_id"]

	balances, err := a.ledger.Balances(r.Context(), userID, groupID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceEntries(balances))
}

func (a *API) handleRecompute(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := mux.Vars(r)["group_id"]

	balances, err := a.ledger.Recompute(r.Context(), userID, groupID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceEntries(balances))
}

func (a *API) handleGetSettlementPlan(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := mux.Vars(r)["group_id"]

	plan, err := a.ledger.SettlementPlan(r.Context(), userID, groupID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransferEntries(plan))
}

func (a *API) handleRecordSettlement(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := mux.Vars(r)["group_id"]

	var req struct {
		FromUserID string `json:"from_user_id"`
		ToUserID   string `json:"to_user_id"`
		Amount     string `json:"amount"`
		Method     string `json:"method"`
		Notes      string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err))
		return
	}

	fromUserID := req.FromUserID
	if fromUserID == "" {
		fromUserID = userID
	}

	balances, settlement, err := a.ledger.RecordSettlement(r.Context(), userID, groupID, ledger.SettlementInput{
		FromUserID: fromUserID,
		ToUserID:   req.ToUserID,
		Amount:     amount,
		Method:     req.Method,
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"settlement": toSettlementResponse(settlement),
		"balances":   toBalanceEntries(balances),
	})
}

func (a *API) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := mux.Vars(r)["group_id"]

	settlements, err := a.ledger.SettlementHistory(r.Context(), userID, groupID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]settlementResponse, len(settlements))
	for i, s := range settlements {
		out[i] = toSettlementResponse(s)
	}
	writeJSON(w, http.StatusOK, out)
}
