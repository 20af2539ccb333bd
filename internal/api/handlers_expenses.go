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

// expenseResponse decorates an expense with its formatted total.
type expenseResponse struct {
	*models.Expense
	TotalFormatted string `json:"total_formatted"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	return expenseResponse{Expense: e, TotalFormatted: money.Format(e.TotalAmount)}
}

func (a *API) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := mux.Vars(r)["group_id"]

	var req struct {
		PayerID     string   `json:"payer_id"`
		Description string   `json:"description"`
		Category    string   `json:"category"`
		Amount      string   `json:"amount"`
		MemberIDs   []string `json:"member_ids"`
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

	payerID := req.PayerID
	if payerID == "" {
		payerID = userID
	}

	expense, balances, err := a.ledger.CreateExpense(r.Context(), userID, groupID, ledger.ExpenseInput{
		PayerID:     payerID,
		Description: req.Description,
		Category:    req.Category,
		TotalAmount: amount,
		MemberIDs:   req.MemberIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"expense":  toExpenseResponse(expense),
		"balances": toBalanceEntries(balances),
	})
}

func (a *API) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := mux.Vars(r)["group_id"]

	expenses, err := a.ledger.ListExpenses(r.Context(), userID, groupID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]expenseResponse, len(expenses))
	for i := range expenses {
		out[i] = toExpenseResponse(&expenses[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	expenseID := mux.Vars(r)["expense_id"]

	var req struct {
		Description *string  `json:"description"`
		Category    *string  `json:"category"`
		Amount      *string  `json:"amount"`
		MemberIDs   []string `json:"member_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	update := ledger.ExpenseUpdate{
		Description: req.Description,
		Category:    req.Category,
		MemberIDs:   req.MemberIDs,
	}
	if req.Amount != nil {
		amount, err := money.Parse(*req.Amount)
		if err != nil {
			writeError(w, fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err))
			return
		}
		update.TotalAmount = &amount
	}

	expense, balances, err := a.ledger.UpdateExpense(r.Context(), userID, expenseID, update)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"expense":  toExpenseResponse(expense),
		"balances": toBalanceEntries(balances),
	})
}

func (a *API) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	expenseID := mux.Vars(r)["expense_id"]

	expense, balances, err := a.ledger.DeleteExpense(r.Context(), userID, expenseID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted_expense": toExpenseResponse(expense),
		"balances":        toBalanceEntries(balances),
	})
}
