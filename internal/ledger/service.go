package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/splitkaro/server/internal/models"
	"github.com/splitkaro/server/internal/storage"
	"github.com/splitkaro/server/pkg/metrics"
)

// Service orchestrates the ledger engine. It is the only component allowed to
// write balances in production use: every mutating operation on a group's
// ledger (expense create/update/delete, settlement record, group delete) is
// serialized through a per-group lock, recomputed from the full history, and
// replaced wholesale. Operations on different groups proceed in parallel.
//
// Reads (Balances, SettlementPlan, SettlementHistory) do not take the lock;
// they serve the most recent completed write.
type Service struct {
	store storage.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a ledger service over the given store.
func NewService(store storage.Store) *Service {
	return &Service{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// groupLock returns the mutex serializing mutations for one group.
func (s *Service) groupLock(groupID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[groupID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[groupID] = l
	}
	return l
}

// ExpenseInput describes a new expense. TotalAmount is in minor units and is
// split equally among MemberIDs.
type ExpenseInput struct {
	PayerID     string
	Description string
	Category    string
	TotalAmount int64
	MemberIDs   []string
}

// ExpenseUpdate describes a partial expense edit. Nil fields keep the current
// value; a non-nil MemberIDs or TotalAmount triggers a re-split.
type ExpenseUpdate struct {
	Description *string
	Category    *string
	TotalAmount *int64
	MemberIDs   []string
}

// SettlementInput describes a payment to record between two group members.
type SettlementInput struct {
	FromUserID string
	ToUserID   string
	Amount     int64
	Method     string
	Notes      string
}

// CreateExpense validates and persists a new equal-split expense, then
// recomputes the group's balances. The actor must be a group member; payer
// and all selected members must be group members.
func (s *Service) CreateExpense(ctx context.Context, actorID, groupID string, in ExpenseInput) (*models.Expense, []models.MemberBalance, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		metrics.ExpenseOps.WithLabelValues("create", "error").Inc()
		return nil, nil, coerceNotFound(err)
	}
	if !group.HasMember(actorID) {
		metrics.ExpenseOps.WithLabelValues("create", "error").Inc()
		return nil, nil, fmt.Errorf("%w: user %s is not a member of group %s", ErrForbidden, actorID, groupID)
	}
	if !group.HasMember(in.PayerID) {
		metrics.ExpenseOps.WithLabelValues("create", "error").Inc()
		return nil, nil, fmt.Errorf("%w: payer %s is not a member of group %s", ErrInvalidInput, in.PayerID, groupID)
	}
	for _, m := range in.MemberIDs {
		if !group.HasMember(m) {
			metrics.ExpenseOps.WithLabelValues("create", "error").Inc()
			return nil, nil, fmt.Errorf("%w: member %s is not in group %s", ErrInvalidInput, m, groupID)
		}
	}

	shares, err := EqualShares(in.TotalAmount, in.MemberIDs)
	if err != nil {
		metrics.ExpenseOps.WithLabelValues("create", "error").Inc()
		return nil, nil, err
	}

	expense := &models.Expense{
		GroupID:     groupID,
		PayerID:     in.PayerID,
		Description: in.Description,
		Category:    in.Category,
		TotalAmount: in.TotalAmount,
		Shares:      shares,
	}

	lock := s.groupLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		metrics.ExpenseOps.WithLabelValues("create", "error").Inc()
		return nil, nil, err
	}

	balances, err := s.recompute(ctx, groupID, "create")
	if err != nil {
		metrics.ExpenseOps.WithLabelValues("create", "error").Inc()
		return nil, nil, err
	}

	metrics.ExpenseOps.WithLabelValues("create", "ok").Inc()
	slog.Info("Expense created",
		"group_id", groupID,
		"expense_id", expense.ID,
		"payer_id", expense.PayerID,
		"total_amount", expense.TotalAmount,
		"members", len(shares),
	)
	return expense, balances, nil
}

// UpdateExpense applies a partial edit to an expense, re-splits if the amount
// or member selection changed, and recomputes balances. Only the payer may
// edit an expense.
func (s *Service) UpdateExpense(ctx context.Context, actorID, expenseID string, in ExpenseUpdate) (*models.Expense, []models.MemberBalance, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		metrics.ExpenseOps.WithLabelValues("update", "error").Inc()
		return nil, nil, coerceNotFound(err)
	}
	if expense.PayerID != actorID {
		metrics.ExpenseOps.WithLabelValues("update", "error").Inc()
		return nil, nil, fmt.Errorf("%w: only the payer may edit expense %s", ErrForbidden, expenseID)
	}

	group, err := s.store.GetGroup(ctx, expense.GroupID)
	if err != nil {
		metrics.ExpenseOps.WithLabelValues("update", "error").Inc()
		return nil, nil, coerceNotFound(err)
	}

	if in.Description != nil {
		expense.Description = *in.Description
	}
	if in.Category != nil {
		expense.Category = *in.Category
	}

	total := expense.TotalAmount
	if in.TotalAmount != nil {
		total = *in.TotalAmount
	}
	memberIDs := in.MemberIDs
	if memberIDs == nil {
		memberIDs = make([]string, len(expense.Shares))
		for i, share := range expense.Shares {
			memberIDs[i] = share.MemberID
		}
	}
	for _, m := range memberIDs {
		if !group.HasMember(m) {
			metrics.ExpenseOps.WithLabelValues("update", "error").Inc()
			return nil, nil, fmt.Errorf("%w: member %s is not in group %s", ErrInvalidInput, m, group.ID)
		}
	}

	if in.TotalAmount != nil || in.MemberIDs != nil {
		shares, err := EqualShares(total, memberIDs)
		if err != nil {
			metrics.ExpenseOps.WithLabelValues("update", "error").Inc()
			return nil, nil, err
		}
		expense.TotalAmount = total
		expense.Shares = shares
	}

	lock := s.groupLock(expense.GroupID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		metrics.ExpenseOps.WithLabelValues("update", "error").Inc()
		return nil, nil, coerceNotFound(err)
	}

	balances, err := s.recompute(ctx, expense.GroupID, "update")
	if err != nil {
		metrics.ExpenseOps.WithLabelValues("update", "error").Inc()
		return nil, nil, err
	}

	metrics.ExpenseOps.WithLabelValues("update", "ok").Inc()
	slog.Info("Expense updated", "group_id", expense.GroupID, "expense_id", expense.ID)
	return expense, balances, nil
}

// DeleteExpense removes an expense and recomputes balances. Only the payer
// may delete an expense.
func (s *Service) DeleteExpense(ctx context.Context, actorID, expenseID string) (*models.Expense, []models.MemberBalance, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		metrics.ExpenseOps.WithLabelValues("delete", "error").Inc()
		return nil, nil, coerceNotFound(err)
	}
	if expense.PayerID != actorID {
		metrics.ExpenseOps.WithLabelValues("delete", "error").Inc()
		return nil, nil, fmt.Errorf("%w: only the payer may delete expense %s", ErrForbidden, expenseID)
	}

	lock := s.groupLock(expense.GroupID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.DeleteExpense(ctx, expenseID); err != nil {
		metrics.ExpenseOps.WithLabelValues("delete", "error").Inc()
		return nil, nil, coerceNotFound(err)
	}

	balances, err := s.recompute(ctx, expense.GroupID, "delete")
	if err != nil {
		metrics.ExpenseOps.WithLabelValues("delete", "error").Inc()
		return nil, nil, err
	}

	metrics.ExpenseOps.WithLabelValues("delete", "ok").Inc()
	slog.Info("Expense deleted", "group_id", expense.GroupID, "expense_id", expenseID)
	return expense, balances, nil
}

// ListExpenses returns a group's expense history, oldest first. The actor
// must be a group member.
func (s *Service) ListExpenses(ctx context.Context, actorID, groupID string) ([]models.Expense, error) {
	if err := s.requireMember(ctx, actorID, groupID); err != nil {
		return nil, err
	}
	return s.store.ListExpensesByGroup(ctx, groupID)
}

// Balances returns the group's stored balance snapshot, sorted by member id.
func (s *Service) Balances(ctx context.Context, actorID, groupID string) ([]models.MemberBalance, error) {
	if err := s.requireMember(ctx, actorID, groupID); err != nil {
		return nil, err
	}
	balances, err := s.store.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return sortedBalances(balances), nil
}

// SettlementPlan computes a minimal transfer list over the current balance
// snapshot. Read-only; the plan is not persisted.
func (s *Service) SettlementPlan(ctx context.Context, actorID, groupID string) ([]models.Transfer, error) {
	if err := s.requireMember(ctx, actorID, groupID); err != nil {
		return nil, err
	}
	balances, err := s.store.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return Plan(balances), nil
}

// RecordSettlement appends an immutable settlement record and shifts the two
// members' balances toward zero: the payer's balance goes up by the amount,
// the receiver's down. The amount is not required to match a planned
// transfer; partial and manual settlements are allowed.
func (s *Service) RecordSettlement(ctx context.Context, actorID, groupID string, in SettlementInput) ([]models.MemberBalance, *models.Settlement, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, coerceNotFound(err)
	}
	if !group.HasMember(actorID) {
		return nil, nil, fmt.Errorf("%w: user %s is not a member of group %s", ErrForbidden, actorID, groupID)
	}
	if in.Amount <= 0 {
		return nil, nil, fmt.Errorf("%w: settlement amount must be positive, got %d", ErrInvalidInput, in.Amount)
	}
	if in.FromUserID == in.ToUserID {
		return nil, nil, fmt.Errorf("%w: cannot settle with yourself", ErrInvalidInput)
	}
	for _, id := range []string{in.FromUserID, in.ToUserID} {
		if !group.HasMember(id) {
			return nil, nil, fmt.Errorf("%w: user %s is not a member of group %s", ErrInvalidInput, id, groupID)
		}
	}

	settlement := &models.Settlement{
		GroupID:    groupID,
		FromUserID: in.FromUserID,
		ToUserID:   in.ToUserID,
		Amount:     in.Amount,
		Method:     in.Method,
		Notes:      in.Notes,
	}

	lock := s.groupLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		return nil, nil, err
	}

	balances, err := s.store.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	balances[in.FromUserID] += in.Amount
	balances[in.ToUserID] -= in.Amount

	if err := s.store.ReplaceGroupBalances(ctx, groupID, balances); err != nil {
		return nil, nil, err
	}

	metrics.SettlementsRecorded.Inc()
	slog.Info("Settlement recorded",
		"group_id", groupID,
		"settlement_id", settlement.ID,
		"from", in.FromUserID,
		"to", in.ToUserID,
		"amount", in.Amount,
	)
	return sortedBalances(balances), settlement, nil
}

// SettlementHistory returns a group's settlement records, newest first.
func (s *Service) SettlementHistory(ctx context.Context, actorID, groupID string) ([]*models.Settlement, error) {
	if err := s.requireMember(ctx, actorID, groupID); err != nil {
		return nil, err
	}
	return s.store.ListSettlementsByGroup(ctx, groupID)
}

// DeleteGroup removes a group together with its expenses, settlements, and
// ledger state. Only the group's creator may delete it.
func (s *Service) DeleteGroup(ctx context.Context, actorID, groupID string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return coerceNotFound(err)
	}
	if group.CreatedBy != actorID {
		return fmt.Errorf("%w: only the creator may delete group %s", ErrForbidden, groupID)
	}

	lock := s.groupLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		return coerceNotFound(err)
	}

	slog.Info("Group deleted", "group_id", groupID)
	return nil
}

// Recompute rebuilds a group's balances from its full expense and settlement
// history and replaces the stored snapshot. It is the repair path for a
// snapshot suspected of drift; the regular mutation paths call the same
// recompute internally. Caller must be a group member.
func (s *Service) Recompute(ctx context.Context, actorID, groupID string) ([]models.MemberBalance, error) {
	if err := s.requireMember(ctx, actorID, groupID); err != nil {
		return nil, err
	}

	lock := s.groupLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	return s.recompute(ctx, groupID, "repair")
}

// recompute derives balances from the full expense history, folds in the
// settlement history, verifies the zero-sum invariant, and replaces the
// stored snapshot. The replace is the last step: a failure at any earlier
// point leaves the previous consistent snapshot untouched.
//
// Callers must hold the group lock.
func (s *Service) recompute(ctx context.Context, groupID, trigger string) ([]models.MemberBalance, error) {
	start := time.Now()

	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	settlements, err := s.store.ListSettlementsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	balances := Project(expenses)
	for _, settlement := range settlements {
		balances[settlement.FromUserID] += settlement.Amount
		balances[settlement.ToUserID] -= settlement.Amount
	}

	var sum int64
	for _, b := range balances {
		sum += b
	}
	if sum != 0 {
		metrics.ConsistencyFaults.Inc()
		slog.Error("Recomputed balances do not sum to zero; keeping previous snapshot",
			"group_id", groupID,
			"trigger", trigger,
			"sum", sum,
		)
		return nil, fmt.Errorf("%w: group %s balances sum to %d", ErrConsistency, groupID, sum)
	}

	if err := s.store.ReplaceGroupBalances(ctx, groupID, balances); err != nil {
		return nil, err
	}

	metrics.RecomputeDuration.WithLabelValues(trigger).Observe(time.Since(start).Seconds())
	return sortedBalances(balances), nil
}

func (s *Service) requireMember(ctx context.Context, actorID, groupID string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return coerceNotFound(err)
	}
	if !group.HasMember(actorID) {
		return fmt.Errorf("%w: user %s is not a member of group %s", ErrForbidden, actorID, groupID)
	}
	return nil
}

// sortedBalances converts a balance map into a slice ordered by member id.
func sortedBalances(balances map[string]int64) []models.MemberBalance {
	out := make([]models.MemberBalance, 0, len(balances))
	for id, bal := range balances {
		out = append(out, models.MemberBalance{MemberID: id, Balance: bal})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out
}

func coerceNotFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
