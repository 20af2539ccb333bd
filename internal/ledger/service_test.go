package ledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/splitkaro/server/internal/models"
	"github.com/splitkaro/server/internal/storage"
	"github.com/splitkaro/server/internal/storage/sqlite"
)

// newTestService creates a ledger service over a temp SQLite store with one
// group of alice, bob, and carol.
func newTestService(t *testing.T) (*Service, storage.Store, *models.Group) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	group := &models.Group{
		Name:      "Flatmates",
		MemberIDs: []string{"alice", "bob", "carol"},
		CreatedBy: "alice",
	}
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	return NewService(store), store, group
}

func balanceMap(balances []models.MemberBalance) map[string]int64 {
	m := make(map[string]int64, len(balances))
	for _, b := range balances {
		m[b.MemberID] = b.Balance
	}
	return m
}

func assertBalances(t *testing.T, got []models.MemberBalance, want map[string]int64) {
	t.Helper()
	gotMap := balanceMap(got)
	var sum int64
	for id, bal := range gotMap {
		sum += bal
		if want[id] != bal {
			t.Errorf("balance[%s] = %d, want %d", id, bal, want[id])
		}
	}
	if sum != 0 {
		t.Errorf("balances sum to %d, want 0", sum)
	}
}

func TestLedgerLifecycle(t *testing.T) {
	svc, _, group := newTestService(t)
	ctx := context.Background()

	// alice pays 300 split equally three ways
	expense, balances, err := svc.CreateExpense(ctx, "alice", group.ID, ExpenseInput{
		PayerID:     "alice",
		Description: "Dinner",
		TotalAmount: 300,
		MemberIDs:   []string{"alice", "bob", "carol"},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if expense.ID == "" || expense.CreatedAt == 0 {
		t.Error("expected expense ID and CreatedAt to be set")
	}
	assertBalances(t, balances, map[string]int64{"alice": 200, "bob": -100, "carol": -100})

	// the plan pays alice back from both debtors
	plan, err := svc.SettlementPlan(ctx, "bob", group.ID)
	if err != nil {
		t.Fatalf("SettlementPlan failed: %v", err)
	}
	wantPlan := []models.Transfer{
		{From: "bob", To: "alice", Amount: 100},
		{From: "carol", To: "alice", Amount: 100},
	}
	if len(plan) != len(wantPlan) {
		t.Fatalf("plan has %d transfers, want %d: %v", len(plan), len(wantPlan), plan)
	}
	for i := range plan {
		if plan[i] != wantPlan[i] {
			t.Errorf("plan[%d] = %v, want %v", i, plan[i], wantPlan[i])
		}
	}

	// bob settles his debt
	balances, settlement, err := svc.RecordSettlement(ctx, "bob", group.ID, SettlementInput{
		FromUserID: "bob",
		ToUserID:   "alice",
		Amount:     100,
		Method:     "upi",
	})
	if err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}
	if settlement.ID == "" || settlement.SettledAt == 0 {
		t.Error("expected settlement ID and SettledAt to be set")
	}
	assertBalances(t, balances, map[string]int64{"alice": 100, "bob": 0, "carol": -100})

	// balances read back the same snapshot
	balances, err = svc.Balances(ctx, "carol", group.ID)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	assertBalances(t, balances, map[string]int64{"alice": 100, "bob": 0, "carol": -100})
}

func TestDeleteExpenseRestoresBalances(t *testing.T) {
	svc, _, group := newTestService(t)
	ctx := context.Background()

	expense, _, err := svc.CreateExpense(ctx, "alice", group.ID, ExpenseInput{
		PayerID:     "alice",
		Description: "Dinner",
		TotalAmount: 300,
		MemberIDs:   []string{"alice", "bob", "carol"},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	deleted, balances, err := svc.DeleteExpense(ctx, "alice", expense.ID)
	if err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if deleted.ID != expense.ID {
		t.Errorf("deleted expense ID = %s, want %s", deleted.ID, expense.ID)
	}
	assertBalances(t, balances, map[string]int64{"alice": 0, "bob": 0, "carol": 0})
}

func TestDeleteExpenseKeepsSettlements(t *testing.T) {
	svc, _, group := newTestService(t)
	ctx := context.Background()

	expense, _, err := svc.CreateExpense(ctx, "alice", group.ID, ExpenseInput{
		PayerID:     "alice",
		TotalAmount: 300,
		MemberIDs:   []string{"alice", "bob", "carol"},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if _, _, err := svc.RecordSettlement(ctx, "bob", group.ID, SettlementInput{
		FromUserID: "bob", ToUserID: "alice", Amount: 100,
	}); err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}

	// Deleting the expense removes its projection, but the settlement is
	// part of the group's history and stays folded in: bob's payment now
	// stands on its own, so alice owes it back.
	_, balances, err := svc.DeleteExpense(ctx, "alice", expense.ID)
	if err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	assertBalances(t, balances, map[string]int64{"alice": -100, "bob": 100, "carol": 0})

	// A repair recompute reproduces the same snapshot from the histories.
	recomputed, err := svc.Recompute(ctx, "alice", group.ID)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	assertBalances(t, recomputed, map[string]int64{"alice": -100, "bob": 100, "carol": 0})
}

func TestUpdateExpenseResplits(t *testing.T) {
	svc, _, group := newTestService(t)
	ctx := context.Background()

	expense, _, err := svc.CreateExpense(ctx, "alice", group.ID, ExpenseInput{
		PayerID:     "alice",
		Description: "Groceries",
		TotalAmount: 300,
		MemberIDs:   []string{"alice", "bob", "carol"},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	t.Run("description-only edit keeps shares", func(t *testing.T) {
		desc := "Weekly groceries"
		updated, balances, err := svc.UpdateExpense(ctx, "alice", expense.ID, ExpenseUpdate{
			Description: &desc,
		})
		if err != nil {
			t.Fatalf("UpdateExpense failed: %v", err)
		}
		if updated.Description != desc {
			t.Errorf("description = %q, want %q", updated.Description, desc)
		}
		if updated.TotalAmount != 300 {
			t.Errorf("total = %d, want 300", updated.TotalAmount)
		}
		assertBalances(t, balances, map[string]int64{"alice": 200, "bob": -100, "carol": -100})
	})

	t.Run("amount change re-splits", func(t *testing.T) {
		total := int64(600)
		updated, balances, err := svc.UpdateExpense(ctx, "alice", expense.ID, ExpenseUpdate{
			TotalAmount: &total,
		})
		if err != nil {
			t.Fatalf("UpdateExpense failed: %v", err)
		}
		if SumShares(updated.Shares) != 600 {
			t.Errorf("shares sum to %d, want 600", SumShares(updated.Shares))
		}
		assertBalances(t, balances, map[string]int64{"alice": 400, "bob": -200, "carol": -200})
	})

	t.Run("member change re-splits", func(t *testing.T) {
		updated, balances, err := svc.UpdateExpense(ctx, "alice", expense.ID, ExpenseUpdate{
			MemberIDs: []string{"alice", "bob"},
		})
		if err != nil {
			t.Fatalf("UpdateExpense failed: %v", err)
		}
		if len(updated.Shares) != 2 {
			t.Errorf("got %d shares, want 2", len(updated.Shares))
		}
		assertBalances(t, balances, map[string]int64{"alice": 300, "bob": -300, "carol": 0})
	})
}

func TestExpenseValidation(t *testing.T) {
	svc, _, group := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   string
		groupID string
		input   ExpenseInput
		wantErr error
	}{
		{
			name:    "unknown group",
			actor:   "alice",
			groupID: "no-such-group",
			input:   ExpenseInput{PayerID: "alice", TotalAmount: 100, MemberIDs: []string{"alice"}},
			wantErr: ErrNotFound,
		},
		{
			name:    "actor not a member",
			actor:   "mallory",
			groupID: group.ID,
			input:   ExpenseInput{PayerID: "alice", TotalAmount: 100, MemberIDs: []string{"alice"}},
			wantErr: ErrForbidden,
		},
		{
			name:    "payer not a member",
			actor:   "alice",
			groupID: group.ID,
			input:   ExpenseInput{PayerID: "mallory", TotalAmount: 100, MemberIDs: []string{"alice"}},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "share member outside group",
			actor:   "alice",
			groupID: group.ID,
			input:   ExpenseInput{PayerID: "alice", TotalAmount: 100, MemberIDs: []string{"alice", "mallory"}},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "non-positive amount",
			actor:   "alice",
			groupID: group.ID,
			input:   ExpenseInput{PayerID: "alice", TotalAmount: 0, MemberIDs: []string{"alice"}},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "empty member selection",
			actor:   "alice",
			groupID: group.ID,
			input:   ExpenseInput{PayerID: "alice", TotalAmount: 100},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.CreateExpense(ctx, tt.actor, tt.groupID, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateExpense error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// rejected inputs must not leave partial state behind
	balances, err := svc.Balances(ctx, "alice", group.ID)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	if len(balances) != 0 {
		t.Errorf("expected no balances after rejected inputs, got %v", balances)
	}
}

func TestOnlyPayerMayEditOrDelete(t *testing.T) {
	svc, _, group := newTestService(t)
	ctx := context.Background()

	expense, _, err := svc.CreateExpense(ctx, "alice", group.ID, ExpenseInput{
		PayerID:     "alice",
		TotalAmount: 300,
		MemberIDs:   []string{"alice", "bob", "carol"},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	desc := "edited"
	if _, _, err := svc.UpdateExpense(ctx, "bob", expense.ID, ExpenseUpdate{Description: &desc}); !errors.Is(err, ErrForbidden) {
		t.Errorf("UpdateExpense by non-payer error = %v, want %v", err, ErrForbidden)
	}
	if _, _, err := svc.DeleteExpense(ctx, "bob", expense.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("DeleteExpense by non-payer error = %v, want %v", err, ErrForbidden)
	}
}

func TestRecordSettlementValidation(t *testing.T) {
	svc, _, group := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   string
		input   SettlementInput
		wantErr error
	}{
		{
			name:    "actor not a member",
			actor:   "mallory",
			input:   SettlementInput{FromUserID: "bob", ToUserID: "alice", Amount: 100},
			wantErr: ErrForbidden,
		},
		{
			name:    "payer not a member",
			actor:   "alice",
			input:   SettlementInput{FromUserID: "mallory", ToUserID: "alice", Amount: 100},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "receiver not a member",
			actor:   "alice",
			input:   SettlementInput{FromUserID: "bob", ToUserID: "mallory", Amount: 100},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "zero amount",
			actor:   "alice",
			input:   SettlementInput{FromUserID: "bob", ToUserID: "alice", Amount: 0},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "self settlement",
			actor:   "alice",
			input:   SettlementInput{FromUserID: "alice", ToUserID: "alice", Amount: 100},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.RecordSettlement(ctx, tt.actor, group.ID, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RecordSettlement error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPartialSettlement(t *testing.T) {
	svc, _, group := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.CreateExpense(ctx, "alice", group.ID, ExpenseInput{
		PayerID:     "alice",
		TotalAmount: 300,
		MemberIDs:   []string{"alice", "bob", "carol"},
	}); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	// partial payments are allowed; the amount need not match the plan
	balances, _, err := svc.RecordSettlement(ctx, "bob", group.ID, SettlementInput{
		FromUserID: "bob",
		ToUserID:   "alice",
		Amount:     40,
	})
	if err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}
	assertBalances(t, balances, map[string]int64{"alice": 160, "bob": -60, "carol": -100})
}

func TestUnevenSplitZeroSum(t *testing.T) {
	svc, _, group := newTestService(t)
	ctx := context.Background()

	// 100 split 3 ways: shares must sum to exactly 100 (34/33/33)
	expense, balances, err := svc.CreateExpense(ctx, "alice", group.ID, ExpenseInput{
		PayerID:     "alice",
		TotalAmount: 100,
		MemberIDs:   []string{"alice", "bob", "carol"},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if SumShares(expense.Shares) != 100 {
		t.Errorf("shares sum to %d, want exactly 100", SumShares(expense.Shares))
	}
	assertBalances(t, balances, map[string]int64{"alice": 66, "bob": -33, "carol": -33})
}

func TestZeroSumAcrossOperationSequence(t *testing.T) {
	svc, _, group := newTestService(t)
	ctx := context.Background()

	checkZeroSum := func(step string) {
		t.Helper()
		balances, err := svc.Balances(ctx, "alice", group.ID)
		if err != nil {
			t.Fatalf("%s: Balances failed: %v", step, err)
		}
		var sum int64
		for _, b := range balances {
			sum += b.Balance
		}
		if sum != 0 {
			t.Fatalf("%s: balances sum to %d, want 0", step, sum)
		}
	}

	var expenseIDs []string
	for i, in := range []ExpenseInput{
		{PayerID: "alice", TotalAmount: 301, MemberIDs: []string{"alice", "bob", "carol"}},
		{PayerID: "bob", TotalAmount: 250, MemberIDs: []string{"bob", "carol"}},
		{PayerID: "carol", TotalAmount: 999, MemberIDs: []string{"alice", "bob", "carol"}},
		{PayerID: "bob", TotalAmount: 77, MemberIDs: []string{"alice"}},
	} {
		expense, _, err := svc.CreateExpense(ctx, in.PayerID, group.ID, in)
		if err != nil {
			t.Fatalf("CreateExpense %d failed: %v", i, err)
		}
		expenseIDs = append(expenseIDs, expense.ID)
		checkZeroSum(fmt.Sprintf("after create %d", i))
	}

	total := int64(500)
	if _, _, err := svc.UpdateExpense(ctx, "bob", expenseIDs[1], ExpenseUpdate{TotalAmount: &total}); err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	checkZeroSum("after update")

	if _, _, err := svc.RecordSettlement(ctx, "carol", group.ID, SettlementInput{
		FromUserID: "carol", ToUserID: "alice", Amount: 123,
	}); err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}
	checkZeroSum("after settlement")

	if _, _, err := svc.DeleteExpense(ctx, "alice", expenseIDs[0]); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	checkZeroSum("after delete")
}

func TestRecomputeIdempotent(t *testing.T) {
	svc, _, group := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.CreateExpense(ctx, "alice", group.ID, ExpenseInput{
		PayerID:     "alice",
		TotalAmount: 301,
		MemberIDs:   []string{"alice", "bob", "carol"},
	}); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if _, _, err := svc.RecordSettlement(ctx, "bob", group.ID, SettlementInput{
		FromUserID: "bob", ToUserID: "alice", Amount: 50,
	}); err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}

	before, err := svc.Balances(ctx, "alice", group.ID)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}

	// recomputing from unchanged history yields the same snapshot
	after, err := svc.Recompute(ctx, "alice", group.ID)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}

	beforeMap, afterMap := balanceMap(before), balanceMap(after)
	if len(beforeMap) != len(afterMap) {
		t.Fatalf("balance count changed: %d vs %d", len(beforeMap), len(afterMap))
	}
	for id, bal := range beforeMap {
		if afterMap[id] != bal {
			t.Errorf("balance[%s] changed on recompute: %d vs %d", id, bal, afterMap[id])
		}
	}
}

func TestSettlementHistoryNewestFirst(t *testing.T) {
	svc, store, group := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.CreateExpense(ctx, "alice", group.ID, ExpenseInput{
		PayerID:     "alice",
		TotalAmount: 300,
		MemberIDs:   []string{"alice", "bob", "carol"},
	}); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	// backdate the first settlement so ordering is observable
	first := &models.Settlement{
		GroupID:    group.ID,
		FromUserID: "bob",
		ToUserID:   "alice",
		Amount:     50,
		SettledAt:  1000,
	}
	if err := store.CreateSettlement(ctx, first); err != nil {
		t.Fatalf("CreateSettlement failed: %v", err)
	}

	if _, _, err := svc.RecordSettlement(ctx, "carol", group.ID, SettlementInput{
		FromUserID: "carol", ToUserID: "alice", Amount: 100,
	}); err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}

	history, err := svc.SettlementHistory(ctx, "alice", group.ID)
	if err != nil {
		t.Fatalf("SettlementHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d settlements, want 2", len(history))
	}
	if history[0].FromUserID != "carol" || history[1].ID != first.ID {
		t.Errorf("history not newest-first: %v then %v", history[0], history[1])
	}
}

func TestDeleteGroup(t *testing.T) {
	svc, store, group := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.CreateExpense(ctx, "alice", group.ID, ExpenseInput{
		PayerID:     "alice",
		TotalAmount: 300,
		MemberIDs:   []string{"alice", "bob", "carol"},
	}); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	if err := svc.DeleteGroup(ctx, "bob", group.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("DeleteGroup by non-creator error = %v, want %v", err, ErrForbidden)
	}

	if err := svc.DeleteGroup(ctx, "alice", group.ID); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}

	if _, err := svc.Balances(ctx, "alice", group.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Balances after delete error = %v, want %v", err, ErrNotFound)
	}

	// ledger state is removed en masse with the group
	balances, err := store.GroupBalances(ctx, group.ID)
	if err != nil {
		t.Fatalf("GroupBalances failed: %v", err)
	}
	if len(balances) != 0 {
		t.Errorf("expected no stored balances after group delete, got %v", balances)
	}
}

func TestConcurrentExpenseCreation(t *testing.T) {
	svc, store, group := newTestService(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			payer := group.MemberIDs[n%len(group.MemberIDs)]
			_, _, err := svc.CreateExpense(ctx, payer, group.ID, ExpenseInput{
				PayerID:     payer,
				TotalAmount: int64(100 + n),
				MemberIDs:   []string{"alice", "bob", "carol"},
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent CreateExpense failed: %v", err)
		}
	}

	// the stored snapshot matches a fresh projection over all expenses
	expenses, err := store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListExpensesByGroup failed: %v", err)
	}
	if len(expenses) != workers {
		t.Fatalf("got %d expenses, want %d", len(expenses), workers)
	}
	want := Project(expenses)

	stored, err := store.GroupBalances(ctx, group.ID)
	if err != nil {
		t.Fatalf("GroupBalances failed: %v", err)
	}
	var sum int64
	for id, bal := range stored {
		sum += bal
		if want[id] != bal {
			t.Errorf("balance[%s] = %d, want %d", id, bal, want[id])
		}
	}
	if sum != 0 {
		t.Errorf("balances sum to %d, want 0", sum)
	}
}
