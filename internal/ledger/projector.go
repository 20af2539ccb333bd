// Package ledger implements the ledger and settlement engine: projecting
// member balances from a group's expense history, planning minimal settlement
// transfers, and recording settlement payments, all in exact integer minor
// units.
package ledger

import (
	"fmt"
	"sort"

	"github.com/splitkaro/server/internal/models"
)

// Project computes net balances from a group's full expense history. It is a
// pure fold: for each expense, the payer is credited with what they fronted
// for others (total minus their own share) and every other sharer is debited
// their share. Because shares sum exactly to the expense total, the returned
// balances always sum to zero.
//
// Share order within an expense does not affect the result.
func Project(expenses []models.Expense) map[string]int64 {
	balances := make(map[string]int64)
	for _, e := range expenses {
		for _, s := range e.Shares {
			if s.MemberID == e.PayerID {
				balances[s.MemberID] += e.TotalAmount - s.Amount
			} else {
				balances[s.MemberID] -= s.Amount
			}
		}
		// Payer not among the sharers still fronted the whole amount.
		if !hasShare(e.Shares, e.PayerID) {
			balances[e.PayerID] += e.TotalAmount
		}
	}
	return balances
}

func hasShare(shares []models.Share, memberID string) bool {
	for _, s := range shares {
		if s.MemberID == memberID {
			return true
		}
	}
	return false
}

// EqualShares splits total equally among the given members in integer minor
// units. When total is not evenly divisible, the remainder is distributed one
// minor unit at a time to the first total%n members in lexicographic member-id
// order, so the result is independent of the order memberIDs were supplied in
// and the share amounts always sum to exactly total.
func EqualShares(total int64, memberIDs []string) ([]models.Share, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidInput, total)
	}
	if len(memberIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one member required", ErrInvalidInput)
	}

	sorted := make([]string, len(memberIDs))
	copy(sorted, memberIDs)
	sort.Strings(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, fmt.Errorf("%w: duplicate member %s", ErrInvalidInput, sorted[i])
		}
	}

	n := int64(len(sorted))
	base := total / n
	remainder := total % n

	shares := make([]models.Share, len(sorted))
	for i, id := range sorted {
		amount := base
		if int64(i) < remainder {
			amount++
		}
		shares[i] = models.Share{MemberID: id, Amount: amount}
	}
	return shares, nil
}

// SumShares returns the total of the given share amounts.
func SumShares(shares []models.Share) int64 {
	var sum int64
	for _, s := range shares {
		sum += s.Amount
	}
	return sum
}
