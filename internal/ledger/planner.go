package ledger

import (
	"sort"

	"github.com/splitkaro/server/internal/models"
)

// Plan computes a settlement plan that zeroes the given balances using greedy
// min-cash-flow matching. The result is deterministic for a given snapshot:
// creditors are sorted by balance descending, debtors by balance ascending
// (most negative first), with ties broken by member id ascending. The two
// largest outstanding positions are settled against each other until both
// sides are exhausted.
//
// Applying every returned transfer zeroes all balances exactly, and the plan
// contains at most creditors+debtors-1 transfers. The greedy matching is not
// provably minimal for every balance distribution; that is an accepted
// approximation of this algorithm.
func Plan(balances map[string]int64) []models.Transfer {
	var creditors, debtors []models.MemberBalance
	for id, bal := range balances {
		switch {
		case bal > 0:
			creditors = append(creditors, models.MemberBalance{MemberID: id, Balance: bal})
		case bal < 0:
			debtors = append(debtors, models.MemberBalance{MemberID: id, Balance: bal})
		}
	}

	sort.Slice(creditors, func(i, j int) bool {
		if creditors[i].Balance != creditors[j].Balance {
			return creditors[i].Balance > creditors[j].Balance
		}
		return creditors[i].MemberID < creditors[j].MemberID
	})
	sort.Slice(debtors, func(i, j int) bool {
		if debtors[i].Balance != debtors[j].Balance {
			return debtors[i].Balance < debtors[j].Balance
		}
		return debtors[i].MemberID < debtors[j].MemberID
	})

	var transfers []models.Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		owed := -debtors[i].Balance
		due := creditors[j].Balance

		amount := owed
		if due < amount {
			amount = due
		}

		transfers = append(transfers, models.Transfer{
			From:   debtors[i].MemberID,
			To:     creditors[j].MemberID,
			Amount: amount,
		})

		debtors[i].Balance += amount
		creditors[j].Balance -= amount

		if debtors[i].Balance == 0 {
			i++
		}
		if creditors[j].Balance == 0 {
			j++
		}
	}

	return transfers
}
