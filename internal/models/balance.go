package models

// MemberBalance is one member's derived net position within a group, in minor
// units. Positive means the member is owed money; negative means they owe.
type MemberBalance struct {
	MemberID string `json:"member_id"`
	Balance  int64  `json:"balance"`
}

// Transfer is one payment in a settlement plan: From pays To Amount minor
// units.
type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}
