package models

// Expense represents a payment made by one group member on behalf of several,
// split into per-member shares.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// GroupID is the group this expense belongs to.
	GroupID string `json:"group_id"`

	// PayerID is the member who paid the full amount. Only the payer may
	// edit or delete the expense.
	PayerID string `json:"payer_id"`

	// Description is a short human-readable label (e.g., "Dinner", "Cab").
	Description string `json:"description"`

	// Category is an optional expense category (e.g., "food", "travel").
	Category string `json:"category,omitempty"`

	// TotalAmount is the full amount paid, in minor units.
	TotalAmount int64 `json:"total_amount"`

	// Shares is the per-member breakdown. The share amounts always sum to
	// exactly TotalAmount.
	Shares []Share `json:"shares"`

	// CreatedAt is the Unix timestamp when the expense was created.
	CreatedAt int64 `json:"created_at"`
}

// Share is one member's portion of an expense, in minor units.
type Share struct {
	MemberID string `json:"member_id"`
	Amount   int64  `json:"amount"`
}
