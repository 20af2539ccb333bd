package models

// Settlement represents a recorded payment between two group members that
// clears (part of) a debt. Settlements are append-only: once written they are
// never mutated or deleted.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string `json:"id"`

	// GroupID is the group this settlement belongs to.
	GroupID string `json:"group_id"`

	// FromUserID is the member who paid (debtor settling up).
	FromUserID string `json:"from_user_id"`

	// ToUserID is the member who received payment (creditor being paid).
	ToUserID string `json:"to_user_id"`

	// Amount is the payment amount in minor units. Always positive.
	Amount int64 `json:"amount"`

	// Method is an optional payment method label (e.g., "upi", "cash").
	Method string `json:"method,omitempty"`

	// Notes is an optional free-form description.
	Notes string `json:"notes,omitempty"`

	// SettledAt is the Unix timestamp when the settlement was recorded.
	SettledAt int64 `json:"settled_at"`
}
