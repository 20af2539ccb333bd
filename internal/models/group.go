package models

// Group represents a set of members who share expenses. The member list is
// authoritative: expenses and settlements may only reference member IDs that
// are in it.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Flatmates", "Goa Trip").
	Name string `json:"name"`

	// MemberIDs is the list of user IDs in this group.
	MemberIDs []string `json:"member_ids"`

	// CreatedBy is the user ID that created the group.
	CreatedBy string `json:"created_by"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"created_at"`
}

// HasMember reports whether userID is in the group's member list.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.MemberIDs {
		if m == userID {
			return true
		}
	}
	return false
}
