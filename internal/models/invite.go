package models

import "time"

// InviteTTL is how long an issued invite stays redeemable
const InviteTTL = 24 * time.Hour

// Invite is a single-use token granting Role on TreeID. Invites are never
// deleted; a redeemed invite stays as an audit record.
type Invite struct {
	ID             int64     `json:"id"`
	Token          string    `json:"token"`
	TreeID         int64     `json:"treeId"`
	Role           Role      `json:"role"`
	ExpirationDate time.Time `json:"expirationDate"`
	IsUsed         bool      `json:"isUsed"`
	RecipientEmail *string   `json:"recipientEmail,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// IsExpired reports whether the invite is past its expiration at now
func (i *Invite) IsExpired(now time.Time) bool {
	return now.After(i.ExpirationDate)
}
