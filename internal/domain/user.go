package domain

import "time"

// User statuses. Status is only ever mutated by enforcement actions; user
// rows are never deleted.
const (
	UserStatusActive       = "Active"
	UserStatusFrozen       = "Frozen"
	UserStatusShadowBanned = "ShadowBanned"
)

// Account types as surfaced in the alerts table.
const (
	AccountTypeRetail   = "Retail"
	AccountTypeVIP      = "VIP"
	AccountTypeMerchant = "Merchant"
)

// Profile carries the structured slice of a user's raw profile blob that the
// investigation tooling actually consumes. Upstream fields with no known
// shape are preserved in Extra.
type Profile struct {
	Country string            `json:"country,omitempty"`
	Device  string            `json:"device,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// User is a suspect account under investigation.
type User struct {
	ID            string
	Name          string
	Email         string
	AccountType   string
	Flagged       bool
	RiskScore     float64 // 0-100 live aggregate
	Status        string
	LastLoginIP   string
	WalletAddress string
	Profile       Profile
	CreatedAt     time.Time
}

// ValidUserStatus reports whether s is one of the enforcement statuses.
func ValidUserStatus(s string) bool {
	switch s {
	case UserStatusActive, UserStatusFrozen, UserStatusShadowBanned:
		return true
	}
	return false
}
