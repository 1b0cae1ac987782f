package domain

import "time"

// Entity types. An entity is a piece of infrastructure that can be shared
// across accounts: an IP address, a wallet address, or a device fingerprint.
const (
	EntityTypeIP     = "IP"
	EntityTypeWallet = "Wallet"
	EntityTypeDevice = "Device"
)

// Entity risk levels.
const (
	RiskLevelHigh   = "High"
	RiskLevelMedium = "Medium"
	RiskLevelLow    = "Low"
)

// Entity is an append-only infrastructure record. A new fingerprint value
// always becomes a new entity row; only LastActive and RiskLevel are bumped
// after creation.
type Entity struct {
	ID         string
	Type       string
	Value      string // literal IP / wallet address / device fingerprint
	RiskLevel  string
	LastActive time.Time
}

// Link is a weighted, timestamped association between a user and an entity.
// Links are append-only: a repeat observation of the same (user, entity)
// pair inserts a new row rather than updating an existing one, so the full
// observation history is retained.
type Link struct {
	ID        string
	UserID    string
	EntityID  string
	Strength  float64 // connection weight in [0,1]
	FirstSeen time.Time
}

// MaxStrength resolves the winning strength when the same (user, entity)
// pair has been observed more than once. Downstream ranking uses the
// strongest observation.
func MaxStrength(links []Link) float64 {
	var max float64
	for _, l := range links {
		if l.Strength > max {
			max = l.Strength
		}
	}
	return max
}
