package domain

import "time"

// Alert statuses.
const (
	AlertStatusNew           = "New"
	AlertStatusInvestigating = "Investigating"
	AlertStatusResolved      = "Resolved"
)

// Alert is a flagged event for one user. EvidenceTxIDs point at the
// transactions backing the flag; the alert's UserID is the usual entry
// point into the ring graph builder.
type Alert struct {
	ID            string
	UserID        string
	Trigger       string // e.g. "Rapid Withdrawal", "Structuring Pattern"
	RiskScore     float64
	Amount        float64
	Status        string
	CreatedAt     time.Time
	IsRealtime    bool   // injected burst alerts
	AttackBatchID string // groups alerts belonging to one injected burst
	EvidenceTxIDs []string
}

// AlertWithUser joins an alert with the display name of its subject for
// list views.
type AlertWithUser struct {
	Alert
	UserName string
}

// Action records an enforcement step taken against a user.
type Action struct {
	ID         string
	UserID     string
	Type       string // "freeze" | "shadow_ban" | "release"
	ExecutedBy string // "System" | "Analyst"
	ExecutedAt time.Time
	Result     string // "Success" | "Failed"
	Notes      string
}
