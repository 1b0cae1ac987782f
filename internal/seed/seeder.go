// Package seed fills the store with demo-balanced investigation data:
// suspect accounts with transaction histories, alerts for the flagged
// ones, a pool of infrastructure entities, and a couple of pre-built
// fraud rings for the ring graph view to land on.
package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/TraFost/case-pilot/internal/domain"
)

// Store is the write surface the seeder needs.
type Store interface {
	InsertUser(ctx context.Context, user domain.User) (string, error)
	InsertEntity(ctx context.Context, entity domain.Entity) (string, error)
	InsertLink(ctx context.Context, link domain.Link) (string, error)
	InsertTransaction(ctx context.Context, tx domain.Transaction) (string, error)
	InsertAlert(ctx context.Context, alert domain.Alert) (string, error)
}

// Config drives the demo seeder.
type Config struct {
	Users     int
	TxPerUser int
	Entities  int
	Rings     int
	Seed      int64
}

// DefaultConfig returns the baseline demo volume.
func DefaultConfig() Config {
	return Config{
		Users:     18,
		TxPerUser: 10,
		Entities:  22,
		Rings:     2,
		Seed:      0,
	}
}

// Result summarises what was written, including ring membership so tests
// and callers can verify ring reachability.
type Result struct {
	Users        int
	Transactions int
	Entities     int
	Links        int
	Alerts       int
	RingUserIDs  [][]string
}

// Seeder produces the demo dataset. Not safe for concurrent use; run once.
type Seeder struct {
	cfg   Config
	rand  *rand.Rand
	names nameFragments
}

// New returns a configured Seeder. A zero seed falls back to wall-clock
// entropy.
func New(cfg Config) *Seeder {
	def := DefaultConfig()
	if cfg.Users <= 0 {
		cfg.Users = def.Users
	}
	if cfg.TxPerUser <= 0 {
		cfg.TxPerUser = def.TxPerUser
	}
	if cfg.Entities <= 0 {
		cfg.Entities = def.Entities
	}
	if cfg.Rings < 0 {
		cfg.Rings = def.Rings
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Seeder{
		cfg:   cfg,
		rand:  rand.New(rand.NewSource(cfg.Seed)),
		names: defaultNameFragments(),
	}
}

var (
	userStatuses = []string{domain.UserStatusActive, domain.UserStatusFrozen, domain.UserStatusShadowBanned}
	accountTypes = []string{domain.AccountTypeRetail, domain.AccountTypeVIP, domain.AccountTypeMerchant}
	txTypes      = []string{domain.TxTypeDeposit, domain.TxTypeWithdrawal, domain.TxTypeTransfer}
	entityTypes  = []string{domain.EntityTypeIP, domain.EntityTypeWallet, domain.EntityTypeDevice}
	currencies   = []string{"USD", "EUR", "BTC", "ETH"}
	devices      = []string{"iPhone", "Android", "Mac", "Windows"}
	fraudTags    = []string{"Structuring", "RapidDrain", "GeoAnomaly", "VelocitySpike", "MuleNetwork"}
	triggers     = []string{"Rapid Withdrawal", "Structuring Pattern", "Geographic Anomaly", "Velocity Check"}
	// "New" twice keeps fresh alerts dominant in the demo feed.
	alertStatuses = []string{domain.AlertStatusNew, domain.AlertStatusNew, domain.AlertStatusInvestigating, domain.AlertStatusResolved}
	riskLevels    = []string{domain.RiskLevelHigh, domain.RiskLevelHigh, domain.RiskLevelMedium, domain.RiskLevelLow}
)

// Run writes the full demo dataset. It respects context cancellation
// between rows.
func (s *Seeder) Run(ctx context.Context, store Store) (Result, error) {
	var res Result
	now := time.Now().UTC()

	// Users, their transactions, and alerts for the flagged ones.
	userIDs := make([]string, 0, s.cfg.Users)
	for i := 0; i < s.cfg.Users; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		flagged := s.rand.Intn(2) == 0
		riskScore := float64(5 + s.rand.Intn(56))
		if flagged {
			riskScore = float64(65 + s.rand.Intn(34))
		}

		userID, err := store.InsertUser(ctx, domain.User{
			Name:          s.fullName(),
			Email:         s.email(),
			AccountType:   accountTypes[s.rand.Intn(len(accountTypes))],
			Flagged:       flagged,
			RiskScore:     riskScore,
			Status:        userStatuses[s.rand.Intn(len(userStatuses))],
			LastLoginIP:   s.ip(),
			WalletAddress: s.walletAddress(),
			Profile: domain.Profile{
				Country: s.countryCode(),
				Device:  devices[s.rand.Intn(len(devices))],
			},
			CreatedAt: now.Add(-time.Duration(s.rand.Intn(365*24)) * time.Hour),
		})
		if err != nil {
			return res, fmt.Errorf("insert user: %w", err)
		}
		userIDs = append(userIDs, userID)
		res.Users++

		var fraudTxIDs []string
		for j := 0; j < s.cfg.TxPerUser; j++ {
			isFraud := s.rand.Intn(2) == 0
			amount := s.amount(20, 2000)
			if isFraud {
				amount = s.amount(3000, 25000)
			}
			tx := domain.Transaction{
				UserID:    userID,
				Amount:    amount,
				Currency:  currencies[s.rand.Intn(len(currencies))],
				Type:      txTypes[s.rand.Intn(len(txTypes))],
				Timestamp: s.recentTime(now),
				IsFraud:   isFraud,
				Meta: domain.TransactionMeta{
					IP:     s.ip(),
					Device: devices[s.rand.Intn(len(devices))],
					Location: domain.Location{
						CountryCode: s.countryCode(),
						Country:     s.countryCode(),
						Address:     s.street(),
					},
				},
			}
			if isFraud {
				tx.FraudTag = fraudTags[s.rand.Intn(len(fraudTags))]
			}
			if s.rand.Intn(2) == 0 {
				tx.Counterparty = s.companyName()
			}
			txID, err := store.InsertTransaction(ctx, tx)
			if err != nil {
				return res, fmt.Errorf("insert transaction: %w", err)
			}
			res.Transactions++
			if isFraud {
				fraudTxIDs = append(fraudTxIDs, txID)
			}
		}

		if flagged || len(fraudTxIDs) > 0 {
			evidence := fraudTxIDs
			if len(evidence) > 3 {
				evidence = evidence[:3]
			}
			if _, err := store.InsertAlert(ctx, domain.Alert{
				UserID:        userID,
				Trigger:       triggers[s.rand.Intn(len(triggers))],
				RiskScore:     riskScore,
				Amount:        s.amount(100, 50000),
				Status:        alertStatuses[s.rand.Intn(len(alertStatuses))],
				CreatedAt:     s.recentTime(now),
				EvidenceTxIDs: evidence,
			}); err != nil {
				return res, fmt.Errorf("insert alert: %w", err)
			}
			res.Alerts++
		}
	}

	// Infrastructure entity pool; high-risk entities become ring anchors.
	entityIDs := make([]string, 0, s.cfg.Entities)
	var highRiskIDs []string
	for k := 0; k < s.cfg.Entities; k++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		entityType := entityTypes[s.rand.Intn(len(entityTypes))]
		riskLevel := riskLevels[s.rand.Intn(len(riskLevels))]
		id, err := store.InsertEntity(ctx, domain.Entity{
			Type:       entityType,
			Value:      s.entityValue(entityType),
			RiskLevel:  riskLevel,
			LastActive: s.recentTime(now),
		})
		if err != nil {
			return res, fmt.Errorf("insert entity: %w", err)
		}
		entityIDs = append(entityIDs, id)
		res.Entities++
		if riskLevel == domain.RiskLevelHigh {
			highRiskIDs = append(highRiskIDs, id)
		}
	}

	anchors := highRiskIDs
	if len(anchors) == 0 {
		anchors = entityIDs
		if len(anchors) > 6 {
			anchors = anchors[:6]
		}
	}

	// Fraud rings: groups of users strongly linked to common anchor
	// entities, each member with a little personal noise on the side.
	remaining := append([]string(nil), userIDs...)
	for ringIdx := 0; ringIdx < s.cfg.Rings; ringIdx++ {
		ringSize := 4 + s.rand.Intn(2)
		if ringSize > len(remaining) {
			ringSize = len(remaining)
		}
		if ringSize == 0 {
			break
		}
		ringUsers := remaining[:ringSize]
		remaining = remaining[ringSize:]

		ringEntityCount := 2 + s.rand.Intn(3)
		ringEntities := make([]string, ringEntityCount)
		for i := range ringEntities {
			ringEntities[i] = anchors[s.rand.Intn(len(anchors))]
		}

		for _, userID := range ringUsers {
			for _, entityID := range ringEntities {
				if _, err := store.InsertLink(ctx, domain.Link{
					UserID:    userID,
					EntityID:  entityID,
					Strength:  s.strength(0.75, 1),
					FirstSeen: s.recentTime(now),
				}); err != nil {
					return res, fmt.Errorf("insert ring link: %w", err)
				}
				res.Links++
			}

			personal := 1 + s.rand.Intn(2)
			for i := 0; i < personal; i++ {
				if _, err := store.InsertLink(ctx, domain.Link{
					UserID:    userID,
					EntityID:  entityIDs[s.rand.Intn(len(entityIDs))],
					Strength:  s.strength(0.2, 0.7),
					FirstSeen: s.recentTime(now),
				}); err != nil {
					return res, fmt.Errorf("insert noise link: %w", err)
				}
				res.Links++
			}
		}
		res.RingUserIDs = append(res.RingUserIDs, append([]string(nil), ringUsers...))
	}

	// A sprinkle of unrelated links so non-ring users are not isolated.
	for _, userID := range userIDs {
		linkCount := 1 + s.rand.Intn(2)
		for i := 0; i < linkCount; i++ {
			if _, err := store.InsertLink(ctx, domain.Link{
				UserID:    userID,
				EntityID:  entityIDs[s.rand.Intn(len(entityIDs))],
				Strength:  s.strength(0.2, 1),
				FirstSeen: s.recentTime(now),
			}); err != nil {
				return res, fmt.Errorf("insert random link: %w", err)
			}
			res.Links++
		}
	}

	return res, nil
}

func (s *Seeder) amount(min, max float64) float64 {
	return math.Round((min+s.rand.Float64()*(max-min))*100) / 100
}

func (s *Seeder) strength(min, max float64) float64 {
	return math.Round((min+s.rand.Float64()*(max-min))*100) / 100
}

func (s *Seeder) recentTime(now time.Time) time.Time {
	return now.Add(-time.Duration(s.rand.Intn(30*24*60)) * time.Minute)
}

func (s *Seeder) fullName() string {
	return s.names.first[s.rand.Intn(len(s.names.first))] + " " + s.names.last[s.rand.Intn(len(s.names.last))]
}

func (s *Seeder) email() string {
	return fmt.Sprintf("%s.%s%d@%s",
		s.names.first[s.rand.Intn(len(s.names.first))],
		s.names.last[s.rand.Intn(len(s.names.last))],
		s.rand.Intn(1000),
		s.names.domains[s.rand.Intn(len(s.names.domains))],
	)
}

func (s *Seeder) ip() string {
	return fmt.Sprintf("%d.%d.%d.%d", s.rand.Intn(223)+1, s.rand.Intn(256), s.rand.Intn(256), s.rand.Intn(256))
}

func (s *Seeder) walletAddress() string {
	return "0x" + s.hexString(20)
}

func (s *Seeder) countryCode() string {
	return s.names.countries[s.rand.Intn(len(s.names.countries))]
}

func (s *Seeder) street() string {
	return fmt.Sprintf("%d %s %s", s.rand.Intn(9999)+1,
		s.names.streets[s.rand.Intn(len(s.names.streets))],
		s.names.streetSuffix[s.rand.Intn(len(s.names.streetSuffix))])
}

func (s *Seeder) companyName() string {
	return s.names.companies[s.rand.Intn(len(s.names.companies))]
}

func (s *Seeder) entityValue(entityType string) string {
	switch entityType {
	case domain.EntityTypeIP:
		return s.ip()
	case domain.EntityTypeWallet:
		return s.walletAddress()
	default:
		return devices[s.rand.Intn(len(devices))] + "::" + s.hexString(12)
	}
}

const hexDigits = "0123456789abcdef"

func (s *Seeder) hexString(length int) string {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = hexDigits[s.rand.Intn(len(hexDigits))]
	}
	return string(buf)
}

type nameFragments struct {
	first        []string
	last         []string
	domains      []string
	streets      []string
	streetSuffix []string
	countries    []string
	companies    []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:        []string{"Jane", "John", "Alex", "Priya", "Liu", "Maria", "Omar", "Sofia", "Noah", "Emma", "Lucas", "Mia", "Ava", "Ethan", "Zara"},
		last:         []string{"Doe", "Smith", "Chen", "Patel", "Garcia", "Khan", "Kim", "Ivanov", "Nguyen", "Silva", "Brown", "Lee"},
		domains:      []string{"example.com", "mail.com", "casepilot.io", "payments.net", "securepay.org"},
		streets:      []string{"Market", "Mission", "Broadway", "Fifth", "Sunset", "Park", "Cedar", "Oak", "Pine", "Ash"},
		streetSuffix: []string{"St", "Ave", "Blvd", "Ln", "Rd", "Way"},
		countries:    []string{"US", "GB", "DE", "SG", "BR", "NG", "IN", "JP"},
		companies:    []string{"Northwind Ltd", "Acme Holdings", "Globex Corp", "Umbra Trading", "Initech LLC", "Vandelay Imports"},
	}
}
