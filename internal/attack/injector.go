// Package attack manufactures coordinated multi-user fraud bursts: a small
// group of users deliberately linked to the same three high-risk entities
// within a short time window, exactly the shape the ring builder is meant
// to surface.
package attack

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TraFost/case-pilot/internal/domain"
	"github.com/TraFost/case-pilot/internal/scheduler"
)

// Store is the write-side storage contract the injector requires.
type Store interface {
	SampleUsers(ctx context.Context, limit int) ([]domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	InsertEntity(ctx context.Context, entity domain.Entity) (string, error)
	InsertLink(ctx context.Context, link domain.Link) (string, error)
	InsertTransaction(ctx context.Context, tx domain.Transaction) (string, error)
	InsertAlert(ctx context.Context, alert domain.Alert) (string, error)
}

var (
	attackTriggers = []string{
		"Rapid Withdrawal",
		"Structuring Pattern",
		"Geographic Anomaly",
		"Velocity Check",
	}
	attackTxTypes     = []string{domain.TxTypeWithdrawal, domain.TxTypeTransfer}
	attackFraudTags   = []string{"RapidDrain", "Structuring", "VelocitySpike", "MuleNetwork"}
	attackDevices     = []string{"iPhone", "Android", "Mac", "Windows"}
	attackCurrencies  = []string{"USD", "EUR", "BTC", "ETH"}
	attackEntityTypes = []string{domain.EntityTypeIP, domain.EntityTypeWallet, domain.EntityTypeDevice}
)

const (
	userPoolLimit  = 50
	burstWindow    = 5 * time.Second
	burstJitter    = 30 * time.Minute
	maxEvidenceTxs = 3
)

// Injector schedules coordinated attack bursts against the store. The
// random source is injected so tests can assert exact burst shapes.
type Injector struct {
	store  Store
	sched  scheduler.Scheduler
	logger *slog.Logger

	randMu sync.Mutex
	rand   *rand.Rand
	nowFn  func() time.Time
}

// Option customises an Injector.
type Option func(*Injector)

// WithRand replaces the random source. The injector serialises access, so
// an unshared rand.Rand is fine.
func WithRand(r *rand.Rand) Option {
	return func(i *Injector) { i.rand = r }
}

// WithNow replaces the clock.
func WithNow(now func() time.Time) Option {
	return func(i *Injector) { i.nowFn = now }
}

// NewInjector constructs an Injector.
func NewInjector(store Store, sched scheduler.Scheduler, logger *slog.Logger, opts ...Option) *Injector {
	inj := &Injector{
		store:  store,
		sched:  sched,
		logger: logger,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		nowFn:  time.Now,
	}
	for _, opt := range opts {
		opt(inj)
	}
	return inj
}

// Inject synthesises three shared high-risk entities and schedules 5-10
// alert units against randomly chosen users, staggered evenly across a
// five second window so the burst appears to arrive live. It returns the
// number of units scheduled; zero when no eligible users exist.
//
// Each scheduled unit is independent: a failed unit logs and drops its
// alert, with no cross-unit transaction and no retry.
func (inj *Injector) Inject(ctx context.Context) (int, error) {
	users, err := inj.store.SampleUsers(ctx, userPoolLimit)
	if err != nil {
		return 0, fmt.Errorf("sample eligible users: %w", err)
	}
	if len(users) == 0 {
		return 0, nil
	}

	now := inj.nowFn()
	sharedIP := fmt.Sprintf("203.0.113.%d", inj.intn(200)+1)
	sharedWallet := "0x" + inj.hexString(20)
	sharedDevice := inj.pick(attackDevices) + "::" + inj.hexString(8)

	sharedSpecs := []domain.Entity{
		{Type: domain.EntityTypeIP, Value: sharedIP, RiskLevel: domain.RiskLevelHigh, LastActive: now},
		{Type: domain.EntityTypeWallet, Value: sharedWallet, RiskLevel: domain.RiskLevelHigh, LastActive: now},
		{Type: domain.EntityTypeDevice, Value: sharedDevice, RiskLevel: domain.RiskLevelHigh, LastActive: now},
	}
	sharedEntityIDs := make([]string, 0, len(sharedSpecs))
	for _, spec := range sharedSpecs {
		id, err := inj.store.InsertEntity(ctx, spec)
		if err != nil {
			return 0, fmt.Errorf("insert shared %s entity: %w", spec.Type, err)
		}
		sharedEntityIDs = append(sharedEntityIDs, id)
	}

	batchID := uuid.NewString()
	count := 5 + inj.intn(6)

	// Scheduled units outlive the triggering request.
	unitCtx := context.WithoutCancel(ctx)

	for i := 0; i < count; i++ {
		delay := time.Duration(math.Round(float64(i)/math.Max(1, float64(count-1))*float64(burstWindow.Milliseconds()))) * time.Millisecond
		unit := attackUnit{
			userID:          users[inj.intn(len(users))].ID,
			createdAt:       now.Add(-time.Duration(inj.intn(int(burstJitter.Milliseconds()))) * time.Millisecond),
			batchID:         batchID,
			sharedEntityIDs: sharedEntityIDs,
			sharedIP:        sharedIP,
			sharedWallet:    sharedWallet,
			sharedDevice:    sharedDevice,
		}
		inj.sched.RunAfter(delay, func() {
			if err := inj.insertAttackAlert(unitCtx, unit); err != nil {
				inj.logger.Error("attack unit failed", "error", err, "userId", unit.userID, "batchId", unit.batchID)
			}
		})
	}

	inj.logger.Info("coordinated attack scheduled",
		"scheduled", count,
		"batchId", batchID,
		"sharedIp", sharedIP,
	)
	return count, nil
}

type attackUnit struct {
	userID          string
	createdAt       time.Time
	batchID         string
	sharedEntityIDs []string
	sharedIP        string
	sharedWallet    string
	sharedDevice    string
}

// insertAttackAlert writes one burst member: its fraudulent transactions,
// links to all shared entities, one personal noise entity, and the alert
// row tying it together.
func (inj *Injector) insertAttackAlert(ctx context.Context, unit attackUnit) error {
	user, err := inj.store.GetUser(ctx, unit.userID)
	if err != nil {
		return fmt.Errorf("resolve burst user: %w", err)
	}
	if user == nil {
		// Subject vanished between scheduling and execution; drop the unit.
		return nil
	}

	createdAt := unit.createdAt.Add(time.Duration(inj.intn(500)) * time.Millisecond)
	country := user.Profile.Country
	if country == "" {
		country = "US"
	}

	txCount := 2 + inj.intn(2)
	evidenceTxIDs := make([]string, 0, txCount)
	for i := 0; i < txCount; i++ {
		txID, err := inj.store.InsertTransaction(ctx, domain.Transaction{
			UserID:       unit.userID,
			Amount:       inj.amount(4000, 45000),
			Currency:     inj.pick(attackCurrencies),
			Type:         inj.pick(attackTxTypes),
			Timestamp:    createdAt.Add(time.Duration(i) * time.Second),
			Counterparty: unit.sharedWallet,
			IsFraud:      true,
			FraudTag:     inj.pick(attackFraudTags),
			Meta: domain.TransactionMeta{
				IP:           unit.sharedIP,
				Device:       unit.sharedDevice,
				SharedWallet: unit.sharedWallet,
				Location: domain.Location{
					CountryCode: country,
					Country:     country,
					Address:     "Rapid withdrawal cluster",
				},
			},
		})
		if err != nil {
			return fmt.Errorf("insert fraud transaction: %w", err)
		}
		evidenceTxIDs = append(evidenceTxIDs, txID)
	}

	for _, entityID := range unit.sharedEntityIDs {
		if _, err := inj.store.InsertLink(ctx, domain.Link{
			UserID:    unit.userID,
			EntityID:  entityID,
			Strength:  inj.strength(0.75, 1),
			FirstSeen: createdAt,
		}); err != nil {
			return fmt.Errorf("link shared entity: %w", err)
		}
	}

	// One personal, non-shared entity at lower strength as background noise.
	personalType := inj.pick(attackEntityTypes)
	personalID, err := inj.store.InsertEntity(ctx, domain.Entity{
		Type:       personalType,
		Value:      inj.entityValue(personalType),
		RiskLevel:  domain.RiskLevelMedium,
		LastActive: createdAt,
	})
	if err != nil {
		return fmt.Errorf("insert personal entity: %w", err)
	}
	if _, err := inj.store.InsertLink(ctx, domain.Link{
		UserID:    unit.userID,
		EntityID:  personalID,
		Strength:  inj.strength(0.3, 0.7),
		FirstSeen: createdAt,
	}); err != nil {
		return fmt.Errorf("link personal entity: %w", err)
	}

	if len(evidenceTxIDs) > maxEvidenceTxs {
		evidenceTxIDs = evidenceTxIDs[:maxEvidenceTxs]
	}
	if _, err := inj.store.InsertAlert(ctx, domain.Alert{
		UserID:        unit.userID,
		Trigger:       inj.pick(attackTriggers),
		RiskScore:     float64(90 + inj.intn(10)),
		Amount:        inj.amount(10000, 120000),
		Status:        domain.AlertStatusNew,
		CreatedAt:     createdAt,
		IsRealtime:    true,
		AttackBatchID: unit.batchID,
		EvidenceTxIDs: evidenceTxIDs,
	}); err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (inj *Injector) entityValue(entityType string) string {
	switch entityType {
	case domain.EntityTypeIP:
		return fmt.Sprintf("203.0.113.%d", inj.intn(200)+1)
	case domain.EntityTypeWallet:
		return "0x" + inj.hexString(16)
	default:
		return inj.pick(attackDevices) + "::" + inj.hexString(6)
	}
}

// Random helpers. Scheduled units run on timer goroutines, so access to
// the shared rand.Rand is serialised.

func (inj *Injector) intn(n int) int {
	inj.randMu.Lock()
	defer inj.randMu.Unlock()
	return inj.rand.Intn(n)
}

func (inj *Injector) float() float64 {
	inj.randMu.Lock()
	defer inj.randMu.Unlock()
	return inj.rand.Float64()
}

func (inj *Injector) pick(items []string) string {
	return items[inj.intn(len(items))]
}

func (inj *Injector) amount(min, max float64) float64 {
	return math.Round((min+inj.float()*(max-min))*100) / 100
}

func (inj *Injector) strength(min, max float64) float64 {
	return math.Round((min+inj.float()*(max-min))*100) / 100
}

const hexDigits = "0123456789abcdef"

func (inj *Injector) hexString(length int) string {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = hexDigits[inj.intn(len(hexDigits))]
	}
	return string(buf)
}
