package attack

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TraFost/case-pilot/internal/domain"
	"github.com/TraFost/case-pilot/internal/ring"
	"github.com/TraFost/case-pilot/internal/scheduler"
	"github.com/TraFost/case-pilot/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedUsers(t *testing.T, mem *store.Memory, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, err := mem.InsertUser(ctx, domain.User{
			Name:    "User " + string(rune('A'+i)),
			Profile: domain.Profile{Country: "US"},
		})
		require.NoError(t, err)
	}
}

func TestInjectEmptyPool(t *testing.T) {
	mem := store.NewMemory()
	inj := NewInjector(mem, scheduler.Synchronous{}, discardLogger())

	count, err := inj.Inject(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)

	alerts, err := mem.ListAlerts(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, alerts)
}

func TestInjectBurstShape(t *testing.T) {
	mem := store.NewMemory()
	seedUsers(t, mem, 12)

	inj := NewInjector(mem, scheduler.Synchronous{}, discardLogger(),
		WithRand(rand.New(rand.NewSource(7))),
		WithNow(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }),
	)

	ctx := context.Background()
	count, err := inj.Inject(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, count, 5)
	require.LessOrEqual(t, count, 10)

	alerts, err := mem.ListAlerts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, alerts, count)

	batchID := alerts[0].AttackBatchID
	require.NotEmpty(t, batchID)

	for _, alert := range alerts {
		require.Equal(t, batchID, alert.AttackBatchID)
		require.True(t, alert.IsRealtime)
		require.Equal(t, domain.AlertStatusNew, alert.Status)
		require.GreaterOrEqual(t, alert.RiskScore, 90.0)
		require.LessOrEqual(t, alert.RiskScore, 99.0)
		require.GreaterOrEqual(t, len(alert.EvidenceTxIDs), 2)
		require.LessOrEqual(t, len(alert.EvidenceTxIDs), 3)
		require.GreaterOrEqual(t, alert.Amount, 10000.0)
		require.LessOrEqual(t, alert.Amount, 120000.0)
	}
}

func TestInjectLinksEveryTargetToSharedEntities(t *testing.T) {
	mem := store.NewMemory()
	seedUsers(t, mem, 12)

	inj := NewInjector(mem, scheduler.Synchronous{}, discardLogger(),
		WithRand(rand.New(rand.NewSource(11))),
	)

	ctx := context.Background()
	count, err := inj.Inject(ctx)
	require.NoError(t, err)
	require.NotZero(t, count)

	alerts, err := mem.ListAlerts(ctx, 0)
	require.NoError(t, err)

	targets := make(map[string]struct{})
	for _, alert := range alerts {
		targets[alert.UserID] = struct{}{}
	}

	// Each unit writes three strong links (shared entities) and one weaker
	// personal link per execution.
	sharedByUser := make(map[string]map[string]struct{})
	for userID := range targets {
		links, err := mem.LinksByUser(ctx, userID)
		require.NoError(t, err)

		strong := make(map[string]struct{})
		for _, link := range links {
			if link.Strength >= 0.75 {
				strong[link.EntityID] = struct{}{}
			} else {
				require.GreaterOrEqual(t, link.Strength, 0.3)
				require.LessOrEqual(t, link.Strength, 0.7)
			}
		}
		require.Len(t, strong, 3, "user %s should link all three shared entities", userID)
		sharedByUser[userID] = strong
	}

	// Every target shares the same three entities.
	var reference map[string]struct{}
	for _, strong := range sharedByUser {
		if reference == nil {
			reference = strong
			continue
		}
		require.Equal(t, reference, strong)
	}
}

func TestInjectSharedEntityValues(t *testing.T) {
	mem := store.NewMemory()
	seedUsers(t, mem, 8)

	inj := NewInjector(mem, scheduler.Synchronous{}, discardLogger(),
		WithRand(rand.New(rand.NewSource(3))),
	)

	ctx := context.Background()
	_, err := inj.Inject(ctx)
	require.NoError(t, err)

	alerts, err := mem.ListAlerts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	links, err := mem.LinksByUser(ctx, alerts[0].UserID)
	require.NoError(t, err)

	byType := make(map[string]domain.Entity)
	for _, link := range links {
		if link.Strength < 0.75 {
			continue
		}
		entity, err := mem.GetEntity(ctx, link.EntityID)
		require.NoError(t, err)
		require.NotNil(t, entity)
		require.Equal(t, domain.RiskLevelHigh, entity.RiskLevel)
		byType[entity.Type] = *entity
	}

	require.Len(t, byType, 3)
	require.True(t, strings.HasPrefix(byType[domain.EntityTypeIP].Value, "203.0.113."))
	require.True(t, strings.HasPrefix(byType[domain.EntityTypeWallet].Value, "0x"))
	require.Len(t, byType[domain.EntityTypeWallet].Value, 22)
	require.Contains(t, byType[domain.EntityTypeDevice].Value, "::")
}

func TestInjectedBurstFormsRing(t *testing.T) {
	mem := store.NewMemory()
	seedUsers(t, mem, 12)

	inj := NewInjector(mem, scheduler.Synchronous{}, discardLogger(),
		WithRand(rand.New(rand.NewSource(19))),
	)

	ctx := context.Background()
	_, err := inj.Inject(ctx)
	require.NoError(t, err)

	alerts, err := mem.ListAlerts(ctx, 0)
	require.NoError(t, err)

	targets := make(map[string]struct{})
	for _, alert := range alerts {
		targets[alert.UserID] = struct{}{}
	}

	// Any burst member's ring graph must reach every other member through
	// the shared entities.
	builder := ring.NewBuilder(mem)
	for seedID := range targets {
		graph, err := builder.BuildByUser(ctx, seedID)
		require.NoError(t, err)
		require.NotNil(t, graph)

		reached := make(map[string]struct{})
		for _, node := range graph.Nodes {
			if node.Type == domain.RingNodeSuspect || node.Type == domain.RingNodeMule {
				reached[strings.TrimPrefix(node.ID, "user-")] = struct{}{}
			}
		}
		for otherID := range targets {
			require.Contains(t, reached, otherID, "user %s should reach burst member %s", seedID, otherID)
		}
		break
	}
}

func TestInjectTimerSchedulerSpreadsUnits(t *testing.T) {
	mem := store.NewMemory()
	seedUsers(t, mem, 6)

	rec := &recordingScheduler{}
	inj := NewInjector(mem, rec, discardLogger(), WithRand(rand.New(rand.NewSource(5))))

	count, err := inj.Inject(context.Background())
	require.NoError(t, err)

	delays := rec.delays
	require.Len(t, delays, count)

	require.Equal(t, time.Duration(0), delays[0])
	require.Equal(t, 5*time.Second, delays[len(delays)-1])
	for i := 1; i < len(delays); i++ {
		require.Greater(t, delays[i], delays[i-1])
	}
}

type recordingScheduler struct {
	delays []time.Duration
}

func (r *recordingScheduler) RunAfter(delay time.Duration, fn func()) {
	r.delays = append(r.delays, delay)
}
