package services

import (
	"context"
	"testing"
	"time"

	"lot-bidding/internal/domain"
	"lot-bidding/internal/infrastructure/memory"
	"lot-bidding/pkg/logger"

	"github.com/stretchr/testify/require"
)

type staticLeader struct {
	leader bool
}

func (s *staticLeader) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	return s.leader, nil
}

func (s *staticLeader) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	return s.leader, nil
}

func (s *staticLeader) ReleaseLeadership(ctx context.Context, instanceID string) error {
	s.leader = false
	return nil
}

func newDriftedStore(t *testing.T) *memory.LotStore {
	t.Helper()
	ctx := context.Background()
	store := memory.NewLotStore()

	for _, id := range []string{"lot-1", "lot-2"} {
		require.NoError(t, store.CreateLot(ctx, &domain.Lot{
			ID:           id,
			AuctionID:    "auction-1",
			StartBid:     10000,
			MinIncrement: 500,
			EndsAt:       time.Now().Add(time.Hour),
		}))
	}

	lot, err := store.GetLot(ctx, "lot-1")
	require.NoError(t, err)
	_, err = store.Commit(ctx, lot, "alice", 10500)
	require.NoError(t, err)

	wrong := int64(99999)
	store.SetCurrentBid("lot-1", &wrong)
	return store
}

func TestLedgerAuditor_RunOnce_ReportsDrift(t *testing.T) {
	store := newDriftedStore(t)
	auditor := NewLedgerAuditor("@every 1m", store, memory.NewLotLockManager(time.Second),
		&staticLeader{leader: true}, "audit-1", false, logger.NewNop())

	drifts, err := auditor.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	require.Equal(t, "lot-1", drifts[0].LotID)
	require.Equal(t, int64(99999), *drifts[0].Stored)
	require.Equal(t, int64(10500), drifts[0].Expected)
	require.Equal(t, 1, drifts[0].BidCount)

	lot, err := store.GetLot(context.Background(), "lot-1")
	require.NoError(t, err)
	require.Equal(t, int64(99999), *lot.CurrentBid)
}

func TestLedgerAuditor_RunOnce_Repairs(t *testing.T) {
	ctx := context.Background()
	store := newDriftedStore(t)
	auditor := NewLedgerAuditor("@every 1m", store, memory.NewLotLockManager(time.Second),
		nil, "audit-1", true, logger.NewNop())

	drifts, err := auditor.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 1)

	lot, err := store.GetLot(ctx, "lot-1")
	require.NoError(t, err)
	require.Equal(t, int64(10500), *lot.CurrentBid)

	drifts, err = auditor.RunOnce(ctx)
	require.NoError(t, err)
	require.Empty(t, drifts)
}

func TestLedgerAuditor_RunOnce_SkipsBusyLot(t *testing.T) {
	ctx := context.Background()
	store := newDriftedStore(t)
	locks := memory.NewLotLockManager(time.Minute)
	auditor := NewLedgerAuditor("@every 1m", store, locks, nil, "audit-1", true, logger.NewNop())

	held, err := locks.Acquire(ctx, "lot-1")
	require.NoError(t, err)
	defer held.Release(ctx)

	drifts, err := auditor.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 1)

	lot, err := store.GetLot(ctx, "lot-1")
	require.NoError(t, err)
	require.Equal(t, int64(99999), *lot.CurrentBid)
}

func TestLedgerAuditor_RunOnce_NotLeader(t *testing.T) {
	store := newDriftedStore(t)
	auditor := NewLedgerAuditor("@every 1m", store, memory.NewLotLockManager(time.Second),
		&staticLeader{}, "audit-2", true, logger.NewNop())

	drifts, err := auditor.RunOnce(context.Background())
	require.NoError(t, err)
	require.Empty(t, drifts)

	lot, err := store.GetLot(context.Background(), "lot-1")
	require.NoError(t, err)
	require.Equal(t, int64(99999), *lot.CurrentBid)
}

func TestLedgerAuditor_StartRejectsBadSchedule(t *testing.T) {
	auditor := NewLedgerAuditor("not a schedule", memory.NewLotStore(), memory.NewLotLockManager(time.Second),
		nil, "audit-1", false, logger.NewNop())

	require.Error(t, auditor.Start(context.Background()))
}

func TestLedgerAuditor_StartStop(t *testing.T) {
	auditor := NewLedgerAuditor("@every 1h", memory.NewLotStore(), memory.NewLotLockManager(time.Second),
		nil, "audit-1", false, logger.NewNop())

	require.NoError(t, auditor.Start(context.Background()))
	require.NoError(t, auditor.Stop())
}

// deadlineLocks remembers the deadline each release was given.
type deadlineLocks struct {
	domain.LockManager
	deadlines []time.Time
}

func (d *deadlineLocks) Acquire(ctx context.Context, lotID string) (domain.Lease, error) {
	lease, err := d.LockManager.Acquire(ctx, lotID)
	if err != nil {
		return nil, err
	}
	return &deadlineLease{Lease: lease, owner: d}, nil
}

type deadlineLease struct {
	domain.Lease
	owner *deadlineLocks
}

func (l *deadlineLease) Release(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if ok {
		l.owner.deadlines = append(l.owner.deadlines, deadline)
	}
	return l.Lease.Release(ctx)
}

func TestLedgerAuditor_RunOnce_RepairReleaseIsBounded(t *testing.T) {
	store := newDriftedStore(t)
	locks := &deadlineLocks{LockManager: memory.NewLotLockManager(time.Second)}
	auditor := NewLedgerAuditor("@every 1m", store, locks, nil, "audit-1", true, logger.NewNop())

	start := time.Now()
	_, err := auditor.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, locks.deadlines, 1, "repair release must carry a deadline")
	require.WithinDuration(t, start.Add(releaseTimeout), locks.deadlines[0], releaseTimeout)
}
