package leader

import (
	"context"
	"testing"
	"time"

	"lot-bidding/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newElection(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisLeaderElection) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisLeaderElection(client, DefaultLeaderKey, ttl, logger.NewNop())
}

func TestRedisLeaderElection_SingleLeader(t *testing.T) {
	ctx := context.Background()
	_, election := newElection(t, 30*time.Second)

	became, err := election.BecomeLeader(ctx, "audit-1")
	require.NoError(t, err)
	require.True(t, became)

	became, err = election.BecomeLeader(ctx, "audit-2")
	require.NoError(t, err)
	require.False(t, became)

	isLeader, err := election.IsLeader(ctx, "audit-1")
	require.NoError(t, err)
	require.True(t, isLeader)

	isLeader, err = election.IsLeader(ctx, "audit-2")
	require.NoError(t, err)
	require.False(t, isLeader)
}

func TestRedisLeaderElection_ReleaseOnlyByOwner(t *testing.T) {
	ctx := context.Background()
	mr, election := newElection(t, 30*time.Second)

	_, err := election.BecomeLeader(ctx, "audit-1")
	require.NoError(t, err)

	require.NoError(t, election.ReleaseLeadership(ctx, "audit-2"))
	require.True(t, mr.Exists(DefaultLeaderKey))

	require.NoError(t, election.ReleaseLeadership(ctx, "audit-1"))
	require.False(t, mr.Exists(DefaultLeaderKey))

	isLeader, err := election.IsLeader(ctx, "audit-1")
	require.NoError(t, err)
	require.False(t, isLeader)
}

func TestRedisLeaderElection_HeartbeatExtendsTTL(t *testing.T) {
	ctx := context.Background()
	mr, election := newElection(t, 300*time.Millisecond)

	_, err := election.BecomeLeader(ctx, "audit-1")
	require.NoError(t, err)

	mr.FastForward(200 * time.Millisecond)
	require.Eventually(t, func() bool {
		return mr.TTL(DefaultLeaderKey) > 200*time.Millisecond
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, election.ReleaseLeadership(ctx, "audit-1"))
}
