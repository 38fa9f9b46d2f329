package memory

import (
	"context"
	"testing"
	"time"

	"lot-bidding/internal/domain"

	"github.com/stretchr/testify/require"
)

func newTestLot(t *testing.T, s *LotStore) *domain.Lot {
	t.Helper()
	lot := &domain.Lot{
		ID:           "lot-1",
		AuctionID:    "auction-1",
		StartBid:     10000,
		MinIncrement: 500,
		EndsAt:       time.Now().Add(time.Hour),
	}
	require.NoError(t, s.CreateLot(context.Background(), lot))
	return lot
}

func price(v int64) *int64 { return &v }

func TestLotStore_CommitRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewLotStore()
	lot := newTestLot(t, s)

	bid, err := s.Commit(ctx, lot, "user-1", 10500)
	require.NoError(t, err)
	require.NotEmpty(t, bid.ID)

	stored, err := s.GetLot(ctx, lot.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10500), *stored.CurrentBid)

	got, err := s.GetBid(ctx, bid.ID)
	require.NoError(t, err)
	require.Equal(t, *bid, *got)

	bids, err := s.ListBids(ctx, lot.ID)
	require.NoError(t, err)
	require.Len(t, bids, 1)
}

func TestLotStore_CommitRejectsStaleSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewLotStore()
	lot := newTestLot(t, s)

	_, err := s.Commit(ctx, lot, "user-1", 10500)
	require.NoError(t, err)

	// lot still has CurrentBid == nil, so it is stale now
	_, err = s.Commit(ctx, lot, "user-2", 11000)
	require.ErrorIs(t, err, domain.ErrStaleLot)

	bids, err := s.ListBids(ctx, lot.ID)
	require.NoError(t, err)
	require.Len(t, bids, 1, "stale commit must not insert a bid")
}

func TestLotStore_GetMissing(t *testing.T) {
	ctx := context.Background()
	s := NewLotStore()

	_, err := s.GetLot(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrLotNotFound)
	_, err = s.GetBid(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrBidNotFound)
	_, err = s.Commit(ctx, &domain.Lot{ID: "nope"}, "u", 1)
	require.ErrorIs(t, err, domain.ErrLotNotFound)
}

func TestLotStore_RevokeBidRecomputesPrice(t *testing.T) {
	ctx := context.Background()
	s := NewLotStore()
	lot := newTestLot(t, s)

	first, err := s.Commit(ctx, lot, "user-1", 10500)
	require.NoError(t, err)
	lot, _ = s.GetLot(ctx, lot.ID)
	second, err := s.Commit(ctx, lot, "user-2", 11000)
	require.NoError(t, err)

	revoked, after, err := s.RevokeBid(ctx, second.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, revoked.ID)
	require.Equal(t, int64(10500), *after.CurrentBid)

	_, after, err = s.RevokeBid(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, lot.StartBid, *after.CurrentBid, "no bids left falls back to start bid")

	_, _, err = s.RevokeBid(ctx, first.ID)
	require.ErrorIs(t, err, domain.ErrBidNotFound)
}

func TestLotStore_FindAndRepairDrift(t *testing.T) {
	ctx := context.Background()
	s := NewLotStore()
	lot := newTestLot(t, s)

	_, err := s.Commit(ctx, lot, "user-1", 10500)
	require.NoError(t, err)

	drifts, err := s.FindPriceDrift(ctx)
	require.NoError(t, err)
	require.Empty(t, drifts)

	s.SetCurrentBid(lot.ID, price(99999))
	drifts, err = s.FindPriceDrift(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	require.Equal(t, int64(10500), drifts[0].Expected)
	require.Equal(t, int64(99999), *drifts[0].Stored)

	repaired, err := s.RecomputePrice(ctx, lot.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10500), *repaired.CurrentBid)

	drifts, err = s.FindPriceDrift(ctx)
	require.NoError(t, err)
	require.Empty(t, drifts)
}

func TestLotStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewLotStore()
	lot := newTestLot(t, s)

	got, err := s.GetLot(ctx, lot.ID)
	require.NoError(t, err)
	got.CurrentBid = price(1)

	again, err := s.GetLot(ctx, lot.ID)
	require.NoError(t, err)
	require.Nil(t, again.CurrentBid)
}
