package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"lot-bidding/internal/domain"
	"lot-bidding/pkg/utils"
)

// LotStore keeps lots and bids in maps. A single mutex makes every method
// atomic, which is what the ledger contract asks for.
type LotStore struct {
	lots  map[string]*domain.Lot
	bids  map[string]*domain.Bid
	byLot map[string][]string
	now   func() time.Time
	mutex sync.RWMutex
}

func NewLotStore() *LotStore {
	return &LotStore{
		lots:  make(map[string]*domain.Lot),
		bids:  make(map[string]*domain.Bid),
		byLot: make(map[string][]string),
		now:   time.Now,
	}
}

func (s *LotStore) CreateLot(ctx context.Context, lot *domain.Lot) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.lots[lot.ID]; exists {
		return domain.ErrInvalidLot
	}
	s.lots[lot.ID] = copyLot(lot)
	return nil
}

func (s *LotStore) GetLot(ctx context.Context, lotID string) (*domain.Lot, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	lot, exists := s.lots[lotID]
	if !exists {
		return nil, domain.ErrLotNotFound
	}
	return copyLot(lot), nil
}

func (s *LotStore) Commit(ctx context.Context, snapshot *domain.Lot, userID string, amount int64) (*domain.Bid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	lot, exists := s.lots[snapshot.ID]
	if !exists {
		return nil, domain.ErrLotNotFound
	}
	if !samePrice(lot.CurrentBid, snapshot.CurrentBid) {
		return nil, domain.ErrStaleLot
	}

	now := s.now()
	bid := &domain.Bid{
		ID:        utils.GenerateID(),
		LotID:     lot.ID,
		UserID:    userID,
		Amount:    amount,
		CreatedAt: now,
	}
	s.bids[bid.ID] = bid
	s.byLot[lot.ID] = append(s.byLot[lot.ID], bid.ID)

	price := amount
	lot.CurrentBid = &price
	lot.UpdatedAt = now

	copied := *bid
	return &copied, nil
}

func (s *LotStore) GetBid(ctx context.Context, bidID string) (*domain.Bid, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	bid, exists := s.bids[bidID]
	if !exists {
		return nil, domain.ErrBidNotFound
	}
	copied := *bid
	return &copied, nil
}

func (s *LotStore) ListBids(ctx context.Context, lotID string) ([]*domain.Bid, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	bids := make([]*domain.Bid, 0, len(s.byLot[lotID]))
	for _, id := range s.byLot[lotID] {
		copied := *s.bids[id]
		bids = append(bids, &copied)
	}
	return bids, nil
}

func (s *LotStore) RevokeBid(ctx context.Context, bidID string) (*domain.Bid, *domain.Lot, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	bid, exists := s.bids[bidID]
	if !exists {
		return nil, nil, domain.ErrBidNotFound
	}

	delete(s.bids, bidID)
	remaining := s.byLot[bid.LotID][:0]
	for _, id := range s.byLot[bid.LotID] {
		if id != bidID {
			remaining = append(remaining, id)
		}
	}
	s.byLot[bid.LotID] = remaining

	lot := s.lots[bid.LotID]
	s.recompute(lot)
	return bid, copyLot(lot), nil
}

func (s *LotStore) FindPriceDrift(ctx context.Context) ([]*domain.PriceDrift, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var drifts []*domain.PriceDrift
	for _, lot := range s.lots {
		expected, count := s.expectedPrice(lot)
		if drifted(lot.CurrentBid, expected, count) {
			drifts = append(drifts, &domain.PriceDrift{
				LotID:    lot.ID,
				Stored:   copyPrice(lot.CurrentBid),
				Expected: expected,
				BidCount: count,
			})
		}
	}
	sort.Slice(drifts, func(i, j int) bool { return drifts[i].LotID < drifts[j].LotID })
	return drifts, nil
}

func (s *LotStore) RecomputePrice(ctx context.Context, lotID string) (*domain.Lot, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	lot, exists := s.lots[lotID]
	if !exists {
		return nil, domain.ErrLotNotFound
	}
	s.recompute(lot)
	return copyLot(lot), nil
}

// SetCurrentBid overwrites a lot price without touching its bids. It exists
// to simulate out-of-band writes.
func (s *LotStore) SetCurrentBid(lotID string, price *int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if lot, exists := s.lots[lotID]; exists {
		lot.CurrentBid = copyPrice(price)
	}
}

func (s *LotStore) recompute(lot *domain.Lot) {
	expected, _ := s.expectedPrice(lot)
	lot.CurrentBid = &expected
	lot.UpdatedAt = s.now()
}

func (s *LotStore) expectedPrice(lot *domain.Lot) (int64, int) {
	ids := s.byLot[lot.ID]
	if len(ids) == 0 {
		return lot.StartBid, 0
	}
	highest := s.bids[ids[0]].Amount
	for _, id := range ids[1:] {
		if amount := s.bids[id].Amount; amount > highest {
			highest = amount
		}
	}
	return highest, len(ids)
}

func drifted(stored *int64, expected int64, count int) bool {
	if count == 0 {
		return stored != nil && *stored != expected
	}
	return stored == nil || *stored != expected
}

func samePrice(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyPrice(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyLot(lot *domain.Lot) *domain.Lot {
	copied := *lot
	copied.CurrentBid = copyPrice(lot.CurrentBid)
	return &copied
}
