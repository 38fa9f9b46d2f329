package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"lot-bidding/internal/domain"
	"lot-bidding/pkg/logger"
	"lot-bidding/pkg/utils"
)

type CreateLotInput struct {
	ID           string
	AuctionID    string
	StartBid     int64
	MinIncrement int64
	EndsAt       time.Time
}

// LotAdminService carries the administrative overrides: lot creation and bid
// revocation. Revocation takes the lot lock so it never interleaves with a
// settlement in flight.
type LotAdminService struct {
	locks    domain.LockManager
	lots     domain.LotRepository
	ledger   domain.SettlementLedger
	notifier domain.Notifier
	now      func() time.Time
	log      logger.Logger
}

func NewLotAdminService(
	locks domain.LockManager,
	lots domain.LotRepository,
	ledger domain.SettlementLedger,
	notifier domain.Notifier,
	log logger.Logger,
) *LotAdminService {
	return &LotAdminService{
		locks:    locks,
		lots:     lots,
		ledger:   ledger,
		notifier: notifier,
		now:      time.Now,
		log:      log,
	}
}

func (s *LotAdminService) CreateLot(ctx context.Context, input CreateLotInput) (*domain.Lot, error) {
	now := s.now().UTC()

	switch {
	case input.AuctionID == "":
		return nil, fmt.Errorf("%w: missing auction id", domain.ErrInvalidLot)
	case input.StartBid <= 0:
		return nil, fmt.Errorf("%w: start bid must be positive", domain.ErrInvalidLot)
	case input.MinIncrement <= 0:
		return nil, fmt.Errorf("%w: min increment must be positive", domain.ErrInvalidLot)
	case input.StartBid > math.MaxInt64-input.MinIncrement:
		return nil, fmt.Errorf("%w: start bid plus increment overflows", domain.ErrInvalidLot)
	case !input.EndsAt.After(now):
		return nil, fmt.Errorf("%w: end time must be in the future", domain.ErrInvalidLot)
	}

	lot := &domain.Lot{
		ID:           input.ID,
		AuctionID:    input.AuctionID,
		StartBid:     input.StartBid,
		MinIncrement: input.MinIncrement,
		EndsAt:       input.EndsAt.UTC(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if lot.ID == "" {
		lot.ID = utils.GenerateID()
	}

	if err := s.lots.CreateLot(ctx, lot); err != nil {
		if errors.Is(err, domain.ErrInvalidLot) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: create lot: %w", domain.ErrInternal, err)
	}

	s.log.Info("Lot created", "lot_id", lot.ID, "auction_id", lot.AuctionID, "start_bid", lot.StartBid)
	return lot, nil
}

// RevokeBid deletes a bid and recomputes its lot's price from the remaining
// bids, falling back to the start bid.
func (s *LotAdminService) RevokeBid(ctx context.Context, bidID string) (*domain.Lot, error) {
	bid, err := s.ledger.GetBid(ctx, bidID)
	if err != nil {
		if errors.Is(err, domain.ErrBidNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load bid: %w", domain.ErrInternal, err)
	}

	lease, err := s.locks.Acquire(ctx, bid.LotID)
	if err != nil {
		if errors.Is(err, domain.ErrBusy) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: acquire lot lock: %w", domain.ErrInternal, err)
	}

	revoked, lot, err := s.revoke(ctx, lease, bidID)
	if err != nil {
		return nil, err
	}

	s.log.Info("Bid revoked", "bid_id", bidID, "lot_id", lot.ID, "user_id", revoked.UserID,
		"amount", revoked.Amount, "current_bid", lot.Floor())

	if s.notifier != nil {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()

		err := s.notifier.BroadcastLotEvent(notifyCtx, &domain.LotEvent{
			Type:         domain.LotBidRevoked,
			AuctionID:    lot.AuctionID,
			LotID:        lot.ID,
			Amount:       lot.Floor(),
			MaskedUserID: utils.MaskUserID(revoked.UserID),
			Timestamp:    s.now().UTC(),
		})
		if err != nil {
			s.log.Warn("Failed to broadcast lot event", "type", domain.LotBidRevoked, "lot_id", lot.ID, "error", err)
		}
	}

	return lot, nil
}

func (s *LotAdminService) revoke(ctx context.Context, lease domain.Lease, bidID string) (*domain.Bid, *domain.Lot, error) {
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := lease.Release(releaseCtx); err != nil {
			s.log.Warn("Failed to release lot lock", "lock", lease.Key(), "error", err)
		}
	}()

	revoked, lot, err := s.ledger.RevokeBid(ctx, bidID)
	if err != nil {
		if errors.Is(err, domain.ErrBidNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: revoke bid: %w", domain.ErrInternal, err)
	}
	return revoked, lot, nil
}
