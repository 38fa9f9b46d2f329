package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lot-bidding/internal/domain"
	"lot-bidding/pkg/logger"
	"lot-bidding/pkg/utils"
)

const releaseTimeout = time.Second

type BidService struct {
	locks         domain.LockManager
	lots          domain.LotRepository
	ledger        domain.SettlementLedger
	validator     domain.BidValidator
	notifier      domain.Notifier
	notifyTimeout time.Duration
	log           logger.Logger
}

func NewBidService(
	locks domain.LockManager,
	lots domain.LotRepository,
	ledger domain.SettlementLedger,
	validator domain.BidValidator,
	notifier domain.Notifier,
	notifyTimeout time.Duration,
	log logger.Logger,
) *BidService {
	return &BidService{
		locks:         locks,
		lots:          lots,
		ledger:        ledger,
		validator:     validator,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
		log:           log,
	}
}

// PlaceBid accepts amount from userID on lotID. Validation and commit run
// under the lot lock, which is released before observers are notified.
// Failures are one of domain.ErrBusy, ErrLotNotFound, ErrAuctionClosed,
// ErrBidTooLow, ErrInvalidBid or ErrInternal.
func (s *BidService) PlaceBid(ctx context.Context, userID, lotID string, amount int64) (*domain.Bid, error) {
	if userID == "" || lotID == "" {
		return nil, fmt.Errorf("%w: missing lot or user id", domain.ErrInvalidBid)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: non-positive amount %d", domain.ErrInvalidBid, amount)
	}

	lease, err := s.locks.Acquire(ctx, lotID)
	if err != nil {
		if errors.Is(err, domain.ErrBusy) {
			s.log.Debug("Lot is busy", "lot_id", lotID, "user_id", userID)
			return nil, err
		}
		s.log.Error("Failed to acquire lot lock", "lot_id", lotID, "error", err)
		return nil, fmt.Errorf("%w: acquire lot lock: %w", domain.ErrInternal, err)
	}

	bid, lot, err := s.settle(ctx, lease, userID, lotID, amount)
	if err != nil {
		return nil, err
	}

	s.log.Info("Bid accepted", "user_id", userID, "lot_id", lotID, "amount", amount)

	s.notify(ctx, &domain.LotEvent{
		Type:         domain.LotBidPlaced,
		AuctionID:    lot.AuctionID,
		LotID:        lot.ID,
		Amount:       bid.Amount,
		MaskedUserID: utils.MaskUserID(bid.UserID),
		Timestamp:    bid.CreatedAt,
	})

	return bid, nil
}

// settle is the critical section. The lease is released on every return path.
func (s *BidService) settle(ctx context.Context, lease domain.Lease, userID, lotID string, amount int64) (*domain.Bid, *domain.Lot, error) {
	defer s.release(lease)

	lot, err := s.lots.GetLot(ctx, lotID)
	if err != nil && !errors.Is(err, domain.ErrLotNotFound) {
		s.log.Error("Failed to load lot", "lot_id", lotID, "error", err)
		return nil, nil, fmt.Errorf("%w: load lot: %w", domain.ErrInternal, err)
	}

	if err := s.validator.Validate(lot, amount); err != nil {
		s.log.Debug("Bid rejected", "lot_id", lotID, "user_id", userID, "amount", amount, "reason", err)
		return nil, nil, err
	}

	bid, err := s.ledger.Commit(ctx, lot, userID, amount)
	if err != nil {
		if errors.Is(err, domain.ErrStaleLot) {
			// Only reachable when the lock expired mid-flight and someone else settled.
			s.log.Warn("Lot price moved during settlement", "lot_id", lotID, "lock", lease.Key())
			return nil, nil, fmt.Errorf("%w: %w", domain.ErrBusy, err)
		}
		s.log.Error("Failed to commit bid", "lot_id", lotID, "user_id", userID, "error", err)
		return nil, nil, fmt.Errorf("%w: commit bid: %w", domain.ErrInternal, err)
	}

	return bid, lot, nil
}

func (s *BidService) release(lease domain.Lease) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := lease.Release(ctx); err != nil {
		// the lock ttl frees the lot eventually
		s.log.Warn("Failed to release lot lock", "lock", lease.Key(), "error", err)
	}
}

// notify is best effort: it is bounded by notifyTimeout and ignores the
// caller's cancellation so a dropped request still reaches the room.
func (s *BidService) notify(ctx context.Context, event *domain.LotEvent) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	if err := s.notifier.BroadcastLotEvent(ctx, event); err != nil {
		s.log.Warn("Failed to broadcast lot event", "type", event.Type, "lot_id", event.LotID, "error", err)
	}
}

func (s *BidService) GetLot(ctx context.Context, lotID string) (*domain.Lot, error) {
	lot, err := s.lots.GetLot(ctx, lotID)
	if err != nil {
		if errors.Is(err, domain.ErrLotNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load lot: %w", domain.ErrInternal, err)
	}
	return lot, nil
}

func (s *BidService) GetBid(ctx context.Context, bidID string) (*domain.Bid, error) {
	bid, err := s.ledger.GetBid(ctx, bidID)
	if err != nil {
		if errors.Is(err, domain.ErrBidNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load bid: %w", domain.ErrInternal, err)
	}
	return bid, nil
}

func (s *BidService) ListBids(ctx context.Context, lotID string) ([]*domain.Bid, error) {
	if _, err := s.GetLot(ctx, lotID); err != nil {
		return nil, err
	}

	bids, err := s.ledger.ListBids(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("%w: list bids: %w", domain.ErrInternal, err)
	}
	return bids, nil
}
