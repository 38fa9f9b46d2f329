package services

import (
	"math"
	"time"

	"lot-bidding/internal/domain"
)

// LotBidValidator checks a candidate amount against a lot snapshot. It has no
// side effects, the snapshot must be loaded after the lot lock is held.
type LotBidValidator struct {
	now func() time.Time
}

func NewLotBidValidator(now func() time.Time) *LotBidValidator {
	if now == nil {
		now = time.Now
	}
	return &LotBidValidator{now: now}
}

func (v *LotBidValidator) Validate(lot *domain.Lot, amount int64) error {
	if lot == nil {
		return domain.ErrLotNotFound
	}

	if lot.ClosedAt(v.now()) {
		return domain.ErrAuctionClosed
	}

	if lot.Saturated() {
		return &domain.BidTooLowError{Amount: amount, Minimum: math.MaxInt64}
	}

	if minimum := lot.MinimumBid(); amount < minimum {
		return &domain.BidTooLowError{Amount: amount, Minimum: minimum}
	}

	return nil
}
