package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBusy          = errors.New("too many concurrent bids on lot")
	ErrLotNotFound   = errors.New("lot not found")
	ErrAuctionClosed = errors.New("auction closed for lot")
	ErrBidTooLow     = errors.New("bid amount too low")
	ErrInternal      = errors.New("internal error")
)

var (
	ErrInvalidBid  = errors.New("invalid bid")
	ErrInvalidLot  = errors.New("invalid lot")
	ErrBidNotFound = errors.New("bid not found")
	// ErrStaleLot is returned by a ledger when the lot price moved since the
	// snapshot passed to Commit was read.
	ErrStaleLot = errors.New("lot changed since snapshot")
)

// BidTooLowError carries the minimum amount the caller has to bid.
type BidTooLowError struct {
	Amount  int64
	Minimum int64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("%s: got %d, minimum is %d", ErrBidTooLow, e.Amount, e.Minimum)
}

func (e *BidTooLowError) Is(target error) bool {
	return target == ErrBidTooLow
}
