package domain

import (
	"math"
	"time"
)

// Lot is a single item up for bidding. Amounts are in minor currency units.
type Lot struct {
	ID           string    `json:"id"`
	AuctionID    string    `json:"auction_id"`
	StartBid     int64     `json:"start_bid"`
	CurrentBid   *int64    `json:"current_bid"`
	MinIncrement int64     `json:"min_increment"`
	EndsAt       time.Time `json:"ends_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Floor is the price the next bid has to beat: the current bid, or the start
// bid while nobody has bid yet.
func (l *Lot) Floor() int64 {
	if l.CurrentBid != nil {
		return *l.CurrentBid
	}
	return l.StartBid
}

// MinimumBid is the lowest amount the next bid may have. It saturates at
// math.MaxInt64 instead of wrapping.
func (l *Lot) MinimumBid() int64 {
	if l.Saturated() {
		return math.MaxInt64
	}
	return l.Floor() + l.MinIncrement
}

// Saturated reports whether floor plus increment no longer fits in an int64,
// so no bid can outbid the floor.
func (l *Lot) Saturated() bool {
	return l.Floor() > math.MaxInt64-l.MinIncrement
}

func (l *Lot) ClosedAt(now time.Time) bool {
	return now.After(l.EndsAt)
}

// Bid is an accepted offer. Bids are never updated once written.
type Bid struct {
	ID        string    `json:"id"`
	LotID     string    `json:"lot_id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

type LotEventType string

const (
	LotBidPlaced  LotEventType = "bid_placed"
	LotBidRevoked LotEventType = "bid_revoked"
)

// LotEvent is what leaves the core for the auction room. UserID is always masked.
type LotEvent struct {
	Type         LotEventType `json:"type"`
	AuctionID    string       `json:"auction_id"`
	LotID        string       `json:"lot_id"`
	Amount       int64        `json:"amount"`
	MaskedUserID string       `json:"masked_user_id,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}

// PriceDrift describes a lot whose stored price disagrees with its bid history.
type PriceDrift struct {
	LotID    string
	Stored   *int64
	Expected int64
	BidCount int
}
