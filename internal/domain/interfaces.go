package domain

import (
	"context"
)

// Repository interfaces
type LotRepository interface {
	CreateLot(ctx context.Context, lot *Lot) error
	GetLot(ctx context.Context, lotID string) (*Lot, error)
}

// SettlementLedger records accepted bids and lot prices atomically.
type SettlementLedger interface {
	// Commit inserts the bid and moves the lot price to amount in one unit.
	// It fails with ErrStaleLot if the lot price is no longer the one in snapshot.
	Commit(ctx context.Context, snapshot *Lot, userID string, amount int64) (*Bid, error)
	GetBid(ctx context.Context, bidID string) (*Bid, error)
	ListBids(ctx context.Context, lotID string) ([]*Bid, error)
	// RevokeBid deletes a bid and recomputes the lot price from what is left.
	RevokeBid(ctx context.Context, bidID string) (*Bid, *Lot, error)
	FindPriceDrift(ctx context.Context) ([]*PriceDrift, error)
	RecomputePrice(ctx context.Context, lotID string) (*Lot, error)
}

// Lock interfaces
type LockManager interface {
	// Acquire never waits. A lot that is already locked yields ErrBusy.
	Acquire(ctx context.Context, lotID string) (Lease, error)
}

type Lease interface {
	Key() string
	Release(ctx context.Context) error
}

// Validation interface
type BidValidator interface {
	Validate(lot *Lot, amount int64) error
}

// Notification interfaces
//go:generate mockgen -destination=mocks/mock_notifier.go -package=mocks lot-bidding/internal/domain Notifier

type Notifier interface {
	BroadcastLotEvent(ctx context.Context, event *LotEvent) error
}

// Event interfaces
type EventSubscriber interface {
	SubscribeToLotEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *LotEvent) error

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	ID() string
	AuctionID() string
}

type ConnectionManager interface {
	RegisterConnection(auctionID string, conn WebSocketConnection) error
	UnregisterConnection(auctionID string, connID string) error
	GetConnectionsForAuction(auctionID string) []WebSocketConnection
	BroadcastToAuction(auctionID string, message interface{}) error
	CloseAndUnregisterConnections(auctionID string) error
}
