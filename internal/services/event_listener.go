package services

import (
	"context"
	"fmt"

	"lot-bidding/internal/domain"
	"lot-bidding/pkg/logger"
)

// EventListener relays lot events from the bus into the auction rooms held
// by this instance.
type EventListener struct {
	connectionManager domain.ConnectionManager
	log               logger.Logger
}

func NewEventListener(connectionManager domain.ConnectionManager, log logger.Logger) *EventListener {
	return &EventListener{
		connectionManager: connectionManager,
		log:               log,
	}
}

func (el *EventListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	el.log.Info("Starting event listener")
	return subscriber.SubscribeToLotEvents(ctx, el.HandleLotEvent)
}

func (el *EventListener) HandleLotEvent(event *domain.LotEvent) error {
	el.log.Debug("Handling lot event", "type", event.Type, "auction_id", event.AuctionID, "lot_id", event.LotID)

	switch event.Type {
	case domain.LotBidPlaced, domain.LotBidRevoked:
		return el.connectionManager.BroadcastToAuction(event.AuctionID, event)
	}

	return fmt.Errorf("unknown event type %q", event.Type)
}
