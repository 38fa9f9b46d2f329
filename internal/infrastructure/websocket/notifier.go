package websocket

import (
	"context"

	"lot-bidding/internal/domain"
)

// WebSocketNotifier delivers lot events straight to the rooms of this
// process. It suits a single instance serving both bids and sockets.
type WebSocketNotifier struct {
	connManager domain.ConnectionManager
}

func NewWebSocketNotifier(connManager domain.ConnectionManager) *WebSocketNotifier {
	return &WebSocketNotifier{connManager: connManager}
}

func (n *WebSocketNotifier) BroadcastLotEvent(ctx context.Context, event *domain.LotEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.connManager.BroadcastToAuction(event.AuctionID, event)
}
