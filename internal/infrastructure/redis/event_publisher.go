package redis

import (
	"context"
	"encoding/json"

	"lot-bidding/internal/domain"

	"github.com/go-redis/redis/v8"
)

const LotEventsChannel = "lot_events"

type EventPublisherImpl struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisherImpl {
	return &EventPublisherImpl{client: client}
}

func (r *EventPublisherImpl) BroadcastLotEvent(ctx context.Context, event *domain.LotEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return r.client.Publish(ctx, LotEventsChannel, payload).Err()
}
