package services

import (
	"context"
	"fmt"

	"marketplace-auction/internal/domain"
	"marketplace-auction/pkg/logger"
)

// EventListener forwards published auction events to the WebSocket
// connections subscribed to the affected post.
type EventListener struct {
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewEventListener(connManager domain.ConnectionManager, log logger.Logger) *EventListener {
	return &EventListener{
		connManager: connManager,
		log:         log,
	}
}

func (el *EventListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	el.log.Info("Starting event listener")
	return subscriber.SubscribeToAuctionEvents(ctx, el.handleAuctionEvent)
}

func (el *EventListener) handleAuctionEvent(event *domain.AuctionEvent) error {
	el.log.Debug("Handling auction event", "type", event.Type, "post_token", event.PostToken)

	switch event.Type {
	case domain.EventAuctionStarted, domain.EventBidPlaced, domain.EventBidSelected:
		return el.connManager.BroadcastToPost(event.PostToken, map[string]interface{}{
			"type":      string(event.Type),
			"amount":    event.Amount,
			"timestamp": event.Timestamp,
		})
	case domain.EventAuctionRemoved:
		if err := el.connManager.BroadcastToPost(event.PostToken, map[string]interface{}{
			"type":      string(event.Type),
			"timestamp": event.Timestamp,
		}); err != nil {
			el.log.Error("Failed to broadcast auction removal", "post_token", event.PostToken, "error", err)
		}
		return el.connManager.CloseAndUnregisterConnections(event.PostToken)
	}

	return fmt.Errorf("unknown event type %q", event.Type)
}
