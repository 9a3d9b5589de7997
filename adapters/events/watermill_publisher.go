package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/Santhosh121805/based.credit/ports"
)

const (
	LogoutTopic   = "gatekeeper.logout"
	ActivityTopic = "gatekeeper.activity"
)

// LogoutEvent is published when a bearer credential is revoked by logout
type LogoutEvent struct {
	Address string `json:"address"`
	TokenID string `json:"token_id"`
}

// ActivityEvent carries a last-active timestamp update for a user
type ActivityEvent struct {
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string, tokenID string) error {
	return p.publish(ctx, LogoutTopic, LogoutEvent{
		Address: address,
		TokenID: tokenID,
	})
}

// PublishActivity publishes a last-active update
func (p *WatermillPublisher) PublishActivity(ctx context.Context, userID string, at time.Time) error {
	return p.publish(ctx, ActivityTopic, ActivityEvent{
		UserID: userID,
		At:     at.UTC(),
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", topic, err)
	}

	return nil
}
