package events

import (
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/Santhosh121805/based.credit/ports"
)

const activityHandlerName = "last_active_updater"

// ActivityConsumer applies ActivityEvents to the user repository
type ActivityConsumer struct {
	repo   ports.UserRepository
	logger *slog.Logger
}

// NewActivityConsumer creates a consumer writing to repo
func NewActivityConsumer(repo ports.UserRepository, logger *slog.Logger) *ActivityConsumer {
	return &ActivityConsumer{repo: repo, logger: logger}
}

// Register adds the consumer to router, reading ActivityTopic from subscriber
func (c *ActivityConsumer) Register(router *message.Router, subscriber message.Subscriber) {
	router.AddNoPublisherHandler(activityHandlerName, ActivityTopic, subscriber, c.Handle)
}

// Handle processes a single activity message. Failures are logged and the
// message is acked so a broken update is never redelivered forever.
func (c *ActivityConsumer) Handle(msg *message.Message) error {
	var event ActivityEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.Warn("dropping malformed activity event",
			slog.String("message_id", msg.UUID),
			slog.Any("error", err))
		return nil
	}
	if event.UserID == "" {
		c.logger.Warn("dropping activity event without user", slog.String("message_id", msg.UUID))
		return nil
	}

	if err := c.repo.UpdateLastActive(msg.Context(), event.UserID, event.At); err != nil {
		c.logger.Error("failed to update last active",
			slog.String("user_id", event.UserID),
			slog.Any("error", err))
		return nil
	}

	return nil
}
