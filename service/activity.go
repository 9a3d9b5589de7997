package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Santhosh121805/based.credit/observability"
	"github.com/Santhosh121805/based.credit/ports"
)

const (
	defaultActivityQueueSize = 1024
	activityPublishTimeout   = 5 * time.Second
)

type activityTask struct {
	userID string
	at     time.Time
}

// ActivityTracker hands last-active updates to a background worker.
// Track never blocks; updates are dropped when the queue is full.
type ActivityTracker struct {
	publisher ports.EventPublisher
	logger    *slog.Logger

	mu     sync.RWMutex
	queue  chan activityTask
	closed bool
	done   chan struct{}
}

// NewActivityTracker creates a tracker publishing through publisher.
// A non-positive size uses the default queue size.
func NewActivityTracker(publisher ports.EventPublisher, logger *slog.Logger, size int) *ActivityTracker {
	if size <= 0 {
		size = defaultActivityQueueSize
	}
	return &ActivityTracker{
		publisher: publisher,
		logger:    logger,
		queue:     make(chan activityTask, size),
		done:      make(chan struct{}),
	}
}

// Start launches the worker goroutine
func (t *ActivityTracker) Start() {
	go t.run()
}

func (t *ActivityTracker) run() {
	defer close(t.done)
	for task := range t.queue {
		ctx, cancel := context.WithTimeout(context.Background(), activityPublishTimeout)
		err := t.publisher.PublishActivity(ctx, task.userID, task.at)
		cancel()
		if err != nil {
			t.logger.Warn("Failed to update last active timestamp",
				slog.String("user_id", task.userID),
				slog.Any("error", err))
		}
	}
}

// Track schedules a last-active update for userID
func (t *ActivityTracker) Track(userID string, at time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}

	select {
	case t.queue <- activityTask{userID: userID, at: at}:
	default:
		observability.ActivityDroppedTotal.Inc()
		t.logger.Warn("Activity queue full, dropping update", slog.String("user_id", userID))
	}
}

// Stop stops accepting updates and waits for queued ones to be published
// or for ctx to end. Stop must only be called after Start.
func (t *ActivityTracker) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.mu.Unlock()

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
