package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Santhosh121805/based.credit/adapters/repository"
	"github.com/Santhosh121805/based.credit/core"
	"github.com/Santhosh121805/based.credit/logging"
)

func newPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
}

func TestPublishLogout(t *testing.T) {
	ps := newPubSub()
	defer ps.Close()

	msgs, err := ps.Subscribe(context.Background(), LogoutTopic)
	require.NoError(t, err)

	pub := NewWatermillPublisher(ps)
	require.NoError(t, pub.PublishLogout(context.Background(), "0xabc", "token-id"))

	select {
	case msg := <-msgs:
		var event LogoutEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, LogoutEvent{Address: "0xabc", TokenID: "token-id"}, event)
		assert.NotEmpty(t, msg.UUID)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("logout event not delivered")
	}
}

func TestActivityConsumer_UpdatesRepository(t *testing.T) {
	ps := newPubSub()
	repo := repository.NewMemoryUserRepository(core.Identity{ID: "u1", Status: core.StatusActive})

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NopLogger{})
	require.NoError(t, err)
	NewActivityConsumer(repo, logging.Discard()).Register(router, ps)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = router.Run(ctx) }()
	<-router.Running()
	defer router.Close()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, NewWatermillPublisher(ps).PublishActivity(ctx, "u1", at))

	assert.Eventually(t, func() bool {
		user, err := repo.FindUserByID(ctx, "u1")
		return err == nil && user.LastActiveAt.Equal(at)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestActivityConsumer_FailuresAreAcked(t *testing.T) {
	consumer := NewActivityConsumer(repository.NewMemoryUserRepository(), logging.Discard())

	assert.NoError(t, consumer.Handle(message.NewMessage("1", []byte("{not json"))))
	assert.NoError(t, consumer.Handle(message.NewMessage("2", []byte(`{"user_id":""}`))))
	assert.NoError(t, consumer.Handle(message.NewMessage("3", []byte(`{"user_id":"ghost","at":"2025-06-01T12:00:00Z"}`))))
}
