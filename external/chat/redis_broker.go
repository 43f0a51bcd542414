package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/foxseedlab/sirius/internal/chat"
	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix     = "chat:room:"
	subscriptionQueue = 64
)

func roomChannel(roomID string) string {
	return channelPrefix + roomID
}

type RedisBroker struct {
	client redis.UniversalClient
}

func NewRedisBroker(client redis.UniversalClient) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, ev chat.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal chat event: %w", err)
	}
	if err := b.client.Publish(ctx, roomChannel(ev.RoomID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish chat event: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, roomID string) (chat.Subscription, error) {
	ps := b.client.Subscribe(ctx, roomChannel(roomID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to room %s: %w", roomID, err)
	}

	s := &redisSubscription{
		pubsub: ps,
		events: make(chan chat.Event, subscriptionQueue),
		done:   make(chan struct{}),
	}
	go s.forward(roomID)
	return s, nil
}

type redisSubscription struct {
	pubsub    *redis.PubSub
	events    chan chat.Event
	done      chan struct{}
	closeOnce sync.Once
}

func (s *redisSubscription) Events() <-chan chat.Event {
	return s.events
}

func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}

func (s *redisSubscription) forward(roomID string) {
	defer close(s.events)
	ch := s.pubsub.Channel()
	for {
		select {
		case <-s.done:
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			var ev chat.Event
			if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
				slog.Warn("dropping undecodable chat event", "room_id", roomID, "error", err)
				continue
			}
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
	}
}
