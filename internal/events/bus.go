// Package events carries bot lifecycle notifications over watermill's
// in-process gochannel pub/sub.
package events

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/habiliai/botruntime/errors"
)

type Type string

const (
	BotCreated   Type = "bot.created"
	BotSpawned   Type = "bot.spawned"
	BotDespawned Type = "bot.despawned"
	BotDeleted   Type = "bot.deleted"
)

const topic = "bot.lifecycle"

type Event struct {
	Type    Type      `json:"type"`
	BotID   string    `json:"botId"`
	OwnerID string    `json:"ownerId"`
	Name    string    `json:"name"`
	At      time.Time `json:"at"`
}

type Bus struct {
	pubsub *gochannel.GoChannel
	closed atomic.Bool
}

func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 100,
				Persistent:          false,
			},
			watermill.NopLogger{},
		),
	}
}

// Publish never blocks on subscribers. Events published with nobody
// listening are dropped.
func (b *Bus) Publish(e Event) error {
	if b.closed.Load() {
		return nil
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal event %s", e.Type)
	}

	return errors.WithStack(b.pubsub.Publish(topic, message.NewMessage(watermill.NewUUID(), payload)))
}

// Subscribe streams events until ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, error) {
	messages, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to subscribe to %s", topic)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range messages {
			var e Event
			if err := json.Unmarshal(msg.Payload, &e); err != nil {
				msg.Ack()
				continue
			}
			select {
			case out <- e:
				msg.Ack()
			case <-ctx.Done():
				msg.Ack()
				return
			}
		}
	}()

	return out, nil
}

func (b *Bus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return errors.WithStack(b.pubsub.Close())
}
