package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReservationsPubSub fans out "something changed for this event" signals so
// read-side consumers can drop their caches.
type ReservationsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewReservationsPubSub(rdb *redis.Client) *ReservationsPubSub {
	return &ReservationsPubSub{
		rdb:     rdb,
		channel: ChannelReservationsChanged(),
	}
}

type reservationChangedMsg struct {
	Type    string `json:"type"`
	EventID int64  `json:"event_id"`
	TsUnix  int64  `json:"ts_unix"`
}

func (p *ReservationsPubSub) PublishReservationChanged(ctx context.Context, eventID int64) error {
	if p == nil {
		return nil
	}

	msg := reservationChangedMsg{
		Type:    "reservation_changed",
		EventID: eventID,
		TsUnix:  time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *ReservationsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, eventID int64)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev reservationChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.EventID != 0 {
				handler(ctx, ev.EventID)
			}
		}
	}
}
