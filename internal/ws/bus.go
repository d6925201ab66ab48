package ws

import (
	"context"
	"encoding/json"

	"log/slog"

	"github.com/redis/go-redis/v9"

	"teamchat/internal/app"
)

// BusFrame carries one already-encoded wire frame between hub instances.
// Origin is the publishing hub's ID so an instance can skip its own frames;
// its local members were already served directly.
type BusFrame struct {
	ChannelID string `json:"channelId"`
	Origin    string `json:"origin"`
	Payload   []byte `json:"payload"`
}

type RedisBus struct {
	rdb *redis.Client
	log *slog.Logger
}

// NewRedisBus connects to redis and verifies connectivity
func NewRedisBus(ctx context.Context, cfg app.Config, log *slog.Logger) (*RedisBus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisBus{rdb: rdb, log: log}, nil
}

// Publish sends a frame to the redis channel for a chat channel
func (b *RedisBus) Publish(ctx context.Context, f BusFrame) error {
	raw, _ := json.Marshal(f)
	return b.rdb.Publish(ctx, busChannel(f.ChannelID), raw).Err()
}

// Subscribe listens to all chat channels and invokes fn for each frame
func (b *RedisBus) Subscribe(ctx context.Context, fn func(BusFrame)) {
	pubsub := b.rdb.PSubscribe(ctx, busChannel("*"))
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
			return
		case msg := <-ch:
			var f BusFrame
			_ = json.Unmarshal([]byte(msg.Payload), &f)
			if f.ChannelID != "" {
				fn(f)
			}
		}
	}
}

// Close shuts down the redis connection
func (b *RedisBus) Close() { _ = b.rdb.Close() }

// channel namespacing for chat pub/sub
func busChannel(channelID string) string { return "chat:" + channelID }
