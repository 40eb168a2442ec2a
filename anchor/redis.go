package anchor

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
)

// RedisChannel shares watch states through Redis pub/sub, msgpack encoded.
type RedisChannel struct {
	rdb *redis.Client
	key string
}

func NewRedisChannel(rdb *redis.Client, session string) *RedisChannel {
	return &RedisChannel{rdb: rdb, key: "anchor:" + session}
}

func (c *RedisChannel) Publish(ctx context.Context, s State) error {
	b, err := msgpack.Marshal(&s)
	if err != nil {
		return fmt.Errorf("encoding anchor state: %w", err)
	}
	if err := c.rdb.Publish(ctx, c.key, b).Err(); err != nil {
		return fmt.Errorf("publishing anchor state: %w", err)
	}
	return nil
}

func (c *RedisChannel) Subscribe(ctx context.Context) (<-chan State, error) {
	ps := c.rdb.Subscribe(ctx, c.key)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribing to '%s': %w", c.key, err)
	}

	out := make(chan State, 16)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var s State
				if err := msgpack.Unmarshal([]byte(msg.Payload), &s); err != nil {
					log.WithError(err).Warn("Dropping undecodable anchor state")
					continue
				}
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
