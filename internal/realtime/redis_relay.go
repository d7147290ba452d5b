package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jarboard/backend/internal/logger"
)

// RedisRelay carries change events across server instances: the local
// listener publishes to a shared channel, every instance's forwarder feeds
// remote messages into its own in-process bus. Optional; with a single
// instance the listener publishes straight to the bus.
type RedisRelay struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewRedisRelay(addr, channel string, log *logger.Logger) (*RedisRelay, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "jarboard_changes"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisRelay{
		log:     log.With("service", "RedisRelay"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (r *RedisRelay) PublishChange(ctx context.Context, ev ChangeEvent) error {
	if r == nil || r.rdb == nil {
		return fmt.Errorf("redis relay not initialized")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, r.channel, raw).Err()
}

// StartForwarder republishes remote events into the local bus until ctx ends.
func (r *RedisRelay) StartForwarder(ctx context.Context, bus *Bus) error {
	if r == nil || r.rdb == nil {
		return fmt.Errorf("redis relay not initialized")
	}
	if bus == nil {
		return fmt.Errorf("bus required")
	}

	sub := r.rdb.Subscribe(ctx, r.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var ev ChangeEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					r.log.Warn("bad redis change payload", "error", err)
					continue
				}
				bus.Publish(ev)
			}
		}
	}()

	return nil
}

func (r *RedisRelay) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
