// Package redisstore shares portal keys across instances through Redis.
// Writes publish the changed key on a pub/sub channel; every store listening
// on that channel fires its local subscribers.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/goliatone/go-portal/components/portal"
	"github.com/goliatone/go-portal/pkg/kvstore"
)

// DefaultChannel is the pub/sub channel carrying changed keys.
const DefaultChannel = "portal:kv:changed"

// Config configures the store.
type Config struct {
	Client  redis.UniversalClient
	Channel string
	Logger  *zap.Logger
}

// Store is a Redis-backed portal.KVStore.
type Store struct {
	client  redis.UniversalClient
	channel string
	logger  *zap.Logger
	subs    kvstore.Subscribers

	pubsub    *redis.PubSub
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

var _ portal.KVStore = (*Store)(nil)

// Open subscribes to the change channel and starts dispatching messages.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, errors.New("redisstore: client is required")
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	pubsub := cfg.Client.Subscribe(ctx, cfg.Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("redisstore: subscribe %s: %w", cfg.Channel, err)
	}
	listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Store{
		client:  cfg.Client,
		channel: cfg.Channel,
		logger:  cfg.Logger,
		pubsub:  pubsub,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.listen(listenCtx)
	return s, nil
}

// Get returns the stored value.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redisstore: get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value and publishes the key when it changed.
func (s *Store) Set(ctx context.Context, key, value string) error {
	prev, err := s.client.SetArgs(ctx, key, value, redis.SetArgs{Get: true}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redisstore: set %s: %w", key, err)
	}
	if err == nil && prev == value {
		return nil
	}
	return s.publish(ctx, key)
}

// Delete removes key and publishes it when it existed.
func (s *Store) Delete(ctx context.Context, key string) error {
	removed, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redisstore: delete %s: %w", key, err)
	}
	if removed == 0 {
		return nil
	}
	return s.publish(ctx, key)
}

// Subscribe registers fn for changes to key from any instance.
func (s *Store) Subscribe(key string, fn func()) func() {
	return s.subs.Add(key, fn)
}

// Close stops the listener. The Redis client stays open; it belongs to the
// caller.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		err = s.pubsub.Close()
		<-s.done
	})
	return err
}

func (s *Store) publish(ctx context.Context, key string) error {
	if err := s.client.Publish(ctx, s.channel, key).Err(); err != nil {
		return fmt.Errorf("redisstore: publish %s: %w", key, err)
	}
	return nil
}

func (s *Store) listen(ctx context.Context) {
	defer close(s.done)
	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.logger.Debug("redisstore key changed", zap.String("key", msg.Payload))
			s.subs.Notify(msg.Payload)
		}
	}
}
