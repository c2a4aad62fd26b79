package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultRedisChannel is the pub/sub channel shared by all instances
const DefaultRedisChannel = "diesel-log:changes"

// DefaultPublishTimeout bounds one relay publish. Publish runs on the
// write path, so an unreachable Redis must not hold up the request.
const DefaultPublishTimeout = 2 * time.Second

// RedisRelay shares change notifications between application instances
// that write to the same store. Local changes go to the local publisher and
// to Redis; changes from other instances are replayed locally.
type RedisRelay struct {
	client  *redis.Client
	channel string
	origin  string
	local   Publisher
	logger  logrus.FieldLogger
	timeout time.Duration

	pubsub *redis.PubSub
	wg     sync.WaitGroup
	once   sync.Once
}

// NewRedisRelayFromURL builds a relay from a redis:// URL
func NewRedisRelayFromURL(url string, local Publisher, logger logrus.FieldLogger) (*RedisRelay, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return NewRedisRelay(redis.NewClient(opts), DefaultRedisChannel, local, logger), nil
}

// NewRedisRelay builds a relay over an existing client
func NewRedisRelay(client *redis.Client, channel string, local Publisher, logger logrus.FieldLogger) *RedisRelay {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisRelay{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		local:   local,
		logger:  logger,
		timeout: DefaultPublishTimeout,
	}
}

// Origin identifies this instance on the shared channel
func (r *RedisRelay) Origin() string {
	return r.origin
}

// Start subscribes to the shared channel. It returns once the
// subscription is confirmed.
func (r *RedisRelay) Start(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.pubsub = pubsub

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for msg := range pubsub.Channel() {
			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				r.logger.WithError(err).Warn("Dropping malformed relay message")
				continue
			}
			if change.Origin == r.origin {
				continue
			}
			r.local.Publish(change)
		}
	}()

	return nil
}

// Publish delivers change locally and to the other instances
func (r *RedisRelay) Publish(change Change) {
	r.local.Publish(change)

	change.Origin = r.origin
	payload, err := json.Marshal(change)
	if err != nil {
		r.logger.WithError(err).Warn("Failed to encode change for relay")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.logger.WithError(err).Warn("Failed to relay change")
	}
}

// Close stops relaying and closes the client
func (r *RedisRelay) Close() error {
	var err error
	r.once.Do(func() {
		if r.pubsub != nil {
			err = r.pubsub.Close()
		}
		r.wg.Wait()
		if cerr := r.client.Close(); err == nil {
			err = cerr
		}
	})
	return err
}
