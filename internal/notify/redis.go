package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	defaultChannel   = "showlink:changes"
	redisPingTimeout = 2 * time.Second
)

type message struct {
	Origin string   `json:"origin"`
	Tables []string `json:"tables"`
}

// RedisHub notifies local subscribers directly and publishes every
// notification to a Redis channel. Run relays notifications published by
// other processes into the local hub.
type RedisHub struct {
	local   *Hub
	client  *redis.Client
	channel string
	origin  string
}

// NewRedisClient connects to Redis and pings it once.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", addr, err)
	}
	return client, nil
}

func NewRedisHub(client *redis.Client, local *Hub) *RedisHub {
	return &RedisHub{
		local:   local,
		client:  client,
		channel: defaultChannel,
		origin:  uuid.NewString(),
	}
}

func (r *RedisHub) Notify(ctx context.Context, tables ...string) {
	if len(tables) == 0 {
		return
	}
	r.local.Notify(ctx, tables...)

	payload, err := encodeMessage(r.origin, tables)
	if err != nil {
		log.WithField("error", err).Error("failed to encode change notification")
		return
	}
	if err := r.client.Publish(context.WithoutCancel(ctx), r.channel, payload).Err(); err != nil {
		log.WithFields(log.Fields{
			"component": "notify",
			"tables":    tables,
			"error":     err,
		}).Warn("failed to publish change notification to redis")
	}
}

func (r *RedisHub) Subscribe(tables ...string) (<-chan struct{}, func()) {
	return r.local.Subscribe(tables...)
}

// Run blocks relaying remote notifications until ctx is done.
func (r *RedisHub) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", r.channel, err)
	}

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			r.relay(ctx, msg.Payload)
		}
	}
}

func (r *RedisHub) relay(ctx context.Context, payload string) {
	decoded, err := decodeMessage(payload)
	if err != nil {
		log.WithFields(log.Fields{
			"component": "notify",
			"error":     err,
		}).Warn("dropping malformed change notification")
		return
	}
	if decoded.Origin == r.origin {
		return
	}
	r.local.Notify(ctx, decoded.Tables...)
}

func (r *RedisHub) Close() error {
	return r.client.Close()
}

func encodeMessage(origin string, tables []string) (string, error) {
	data, err := json.Marshal(message{Origin: origin, Tables: tables})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeMessage(payload string) (message, error) {
	var msg message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return message{}, fmt.Errorf("decoding notification: %w", err)
	}
	if msg.Origin == "" {
		return message{}, fmt.Errorf("decoding notification: missing origin")
	}
	return msg, nil
}
