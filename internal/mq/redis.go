package mq

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jjudge-oj/workbench/config"
	"github.com/redis/go-redis/v9"
)

// RedisClient publishes over Redis pub/sub. Redis channels carry a single
// payload, so the message id and attributes travel in a JSON envelope.
type RedisClient struct {
	client *redis.Client
}

type redisEnvelope struct {
	ID         string            `json:"id"`
	Data       []byte            `json:"data"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// NewRedisClient constructs a Redis client from config and checks the
// connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisClient{client: client}, nil
}

// Publish sends a message to the named channel.
func (r *RedisClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("redis channel is required")
	}

	messageID := newMessageID()
	payload, err := encodeRedisMessage(Message{ID: messageID, Data: data, Attributes: attrs})
	if err != nil {
		return "", err
	}
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return "", err
	}
	return messageID, nil
}

// Subscribe consumes messages from the named channel. Redis pub/sub has no
// redelivery, so handler errors only drop the message.
func (r *RedisClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("redis channel is required")
	}

	pubsub := r.client.Subscribe(ctx, channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	deliveries := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return ErrClosed
			}
			message, err := decodeRedisMessage(delivery.Payload)
			if err != nil {
				continue
			}
			_ = handler(ctx, message)
		}
	}
}

// Close closes the underlying client.
func (r *RedisClient) Close() error {
	return r.client.Close()
}

func encodeRedisMessage(msg Message) (string, error) {
	payload, err := json.Marshal(redisEnvelope{
		ID:         msg.ID,
		Data:       msg.Data,
		Attributes: msg.Attributes,
	})
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func decodeRedisMessage(payload string) (Message, error) {
	var env redisEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return Message{}, err
	}
	return Message{ID: env.ID, Data: env.Data, Attributes: env.Attributes}, nil
}
