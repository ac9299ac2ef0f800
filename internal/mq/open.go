package mq

import (
	"context"
	"fmt"

	"github.com/jjudge-oj/workbench/config"
)

// Open connects the backend selected by cfg.MQBackend. It returns nil, nil
// when no broker is configured.
func Open(ctx context.Context, cfg config.Config) (*MQ, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.MQBackend {
	case "", "none":
		return nil, nil
	case "rabbitmq":
		backend, err = NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		backend, err = NewPubSubClient(ctx, cfg.PubSub)
	case "redis":
		backend, err = NewRedisClient(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.MQBackend, err)
	}
	return New(backend), nil
}
