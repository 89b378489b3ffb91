package bus

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/gemeos-pipeline/internal/jobs/trigger"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

// Publisher emits follow-up triggers onto a named topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, env trigger.Envelope) error
}

type Bus interface {
	Publisher
	// Subscribe delivers every envelope published on topic to onMsg until ctx ends.
	Subscribe(ctx context.Context, topic string, onMsg func(ctx context.Context, env trigger.Envelope)) error
	Close() error
}

const (
	KindNone  = "none"
	KindRedis = "redis"
	KindNATS  = "nats"
)

// New builds the bus selected by TRIGGER_BUS.
func New(log *logger.Logger) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	kind := strings.ToLower(strings.TrimSpace(os.Getenv("TRIGGER_BUS")))
	prefix := strings.TrimSpace(os.Getenv("TRIGGER_TOPIC_PREFIX"))
	switch kind {
	case "", KindNone:
		return NewNop(log), nil
	case KindRedis:
		return NewRedisBus(log, strings.TrimSpace(os.Getenv("REDIS_ADDR")), prefix)
	case KindNATS:
		return NewNATSBus(log, strings.TrimSpace(os.Getenv("NATS_URL")), prefix)
	default:
		return nil, fmt.Errorf("unknown TRIGGER_BUS=%q (allowed: none, redis, nats)", kind)
	}
}

type nopBus struct {
	log *logger.Logger
}

// NewNop returns a bus that drops published triggers after logging them.
func NewNop(log *logger.Logger) Bus {
	return &nopBus{log: log.With("service", "NopBus")}
}

func (b *nopBus) Publish(ctx context.Context, topic string, env trigger.Envelope) error {
	msgID := ""
	if env.Message != nil {
		msgID = env.Message.MessageID
	}
	b.log.Info("Trigger bus disabled, dropping follow-up", "topic", topic, "message_id", msgID)
	return nil
}

func (b *nopBus) Subscribe(ctx context.Context, topic string, onMsg func(context.Context, trigger.Envelope)) error {
	return fmt.Errorf("trigger bus disabled: cannot subscribe to %q", topic)
}

func (b *nopBus) Close() error { return nil }
