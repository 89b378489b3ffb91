package bus

import (
	"context"
	"testing"

	"github.com/yungbote/gemeos-pipeline/internal/jobs/trigger"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

func TestNewDefaultsToNop(t *testing.T) {
	t.Setenv("TRIGGER_BUS", "")
	b, err := New(logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := b.(*nopBus); !ok {
		t.Fatalf("bus: want *nopBus got %T", b)
	}
	env, _ := trigger.Encode("t", "s", map[string]any{"a": 1}, nil)
	if err := b.Publish(context.Background(), "t", env); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := b.Subscribe(context.Background(), "t", func(context.Context, trigger.Envelope) {}); err == nil {
		t.Fatalf("Subscribe on nop bus: expected error")
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	t.Setenv("TRIGGER_BUS", "kafka")
	if _, err := New(logger.Nop()); err == nil {
		t.Fatalf("expected error for unknown bus kind")
	}
}

func TestNewRedisRequiresAddr(t *testing.T) {
	t.Setenv("TRIGGER_BUS", "redis")
	t.Setenv("REDIS_ADDR", "")
	if _, err := New(logger.Nop()); err == nil {
		t.Fatalf("expected error without REDIS_ADDR")
	}
}
