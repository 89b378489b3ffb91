package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yungbote/gemeos-pipeline/internal/jobs/trigger"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

type natsBus struct {
	log    *logger.Logger
	conn   *nats.Conn
	prefix string
}

func NewNATSBus(log *logger.Logger, url, prefix string) (Bus, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	serviceLog := log.With("service", "NATSTriggerBus")
	conn, err := nats.Connect(url,
		nats.Name("gemeos-pipeline"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				serviceLog.Warn("NATS disconnected", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return &natsBus{log: serviceLog, conn: conn, prefix: prefix}, nil
}

func (b *natsBus) subject(topic string) string { return b.prefix + topic }

func (b *natsBus) Publish(ctx context.Context, topic string, env trigger.Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := b.conn.Publish(b.subject(topic), raw); err != nil {
		return fmt.Errorf("nats publish %s: %w", b.subject(topic), err)
	}
	return b.conn.FlushWithContext(ctx)
}

func (b *natsBus) Subscribe(ctx context.Context, topic string, onMsg func(context.Context, trigger.Envelope)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	sub, err := b.conn.Subscribe(b.subject(topic), func(m *nats.Msg) {
		var env trigger.Envelope
		if err := json.Unmarshal(m.Data, &env); err != nil {
			b.log.Warn("Bad trigger payload on nats subject", "subject", m.Subject, "error", err)
			return
		}
		onMsg(ctx, env)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", b.subject(topic), err)
	}
	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return nil
}

func (b *natsBus) Close() error {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.Drain()
}
