// Package pipelinetest holds in-memory collaborators for stage tests.
package pipelinetest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/yungbote/gemeos-pipeline/internal/jobs/orchestrator"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/runtime"
	"github.com/yungbote/gemeos-pipeline/internal/jobs/trigger"
	"github.com/yungbote/gemeos-pipeline/internal/learning/guidance"
	"github.com/yungbote/gemeos-pipeline/internal/learning/llm"
	"github.com/yungbote/gemeos-pipeline/internal/observability"
	"github.com/yungbote/gemeos-pipeline/internal/platform/apierr"
	"github.com/yungbote/gemeos-pipeline/internal/platform/gcp"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
	"github.com/yungbote/gemeos-pipeline/internal/platform/openai"
)

// Blobs is a gcp.BlobStore over a map keyed "bucket/name".
type Blobs struct {
	mu      sync.Mutex
	objects map[string]*gcp.Object
	Reads   int
}

func NewBlobs() *Blobs {
	return &Blobs{objects: map[string]*gcp.Object{}}
}

func (b *Blobs) Put(bucket, name, contentType string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[bucket+"/"+name] = &gcp.Object{
		Bucket:      bucket,
		Name:        name,
		Data:        data,
		ContentType: contentType,
		Size:        int64(len(data)),
		Updated:     time.Now(),
	}
}

func (b *Blobs) ReadObject(_ context.Context, bucket, name string) (*gcp.Object, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Reads++
	obj, ok := b.objects[bucket+"/"+name]
	if !ok {
		return nil, fmt.Errorf("gs://%s/%s: %w", bucket, name, apierr.ErrNotFound)
	}
	cp := *obj
	return &cp, nil
}

func (b *Blobs) ListNames(_ context.Context, bucket, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, obj := range b.objects {
		if obj.Bucket == bucket && strings.HasPrefix(obj.Name, prefix) {
			out = append(out, obj.Name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (b *Blobs) Close() error { return nil }

// Reply is one scripted model answer.
type Reply struct {
	Text string
	Err  error
}

func RateLimited() Reply {
	return Reply{Err: &openai.HTTPError{StatusCode: http.StatusTooManyRequests, Body: "quota"}}
}

// JSON scripts a successful reply with v encoded.
func JSON(v any) Reply {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Reply{Text: string(raw)}
}

// Model replays scripted replies and records every request.
type Model struct {
	mu       sync.Mutex
	replies  []Reply
	Requests []openai.Request
}

func NewModel(replies ...Reply) *Model {
	return &Model{replies: replies}
}

func (m *Model) GenerateJSONText(_ context.Context, req openai.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := len(m.Requests)
	m.Requests = append(m.Requests, req)
	if i >= len(m.replies) {
		return "", errors.New("model: no scripted reply")
	}
	return m.replies[i].Text, m.replies[i].Err
}

func (m *Model) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// Published is one captured envelope.
type Published struct {
	Topic    string
	Envelope trigger.Envelope
	Trigger  trigger.Trigger
}

type Publisher struct {
	mu   sync.Mutex
	Err  error
	Sent []Published
}

func (p *Publisher) Publish(_ context.Context, topic string, env trigger.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	tr, err := env.Message.Decode()
	if err != nil {
		return err
	}
	p.Sent = append(p.Sent, Published{Topic: topic, Envelope: env, Trigger: tr})
	return nil
}

// Invoker wraps model with retries that never sleep.
func Invoker(model llm.Model) *llm.Invoker {
	return llm.NewInvoker(logger.Nop(), model, llm.WithSleeper(func(context.Context, time.Duration) error { return nil }))
}

// Guidance builds a loader over blobs using the default pipeline's locations.
func Guidance(t testing.TB, blobs *Blobs) *guidance.Loader {
	t.Helper()
	return guidance.NewLoader(logger.Nop(), blobs, guidance.DefaultBucket, Pipeline(t).GuidanceLocations())
}

func Pipeline(t testing.TB) *orchestrator.Pipeline {
	t.Helper()
	p, err := orchestrator.Default()
	if err != nil {
		t.Fatalf("load pipeline: %v", err)
	}
	return p
}

// PipelineWith returns the default pipeline with one stage edited, as an
// operator override file would. The result is re-validated.
func PipelineWith(t testing.TB, stageID string, edit func(*orchestrator.Stage)) *orchestrator.Pipeline {
	t.Helper()
	p := Pipeline(t)
	found := false
	for i := range p.Stages {
		if p.Stages[i].ID == stageID {
			edit(&p.Stages[i])
			found = true
		}
	}
	if !found {
		t.Fatalf("no stage %q in default pipeline", stageID)
	}
	raw, err := yaml.Marshal(p)
	if err != nil {
		t.Fatalf("encode pipeline: %v", err)
	}
	out, err := orchestrator.Parse(raw)
	if err != nil {
		t.Fatalf("parse edited pipeline: %v", err)
	}
	return out
}

// Dispatcher registers handlers against the default pipeline.
func Dispatcher(t testing.TB, db *gorm.DB, handlers ...runtime.Handler) *runtime.Dispatcher {
	t.Helper()
	return DispatcherFor(t, db, Pipeline(t), handlers...)
}

func DispatcherFor(t testing.TB, db *gorm.DB, p *orchestrator.Pipeline, handlers ...runtime.Handler) *runtime.Dispatcher {
	t.Helper()
	reg := runtime.NewRegistry()
	for _, h := range handlers {
		if err := reg.Register(h); err != nil {
			t.Fatalf("register %s: %v", h.Type(), err)
		}
	}
	return runtime.NewDispatcher(logger.Nop(), db, p, reg, observability.New())
}

// Dispatch sends payload to stage the way the push route would.
func Dispatch(t testing.TB, d *runtime.Dispatcher, stage string, payload map[string]any) runtime.Outcome {
	t.Helper()
	env, err := trigger.Encode("test", stage, payload, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	tr, err := env.Message.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return d.Dispatch(context.Background(), stage, tr)
}
