package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/yungbote/gemeos-pipeline/internal/learning/prompts"
	"github.com/yungbote/gemeos-pipeline/internal/pkg/httpx"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
	"github.com/yungbote/gemeos-pipeline/internal/platform/openai"
)

// Model is the provider call the invoker wraps. openai.Client satisfies it.
type Model interface {
	GenerateJSONText(ctx context.Context, req openai.Request) (string, error)
}

// Observer receives one event per model attempt.
type Observer interface {
	ObserveModelAttempt(prompt, outcome string, d time.Duration)
}

// RetryConfig applies to rate-limit signals only. Every other provider
// error fails on the first attempt.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, Delay: 5 * time.Second}
}

type SleepFunc func(ctx context.Context, d time.Duration) error

// Result is a parsed response: the items under the prompt's output key.
type Result struct {
	Items    []json.RawMessage
	Attempts int
}

type Invoker struct {
	log      *logger.Logger
	model    Model
	retry    RetryConfig
	sleep    SleepFunc
	limiter  *rate.Limiter
	observer Observer
}

type Option func(*Invoker)

func WithRetry(cfg RetryConfig) Option {
	return func(iv *Invoker) {
		if cfg.MaxAttempts > 0 {
			iv.retry.MaxAttempts = cfg.MaxAttempts
		}
		if cfg.Delay >= 0 {
			iv.retry.Delay = cfg.Delay
		}
	}
}

func WithSleeper(fn SleepFunc) Option {
	return func(iv *Invoker) {
		if fn != nil {
			iv.sleep = fn
		}
	}
}

// WithRateLimit caps outbound calls; rps <= 0 disables the cap.
func WithRateLimit(rps float64) Option {
	return func(iv *Invoker) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			iv.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

func WithObserver(o Observer) Option {
	return func(iv *Invoker) { iv.observer = o }
}

func NewInvoker(log *logger.Logger, model Model, opts ...Option) *Invoker {
	iv := &Invoker{
		log:   log.With("service", "ModelInvoker"),
		model: model,
		retry: DefaultRetryConfig(),
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(iv)
	}
	return iv
}

// Invoke sends p and parses the list under p.OutputKey. Any failure comes
// back as *Error; callers degrade it to an empty result.
func (iv *Invoker) Invoke(ctx context.Context, p prompts.Prompt) (Result, error) {
	if iv == nil || iv.model == nil {
		return Result{}, &Error{Kind: KindProvider, Prompt: p.Name, Err: errors.New("model not configured")}
	}
	req := openai.Request{
		System:      p.System,
		User:        p.User,
		SchemaName:  p.SchemaName,
		Schema:      p.Schema,
		Temperature: p.Temperature,
	}
	log := iv.log.With("prompt_name", p.Name, "prompt_fingerprint", p.Fingerprint())

	var (
		raw     string
		lastErr error
		attempt int
	)
	for attempt = 1; attempt <= iv.retry.MaxAttempts; attempt++ {
		if iv.limiter != nil {
			if err := iv.limiter.Wait(ctx); err != nil {
				return Result{Attempts: attempt - 1}, &Error{Kind: KindProvider, Prompt: p.Name, Attempts: attempt - 1, Err: err}
			}
		}
		start := time.Now()
		out, err := iv.model.GenerateJSONText(ctx, req)
		switch {
		case err == nil:
			iv.observe(p.Name, "ok", start)
			raw = out
		case httpx.IsRateLimited(err):
			iv.observe(p.Name, string(KindRateLimited), start)
			lastErr = err
			log.Warn("Model rate limited", "attempt", attempt, "max_attempts", iv.retry.MaxAttempts, "error", err)
			if attempt < iv.retry.MaxAttempts {
				if serr := iv.sleep(ctx, iv.retry.Delay); serr != nil {
					return Result{Attempts: attempt}, &Error{Kind: KindRateLimited, Prompt: p.Name, Attempts: attempt, Err: serr}
				}
			}
			continue
		default:
			iv.observe(p.Name, string(KindProvider), start)
			log.Error("Model call failed", "attempt", attempt, "error", err)
			return Result{Attempts: attempt}, &Error{Kind: KindProvider, Prompt: p.Name, Attempts: attempt, Err: err}
		}
		break
	}
	if attempt > iv.retry.MaxAttempts {
		log.Error("Model retries exhausted", "attempts", iv.retry.MaxAttempts, "error", lastErr)
		return Result{Attempts: iv.retry.MaxAttempts}, &Error{
			Kind:     KindRateLimited,
			Prompt:   p.Name,
			Attempts: iv.retry.MaxAttempts,
			Err:      fmt.Errorf("retries exhausted: %w", lastErr),
		}
	}

	items, err := ParseList(raw, p.OutputKey)
	if err != nil {
		log.Error("Model response malformed", "error", err, "raw_response", raw)
		return Result{Attempts: attempt}, &Error{Kind: KindMalformed, Prompt: p.Name, Attempts: attempt, Err: err}
	}
	log.Debug("Model response parsed", "attempts", attempt, "items", len(items))
	return Result{Items: items, Attempts: attempt}, nil
}

// Generate invokes p and decodes the items into T. On any failure the list
// is nil and the error says why.
func Generate[T any](ctx context.Context, iv *Invoker, p prompts.Prompt) ([]T, error) {
	res, err := iv.Invoke(ctx, p)
	if err != nil {
		return nil, err
	}
	out, err := DecodeItems[T](res.Items)
	if err != nil {
		return nil, &Error{Kind: KindMalformed, Prompt: p.Name, Attempts: res.Attempts, Err: err}
	}
	return out, nil
}

func (iv *Invoker) observe(prompt, outcome string, start time.Time) {
	if iv.observer != nil {
		iv.observer.ObserveModelAttempt(prompt, outcome, time.Since(start))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
