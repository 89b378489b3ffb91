package llm

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindRateLimited Kind = "rate_limited"
	KindProvider    Kind = "provider"
	KindMalformed   Kind = "malformed"
)

// Error is a model-side failure. Stages treat every Kind as an empty result.
type Error struct {
	Kind     Kind
	Prompt   string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("llm %s (%s, attempts=%d): %v", e.Kind, e.Prompt, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
