// Package poll implements the bounded waits used against the platform:
// a deadline-bounded probe loop (Wait) and a retry-counted listing loop (For).
//
// Neither returns a Go error for "gave up". A wait that runs out of time
// ends with a NotFound result or an incomplete Partial, and the caller
// decides whether that is a failure.
package poll

import (
	"errors"
	"fmt"
	"time"
)

// Kind tags a Result.
type Kind int

const (
	KindNotFound Kind = iota
	KindFound
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindFound:
		return "found"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the outcome of one probe: Found with a value, NotFound, or a
// fatal Error with a message. The zero value is NotFound.
type Result[T any] struct {
	kind  Kind
	value T
	msg   string
}

func Found[T any](v T) Result[T] {
	return Result[T]{kind: KindFound, value: v}
}

func NotFound[T any]() Result[T] {
	return Result[T]{kind: KindNotFound}
}

func Failed[T any](msg string) Result[T] {
	return Result[T]{kind: KindError, msg: msg}
}

func (r Result[T]) Kind() Kind { return r.kind }

func (r Result[T]) IsFound() bool { return r.kind == KindFound }

func (r Result[T]) IsNotFound() bool { return r.kind == KindNotFound }

func (r Result[T]) IsError() bool { return r.kind == KindError }

// Value returns the found value. ok is false for NotFound and Error.
func (r Result[T]) Value() (v T, ok bool) {
	return r.value, r.kind == KindFound
}

// Message returns the error message of an Error result, "" otherwise.
func (r Result[T]) Message() string {
	return r.msg
}

// Err returns the message of an Error result as an error, nil otherwise.
func (r Result[T]) Err() error {
	if r.kind != KindError {
		return nil
	}
	return errors.New(r.msg)
}

func (r Result[T]) String() string {
	switch r.kind {
	case KindFound:
		return fmt.Sprintf("found(%v)", r.value)
	case KindError:
		return fmt.Sprintf("error(%s)", r.msg)
	default:
		return "not found"
	}
}

// Budget bounds a Wait. All durations must be >= 0.
//
// MaxAttempts of 0 means attempts are bounded by TotalTimeout only.
// InitialDelay counts against TotalTimeout.
type Budget struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Interval     time.Duration
	TotalTimeout time.Duration
}

func (b Budget) Validate() error {
	if b.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must not be negative, got %d", b.MaxAttempts)
	}
	if b.InitialDelay < 0 {
		return fmt.Errorf("initial delay must not be negative, got %v", b.InitialDelay)
	}
	if b.Interval < 0 {
		return fmt.Errorf("interval must not be negative, got %v", b.Interval)
	}
	if b.TotalTimeout < 0 {
		return fmt.Errorf("total timeout must not be negative, got %v", b.TotalTimeout)
	}
	return nil
}
