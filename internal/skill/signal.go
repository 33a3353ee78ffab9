package skill

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimedOut is returned by Ask when the awaited reply was a timeout event.
var ErrTimedOut = errors.New("reply timed out")

type SignalKind int

const (
	// Suspend hands control back until the next message.
	Suspend SignalKind = iota
	// Finish ends the activation.
	Finish
)

func (k SignalKind) String() string {
	switch k {
	case Suspend:
		return "suspend"
	case Finish:
		return "finish"
	default:
		return fmt.Sprintf("SignalKind(%d)", int(k))
	}
}

// Signal is how a handler tells the runtime to suspend or stop. It travels
// up the call stack as an error value.
type Signal struct {
	Kind     SignalKind
	Relevant bool
	// Next is the state the next reply enters; empty resumes the current
	// state by replay.
	Next    string
	Timeout time.Duration
	Reason  string
}

func (s *Signal) Error() string {
	if s.Reason != "" {
		return fmt.Sprintf("skill %s: %s", s.Kind, s.Reason)
	}
	return fmt.Sprintf("skill %s", s.Kind)
}

// Error is a fatal failure inside a skill handler.
type Error struct {
	Skill string
	State string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("skill %s state %s: %v", e.Skill, e.State, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AskOption adjusts a suspension created by Ask or Specify.
type AskOption func(*askOptions)

type askOptions struct {
	next    string
	timeout time.Duration
}

// DirectTo makes the reply enter state as its input instead of replaying the
// current state.
func DirectTo(state string) AskOption {
	return func(o *askOptions) {
		o.next = state
	}
}

// Within asks the timeout broker for a wake-up after d. If it fires before
// the user replies, the pending Ask returns ErrTimedOut on resume.
func Within(d time.Duration) AskOption {
	return func(o *askOptions) {
		o.timeout = d
	}
}
