package skill

import (
	"context"
	"slices"

	"github.com/bowerhall/parley/internal/effects"
	"github.com/bowerhall/parley/internal/session"
)

// Turn is the capability handed to a state handler for one invocation.
type Turn struct {
	ctx   context.Context
	skill string
	state string
	input session.Message

	replies []session.Message
	cursor  int

	answers  []string
	emitted  []string
	vars     session.Values
	shared   session.Values
	recorder *effects.Recorder
}

func (t *Turn) replaying() bool {
	return t.cursor < len(t.replies)
}

// Say emits text unless it was already emitted in this state or the handler
// is still replaying earlier replies.
//
// Deduplication is by exact text for the whole state entry, so a handler that
// loops over Ask within one state says a given line once. Put lines that must
// repeat on every turn into the Ask prompt, or re-enter the state with
// DirectTo.
func (t *Turn) Say(text string) {
	if t.replaying() || slices.Contains(t.emitted, text) {
		return
	}
	t.emitted = append(t.emitted, text)
	t.answers = append(t.answers, text)
}

// Ask returns the user's reply to question. If the reply has not arrived yet
// it emits question and returns a suspension signal that the handler must
// return.
func (t *Turn) Ask(question string, opts ...AskOption) (string, error) {
	return t.await(question, true, opts)
}

// Specify is Ask for a clarifying question: the suspension is marked not
// relevant so the next message may be re-classified.
func (t *Turn) Specify(question string, opts ...AskOption) (string, error) {
	return t.await(question, false, opts)
}

func (t *Turn) await(question string, relevant bool, opts []AskOption) (string, error) {
	if t.replaying() {
		reply := t.replies[t.cursor]
		t.cursor++
		if reply.TimedOut {
			return "", ErrTimedOut
		}
		return reply.Text, nil
	}

	var o askOptions
	for _, opt := range opts {
		opt(&o)
	}

	t.answers = append(t.answers, question)

	return "", &Signal{
		Kind:     Suspend,
		Relevant: relevant,
		Next:     o.next,
		Timeout:  o.timeout,
	}
}

// Finish emits message, if any, and ends the activation.
func (t *Turn) Finish(message string) error {
	if message != "" {
		t.Say(message)
	}
	return &Signal{Kind: Finish, Relevant: true}
}

// Abort ends the activation and marks the message as not belonging to this
// skill. Nothing is emitted.
func (t *Turn) Abort(reason string) error {
	return &Signal{Kind: Finish, Relevant: false, Reason: reason}
}

func (t *Turn) Context() context.Context {
	return t.ctx
}

// Message is the input the current state was entered with.
func (t *Turn) Message() session.Message {
	return t.input
}

// TimedOut reports whether the current state was entered by a timeout event.
func (t *Turn) TimedOut() bool {
	return t.input.TimedOut
}

func (t *Turn) Skill() string {
	return t.skill
}

func (t *Turn) State() string {
	return t.state
}

// Vars are skill-local values kept for the whole activation.
func (t *Turn) Vars() session.Values {
	return t.vars
}

// Shared are the user's cross-skill values.
func (t *Turn) Shared() session.Values {
	return t.shared
}

// Effects exposes the side-effect recorder for this invocation.
func (t *Turn) Effects() *effects.Recorder {
	return t.recorder
}

// Call runs fn through the turn's side-effect recorder, so the value stays
// the same on every replay of the current state.
func Call[T any](t *Turn, name string, fn func(context.Context) (T, error)) (T, error) {
	return effects.Call(t.ctx, t.recorder, name, fn)
}
