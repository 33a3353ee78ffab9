package agent

import (
	"context"
	"errors"

	"github.com/bowerhall/parley/internal/alerts"
	"github.com/bowerhall/parley/internal/session"
	"github.com/bowerhall/parley/internal/skill"
	"github.com/bowerhall/parley/internal/timeout"
)

var (
	ErrNoClassifier = errors.New("agent: classifier is required")
	ErrNoRegistry   = errors.New("agent: skill registry is required")
)

const defaultReweighLimit = 1

// Classifier picks the skills that should handle a message, in the order
// they should run. It never sees the user's pending skills and may return
// nothing.
type Classifier interface {
	Classify(ctx context.Context, message, userID string) ([]string, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, message, userID string) ([]string, error)

func (f ClassifierFunc) Classify(ctx context.Context, message, userID string) ([]string, error) {
	return f(ctx, message, userID)
}

// NotifyFunc pushes answers produced outside a user turn, such as a timeout
// wake-up, back to the user's channel.
type NotifyFunc func(userID string, answers []string)

// Transcript records completed turns. A failed write never fails the turn.
type Transcript interface {
	AddTurn(ctx context.Context, userID, message string, answers []string) error
}

type Agent struct {
	classifier   Classifier
	registry     *skill.Registry
	store        session.Store
	broker       timeout.Broker
	locks        *session.Locker
	reweighLimit int
	alerts       *alerts.Alerter
	notify       NotifyFunc
	transcript   Transcript
}

type Option func(*Agent)

// WithStore sets the session store. Defaults to an in-memory store.
func WithStore(store session.Store) Option {
	return func(a *Agent) {
		a.store = store
	}
}

// WithBroker sets the timeout broker used when a skill asks with a deadline.
// Without one, timeout requests are ignored.
func WithBroker(broker timeout.Broker) Option {
	return func(a *Agent) {
		a.broker = broker
	}
}

// WithReweighLimit caps how many times one turn may re-classify after a skill
// declares the message irrelevant.
func WithReweighLimit(n int) Option {
	return func(a *Agent) {
		if n >= 0 {
			a.reweighLimit = n
		}
	}
}

func WithAlerter(alerter *alerts.Alerter) Option {
	return func(a *Agent) {
		a.alerts = alerter
	}
}

func WithNotify(fn NotifyFunc) Option {
	return func(a *Agent) {
		a.notify = fn
	}
}

func WithTranscript(t Transcript) Option {
	return func(a *Agent) {
		a.transcript = t
	}
}
