package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bowerhall/parley/internal/logger"
	"github.com/bowerhall/parley/internal/session"
	"github.com/bowerhall/parley/internal/skill"
	"github.com/bowerhall/parley/internal/timeout"
)

func New(classifier Classifier, registry *skill.Registry, opts ...Option) (*Agent, error) {
	if classifier == nil {
		return nil, ErrNoClassifier
	}
	if registry == nil {
		return nil, ErrNoRegistry
	}

	a := &Agent{
		classifier:   classifier,
		registry:     registry,
		store:        session.NewMemoryStore(),
		locks:        session.NewLocker(),
		reweighLimit: defaultReweighLimit,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.store == nil {
		return nil, errors.New("agent: session store is nil")
	}

	return a, nil
}

// SetNotifyFunc replaces the notify callback. Channel adapters are built
// after the agent, so they register themselves here.
func (a *Agent) SetNotifyFunc(fn NotifyFunc) {
	a.notify = fn
}

func (a *Agent) Store() session.Store {
	return a.store
}

type mode int

const (
	modeTurn mode = iota
	modeAction
	modeTimeout
)

func (m mode) String() string {
	switch m {
	case modeAction:
		return "action"
	case modeTimeout:
		return "timeout"
	default:
		return "turn"
	}
}

// ProcessTurn delivers a message to the user's pending skills, or to the
// skills the classifier picks when nothing is pending, and returns the
// answers in order.
func (a *Agent) ProcessTurn(ctx context.Context, userID, text string) ([]string, error) {
	return a.process(ctx, userID, session.Message{Text: text}, "", modeTurn)
}

// ProcessAction is ProcessTurn for explicit UI actions: the message is always
// classified, and only falls through to the pending skills when the
// classifier picks nothing.
func (a *Agent) ProcessAction(ctx context.Context, userID, text string) ([]string, error) {
	return a.process(ctx, userID, session.Message{Text: text}, "", modeAction)
}

// ProcessTimeout delivers a timeout event to the pending skills. A token that
// no longer matches the session is dropped with no answers and no save.
func (a *Agent) ProcessTimeout(ctx context.Context, userID, token string) ([]string, error) {
	return a.process(ctx, userID, session.Message{TimedOut: true}, token, modeTimeout)
}

// Wake is the timeout broker callback. Answers go to the notify func.
func (a *Agent) Wake(ctx context.Context, userID, token string) {
	answers, err := a.ProcessTimeout(ctx, userID, token)
	if err != nil {
		logger.Error("timeout turn failed", "user", userID, "error", err)
		return
	}
	if len(answers) == 0 {
		return
	}

	if a.notify == nil {
		logger.Warn("timeout answers dropped, no notify func", "user", userID, "answers", len(answers))
		return
	}

	a.notify(userID, answers)
}

// Reset drops the user's pending skills and any outstanding timeout. Shared
// values are kept.
func (a *Agent) Reset(ctx context.Context, userID string) error {
	unlock := a.locks.Lock(userID)
	defer unlock()

	sess, err := a.store.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !sess.Waiting() && sess.TimeoutToken == "" {
		return nil
	}

	logger.Debug("resetting session", "user", userID, "pending", sess.SkillIDs())

	sess.Pending = nil
	sess.TimeoutToken = ""

	sess.Normalize()
	if err := a.store.Set(ctx, userID, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	if c, ok := a.broker.(timeout.Canceler); ok {
		if err := c.Cancel(ctx, userID); err != nil {
			logger.Warn("failed to cancel timeouts", "user", userID, "error", err)
		}
	}

	return nil
}

func (a *Agent) process(ctx context.Context, userID string, msg session.Message, token string, m mode) ([]string, error) {
	logger.Debug("turn received", "user", userID, "mode", m)

	unlock := a.locks.Lock(userID)
	defer unlock()

	stored, err := a.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if m == modeTimeout && !timeout.Validate(stored, token) {
		logger.Debug("stale timeout dropped", "user", userID, "token", token)
		return nil, nil
	}

	sess := stored.Clone()

	if m == modeAction || !sess.Waiting() {
		if m != modeTimeout {
			ids, err := a.classify(ctx, msg.Text, userID)
			if err != nil {
				return nil, err
			}
			if len(ids) > 0 {
				sess.Pending = freshPending(ids, msg.Text)
			}
		}
	}

	budget := a.reweighLimit
	if m == modeTimeout {
		budget = 0
	}

	answers, wait, err := a.drive(ctx, userID, sess, msg, budget)
	if err != nil {
		return nil, err
	}

	sess.TimeoutToken = ""
	if wait > 0 {
		a.scheduleTimeout(ctx, userID, sess, wait)
	}

	sess.Normalize()
	if err := a.store.Set(ctx, userID, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	if a.transcript != nil {
		text := msg.Text
		if msg.TimedOut {
			text = ""
		}
		if err := a.transcript.AddTurn(ctx, userID, text, answers); err != nil {
			logger.Warn("failed to record transcript", "user", userID, "error", err)
		}
	}

	logger.Debug("turn complete", "user", userID, "answers", len(answers), "pending", sess.SkillIDs())

	return answers, nil
}

// drive steps the pending queue until a skill suspends or the queue empties.
// It returns the turn's answers and the timeout the suspending skill asked
// for.
func (a *Agent) drive(ctx context.Context, userID string, sess *session.Session, msg session.Message, budget int) ([]string, time.Duration, error) {
	var answers []string
	initialShared := sess.Shared.Clone()

	for len(sess.Pending) > 0 {
		head := sess.Pending[0]

		sk, err := a.registry.Resolve(head.SkillID)
		if err != nil {
			return nil, 0, err
		}

		res, err := skill.Invoke(ctx, sk, head, msg, sess.Shared)
		if err != nil {
			logger.Error("skill failed", "user", userID, "skill", head.SkillID, "error", err)
			if a.alerts != nil {
				a.alerts.SkillFailed(head.SkillID, err)
			}
			return nil, 0, err
		}

		if !res.Relevant && budget > 0 && !msg.TimedOut {
			budget--

			ids, err := a.classify(ctx, msg.Text, userID)
			if err != nil {
				return nil, 0, err
			}
			if len(ids) > 0 {
				logger.Debug("reweighing", "user", userID, "from", head.SkillID, "to", ids)
				sess.Pending = freshPending(ids, msg.Text)
				sess.Shared = initialShared.Clone()
				answers = nil
				continue
			}
		}

		answers = append(answers, res.Answers...)
		sess.Shared = res.Shared

		if res.Finished {
			sess.Pending = sess.Pending[1:]
			continue
		}

		head.ResumePoint = res.ResumePoint
		head.Local = res.Local
		sess.Pending[0] = head

		return answers, res.Timeout, nil
	}

	sess.Pending = nil

	return answers, 0, nil
}

func (a *Agent) classify(ctx context.Context, text, userID string) ([]string, error) {
	ids, err := a.classifier.Classify(ctx, text, userID)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	logger.Debug("classified", "user", userID, "skills", ids)

	return ids, nil
}

func (a *Agent) scheduleTimeout(ctx context.Context, userID string, sess *session.Session, d time.Duration) {
	if a.broker == nil {
		logger.Debug("timeout requested without broker", "user", userID, "after", d)
		return
	}

	token, err := a.broker.Schedule(ctx, userID, d)
	if err != nil {
		logger.Error("failed to schedule timeout", "user", userID, "error", err)
		if a.alerts != nil {
			a.alerts.Warn("timeouts", "schedule failed", err)
		}
		return
	}

	sess.TimeoutToken = token
	logger.Debug("timeout scheduled", "user", userID, "after", d)
}

func freshPending(ids []string, text string) []session.PendingSkill {
	pending := make([]session.PendingSkill, len(ids))
	for i, id := range ids {
		pending[i] = session.NewPending(id, text)
	}
	return pending
}
