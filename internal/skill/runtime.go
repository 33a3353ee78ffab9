package skill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bowerhall/parley/internal/effects"
	"github.com/bowerhall/parley/internal/logger"
	"github.com/bowerhall/parley/internal/session"
)

// Result is the outcome of driving one skill for one turn.
type Result struct {
	Answers  []string
	Relevant bool
	Finished bool
	// ResumePoint is the state to continue from; empty when Finished.
	ResumePoint string
	Timeout     time.Duration
	Local       session.LocalState
	Shared      session.Values
}

// Invoke runs sk up to its next suspension point. The pending entry and shared
// values are not modified; the new state is returned in the Result.
//
// Fresh activations enter the start state with their initial message. A
// resumed activation either enters its resume point with msg (after DirectTo)
// or replays its current state with msg appended to the recorded replies.
func Invoke(ctx context.Context, sk Skill, p session.PendingSkill, msg session.Message, shared session.Values) (Result, error) {
	local := p.Local.Clone()
	state := p.ResumePoint

	var input session.Message
	switch {
	case state == "":
		state = StartState
		input = session.Message{Text: p.InitialMessage}
		local = session.LocalState{Vars: local.Vars}
	case local.Input == nil:
		input = msg
	default:
		input = *local.Input
		local.Replies = append(local.Replies, msg)
	}

	if local.Vars == nil {
		local.Vars = session.Values{}
	}
	if shared == nil {
		shared = session.Values{}
	}

	handler, ok := sk.Handler(state)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s.%s", ErrUnknownState, sk.Name(), state)
	}

	t := &Turn{
		ctx:      ctx,
		skill:    sk.Name(),
		state:    state,
		input:    input,
		replies:  local.Replies,
		emitted:  local.Emitted,
		vars:     local.Vars,
		shared:   shared.Clone(),
		recorder: effects.NewRecorder(local.Effects),
	}

	err := handler(t, input.Text)

	res := Result{
		Answers:  t.answers,
		Relevant: true,
		Shared:   t.shared,
	}

	var sig *Signal
	switch {
	case err == nil:
		res.Finished = true
	case errors.As(err, &sig):
		switch sig.Kind {
		case Finish:
			res.Finished = true
			res.Relevant = sig.Relevant
			if !sig.Relevant {
				logger.Debug("skill aborted", "skill", sk.Name(), "state", state, "reason", sig.Reason)
			}
		case Suspend:
			res.Relevant = sig.Relevant
			res.Timeout = sig.Timeout
			if sig.Next != "" {
				if _, ok := sk.Handler(sig.Next); !ok {
					return Result{}, fmt.Errorf("%w: %s.%s", ErrUnknownState, sk.Name(), sig.Next)
				}
				res.ResumePoint = sig.Next
				res.Local = session.LocalState{Vars: t.vars}
			} else {
				res.ResumePoint = state
				res.Local = session.LocalState{
					Input:   &input,
					Replies: t.replies,
					Emitted: t.emitted,
					Vars:    t.vars,
					Effects: t.recorder.Log(),
				}
			}
		default:
			return Result{}, &Error{Skill: sk.Name(), State: state, Err: err}
		}
	default:
		return Result{}, &Error{Skill: sk.Name(), State: state, Err: err}
	}

	logger.Debug("skill invoked",
		"skill", sk.Name(),
		"state", state,
		"answers", len(res.Answers),
		"finished", res.Finished,
		"relevant", res.Relevant,
		"resume", res.ResumePoint,
		"recorded", t.recorder.Executed(),
	)

	return res, nil
}
