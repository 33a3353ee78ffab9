// Package skills holds the demo skills and the keyword classifier that
// routes to them.
package skills

import (
	"fmt"

	"github.com/bowerhall/parley/internal/skill"
)

type Options struct {
	Pick  PickFunc
	Probe ProbeFunc
}

// Registry registers every demo skill plus one skill per configured quiz.
func Registry(cfg *Config, opts Options) (*skill.Registry, error) {
	reg := skill.NewRegistry()

	builtin := []skill.Skill{
		NewEcho(),
		NewAge(),
		NewMeeting(cfg.Meeting.Timeout),
		NewWordChain(cfg.WordChain.Vocabulary),
		NewGuess(cfg.Guess.Max, opts.Pick),
		NewStatus(opts.Probe),
	}
	for _, sk := range builtin {
		if err := reg.Register(sk); err != nil {
			return nil, err
		}
	}

	for _, q := range cfg.Quizzes {
		quiz, err := NewQuiz(q)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(quiz); err != nil {
			return nil, fmt.Errorf("quiz %s: %w", q.Name, err)
		}
	}

	return reg, nil
}

// Classifier builds the keyword classifier for cfg and checks it against reg.
func Classifier(cfg *Config, reg *skill.Registry) (*KeywordClassifier, error) {
	c := NewKeywordClassifier(cfg.Rules, cfg.Fallback)
	if err := c.Validate(reg); err != nil {
		return nil, err
	}
	return c, nil
}
