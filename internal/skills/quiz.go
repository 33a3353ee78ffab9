package skills

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bowerhall/parley/internal/skill"
)

const (
	answerVariants = "variants"
	answerInterval = "interval"
	answerText     = "text"

	stateAnswer = "answer"
)

type Quiz struct {
	Name      string     `yaml:"name"`
	Intro     string     `yaml:"intro"`
	Outro     string     `yaml:"outro"`
	Questions []Question `yaml:"questions"`
}

type Question struct {
	ID       string        `yaml:"id"`
	Question string        `yaml:"question"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	Answer   Validation    `yaml:"answer"`
}

// Validation describes accepted answers. Variants maps a canonical value to
// its accepted spellings; Interval bounds are exclusive.
type Validation struct {
	Type     string              `yaml:"type"`
	Variants map[string][]string `yaml:"variants,omitempty"`
	Interval []int               `yaml:"interval,omitempty"`
}

func (q Quiz) validate() error {
	if q.Name == "" {
		return errors.New("missing name")
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%s: no questions", q.Name)
	}

	for _, question := range q.Questions {
		if question.ID == "" || question.Question == "" {
			return fmt.Errorf("%s: question needs id and text", q.Name)
		}
		switch question.Answer.Type {
		case answerVariants:
			if len(question.Answer.Variants) == 0 {
				return fmt.Errorf("%s.%s: no variants", q.Name, question.ID)
			}
		case answerInterval:
			if len(question.Answer.Interval) != 2 {
				return fmt.Errorf("%s.%s: interval needs two bounds", q.Name, question.ID)
			}
		case answerText:
		default:
			return fmt.Errorf("%s.%s: unknown answer type %q", q.Name, question.ID, question.Answer.Type)
		}
	}

	return nil
}

// Interpret returns the canonical answer, or a message telling the user what
// was wrong.
func (v Validation) Interpret(answer string) (any, string) {
	switch v.Type {
	case answerVariants:
		for _, key := range slices.Sorted(maps.Keys(v.Variants)) {
			if slices.Contains(v.Variants[key], answer) {
				return key, ""
			}
		}
		return nil, "Incorrect variant!"
	case answerInterval:
		n, err := strconv.Atoi(strings.TrimSpace(answer))
		if err != nil {
			return nil, "Expected number"
		}
		if v.Interval[0] < n && n < v.Interval[1] {
			return n, ""
		}
		return nil, "Not in the interval!"
	default:
		return answer, ""
	}
}

// ResultsKey is the shared value a finished quiz stores its answers under.
func ResultsKey(quiz string) string {
	return "quiz." + quiz
}

type quizProgress struct {
	Index   int            `json:"index"`
	Answers map[string]any `json:"answers"`
	Nudged  bool           `json:"nudged,omitempty"`
}

// NewQuiz builds a skill that asks the questions in order, re-asking with a
// hint until each answer validates. A question with a timeout is repeated
// once when the user goes quiet, then the quiz is dropped.
func NewQuiz(q Quiz) (*skill.Definition, error) {
	if err := q.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	ask := func(t *skill.Turn, p quizProgress, prefix string) error {
		if err := t.Vars().Set("progress", p); err != nil {
			return err
		}

		question := q.Questions[p.Index]
		opts := []skill.AskOption{skill.DirectTo(stateAnswer)}
		if question.Timeout > 0 {
			opts = append(opts, skill.Within(question.Timeout))
		}

		_, err := t.Ask(prefix+question.Question, opts...)
		return err
	}

	start := func(t *skill.Turn, msg string) error {
		if q.Intro != "" {
			t.Say(q.Intro)
		}
		return ask(t, quizProgress{Answers: map[string]any{}}, "")
	}

	answer := func(t *skill.Turn, msg string) error {
		var p quizProgress
		if _, err := t.Vars().Get("progress", &p); err != nil {
			return err
		}
		question := q.Questions[p.Index]

		if t.TimedOut() {
			if p.Nudged {
				return t.Finish("Let's continue another time.")
			}
			p.Nudged = true
			return ask(t, p, "Still there? ")
		}
		p.Nudged = false

		value, problem := question.Answer.Interpret(msg)
		if problem != "" {
			if err := t.Vars().Set("progress", p); err != nil {
				return err
			}
			_, err := t.Specify(problem, skill.DirectTo(stateAnswer))
			return err
		}

		p.Answers[question.ID] = value
		p.Index++

		if p.Index < len(q.Questions) {
			return ask(t, p, "")
		}

		if err := t.Shared().Set(ResultsKey(q.Name), p.Answers); err != nil {
			return err
		}
		return t.Finish(q.Outro)
	}

	return skill.New(q.Name, start).State(stateAnswer, answer), nil
}
