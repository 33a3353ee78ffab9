package skills

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bowerhall/parley/internal/skill"
)

// Rule routes a message to skills. A rule matches when the first word equals
// Command or the message contains any of Keywords, ignoring case.
type Rule struct {
	Command  string   `yaml:"command,omitempty"`
	Keywords []string `yaml:"keywords,omitempty"`
	Skills   []string `yaml:"skills"`
}

func (r Rule) matches(message string) bool {
	lower := strings.ToLower(message)

	if r.Command != "" {
		fields := strings.Fields(lower)
		if len(fields) > 0 && fields[0] == strings.ToLower(r.Command) {
			return true
		}
	}

	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}

	return false
}

// KeywordClassifier picks skills by the first matching rule.
type KeywordClassifier struct {
	rules    []Rule
	fallback []string
}

func NewKeywordClassifier(rules []Rule, fallback []string) *KeywordClassifier {
	return &KeywordClassifier{
		rules:    slices.Clone(rules),
		fallback: slices.Clone(fallback),
	}
}

func (c *KeywordClassifier) Classify(ctx context.Context, message, userID string) ([]string, error) {
	for _, r := range c.rules {
		if r.matches(message) {
			return slices.Clone(r.Skills), nil
		}
	}
	return slices.Clone(c.fallback), nil
}

// Validate checks that every skill a rule can return is registered.
func (c *KeywordClassifier) Validate(reg *skill.Registry) error {
	check := func(id string) error {
		if _, err := reg.Resolve(id); err != nil {
			return fmt.Errorf("classifier rule: %w", err)
		}
		return nil
	}

	for _, r := range c.rules {
		if len(r.Skills) == 0 {
			return fmt.Errorf("%w: rule %q has no skills", ErrInvalidConfig, r.Command+strings.Join(r.Keywords, ","))
		}
		for _, id := range r.Skills {
			if err := check(id); err != nil {
				return err
			}
		}
	}
	for _, id := range c.fallback {
		if err := check(id); err != nil {
			return err
		}
	}

	return nil
}
