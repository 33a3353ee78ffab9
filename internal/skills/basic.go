package skills

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bowerhall/parley/internal/skill"
)

// Shared value keys written by the demo skills.
const (
	KeyName = "name"
	KeyAge  = "age"
)

// NewEcho repeats the activating message.
func NewEcho() *skill.Definition {
	return skill.New("echo", func(t *skill.Turn, msg string) error {
		t.Say(msg)
		return nil
	})
}

// NewAge asks for the user's age until it gets a number and remembers it.
func NewAge() *skill.Definition {
	return skill.New("age", func(t *skill.Turn, msg string) error {
		question := "How old are you?"
		if name := t.Shared().String(KeyName); name != "" {
			question = name + ", how old are you?"
		}

		answer, err := t.Ask(question)
		if err != nil {
			return err
		}

		for {
			age, convErr := strconv.Atoi(strings.TrimSpace(answer))
			if convErr == nil && age >= 0 {
				if err := t.Shared().Set(KeyAge, age); err != nil {
					return err
				}
				return t.Finish(fmt.Sprintf("You are %d years old", age))
			}

			answer, err = t.Specify("Send a number pls")
			if err != nil {
				return err
			}
		}
	})
}

// NewMeeting asks for the user's name, repeating the question once if no
// answer arrives within timeout. Zero disables the timeout.
func NewMeeting(timeout time.Duration) *skill.Definition {
	return skill.New("meeting", func(t *skill.Turn, msg string) error {
		if name := t.Shared().String(KeyName); name != "" {
			return t.Finish(fmt.Sprintf("Nice to see you again, %s!", name))
		}

		var opts []skill.AskOption
		if timeout > 0 {
			opts = append(opts, skill.Within(timeout))
		}

		name, err := t.Ask("What is your name?", opts...)
		if errors.Is(err, skill.ErrTimedOut) {
			name, err = t.Ask("I repeat the question: what is your name?")
		}
		if err != nil {
			return err
		}

		name = strings.TrimSpace(name)
		if err := t.Shared().Set(KeyName, name); err != nil {
			return err
		}

		return t.Finish(fmt.Sprintf("Nice to meet you %s!", name))
	})
}
