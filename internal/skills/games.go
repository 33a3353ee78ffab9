package skills

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/bowerhall/parley/internal/skill"
)

const stateUserMove = "user_move"

// NewWordChain plays the word chain game: each word must start with the last
// letter of the previous one and come from the vocabulary, with no repeats.
func NewWordChain(vocabulary []string) *skill.Definition {
	vocab := make([]string, 0, len(vocabulary))
	for _, w := range vocabulary {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			vocab = append(vocab, w)
		}
	}

	myMove := func(t *skill.Turn, used []string) error {
		var word string
		for _, w := range vocab {
			if slices.Contains(used, w) {
				continue
			}
			if len(used) > 0 && !chains(used[len(used)-1], w) {
				continue
			}
			word = w
			break
		}

		if word == "" {
			return t.Finish("You are win!")
		}

		if err := t.Vars().Set("used", append(used, word)); err != nil {
			return err
		}

		_, err := t.Ask("My word: "+word, skill.DirectTo(stateUserMove))
		return err
	}

	start := func(t *skill.Turn, msg string) error {
		t.Say("Ok")
		return myMove(t, nil)
	}

	userMove := func(t *skill.Turn, msg string) error {
		var used []string
		if _, err := t.Vars().Get("used", &used); err != nil {
			return err
		}

		word := strings.ToLower(strings.TrimSpace(msg))
		valid := slices.Contains(vocab, word) && !slices.Contains(used, word) &&
			len(used) > 0 && chains(used[len(used)-1], word)
		if !valid {
			return t.Finish("You are lose!")
		}

		return myMove(t, append(used, word))
	}

	return skill.New("wordchain", start).State(stateUserMove, userMove)
}

func chains(prev, next string) bool {
	return prev != "" && next != "" && prev[len(prev)-1] == next[0]
}

// PickFunc returns a number in [1, limit].
type PickFunc func(ctx context.Context, limit int) (int, error)

func randomPick(ctx context.Context, limit int) (int, error) {
	return rand.IntN(limit) + 1, nil
}

// NewGuess plays a number guessing game. The secret number is drawn through
// the turn's recorder, so it stays fixed while the whole game is replayed on
// every reply. A nil pick uses math/rand.
func NewGuess(limit int, pick PickFunc) *skill.Definition {
	if pick == nil {
		pick = randomPick
	}

	return skill.New("guess", func(t *skill.Turn, msg string) error {
		secret, err := skill.Call(t, "secret", func(ctx context.Context) (int, error) {
			return pick(ctx, limit)
		})
		if err != nil {
			return err
		}

		prompt := fmt.Sprintf("I picked a number between 1 and %d. Your guess?", limit)
		ask := t.Ask
		attempts := 0
		for {
			answer, err := ask(prompt)
			if err != nil {
				return err
			}

			n, convErr := strconv.Atoi(strings.TrimSpace(answer))
			if convErr != nil {
				// maybe the message was meant for another skill
				prompt, ask = "That is not a number. Your guess?", t.Specify
				continue
			}
			ask = t.Ask
			attempts++

			switch {
			case n < secret:
				prompt = "Higher"
			case n > secret:
				prompt = "Lower"
			default:
				return t.Finish(fmt.Sprintf("Correct! You needed %d attempts.", attempts))
			}
		}
	})
}
