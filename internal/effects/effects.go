package effects

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Log holds recorded results per call name, in call order.
type Log map[string][]json.RawMessage

func (l Log) Clone() Log {
	if l == nil {
		return nil
	}

	out := make(Log, len(l))
	for name, results := range l {
		copied := make([]json.RawMessage, len(results))
		for i, r := range results {
			copied[i] = slices.Clone(r)
		}
		out[name] = copied
	}

	return out
}

// Len returns the number of recorded results for name.
func (l Log) Len(name string) int {
	return len(l[name])
}

// Recorder replays a Log for one skill invocation. The Nth call to a name
// returns the Nth recorded result; later calls run and extend the log.
//
// Matching is by name and position only. Skills must perform recorded calls in
// an order that does not depend on the messages being replayed, otherwise the
// log desynchronises.
type Recorder struct {
	log      Log
	cursor   map[string]int
	executed int
}

func NewRecorder(log Log) *Recorder {
	if log == nil {
		log = Log{}
	}

	return &Recorder{
		log:    log,
		cursor: make(map[string]int),
	}
}

// Do returns the recorded result for the next call to name, or runs fn and
// records what it returns. A failing fn records nothing.
func (r *Recorder) Do(name string, fn func() (json.RawMessage, error)) (json.RawMessage, error) {
	n := r.cursor[name]
	r.cursor[name] = n + 1

	if recorded := r.log[name]; n < len(recorded) {
		return recorded[n], nil
	}

	raw, err := fn()
	if err != nil {
		r.cursor[name] = n
		return nil, err
	}

	r.log[name] = append(r.log[name], raw)
	r.executed++

	return raw, nil
}

// Calls reports how many times name was called during this invocation.
func (r *Recorder) Calls(name string) int {
	return r.cursor[name]
}

// Executed reports how many calls actually ran instead of replaying.
func (r *Recorder) Executed() int {
	return r.executed
}

// Log returns the log including results recorded during this invocation.
func (r *Recorder) Log() Log {
	return r.log
}

// Names lists the recorded call names in sorted order.
func (r *Recorder) Names() []string {
	return slices.Sorted(maps.Keys(r.log))
}

// Call runs fn through the recorder under name. On replay the recorded value
// is decoded into T and fn is not invoked.
func Call[T any](ctx context.Context, r *Recorder, name string, fn func(context.Context) (T, error)) (T, error) {
	var out T

	raw, err := r.Do(name, func() (json.RawMessage, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode recorded %s: %w", name, err)
	}

	return out, nil
}
