package skill

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// StartState is the state every activation enters first.
const StartState = "start"

var (
	ErrUnknownSkill   = errors.New("unknown skill")
	ErrUnknownState   = errors.New("unknown skill state")
	ErrDuplicateSkill = errors.New("skill already registered")
	ErrInvalidSkill   = errors.New("invalid skill")
)

// Handler runs one state of a skill. Returning nil finishes the skill;
// returning a *Signal from Ask, Specify, Finish or Abort suspends or ends it.
// Any other error is a fatal skill error.
type Handler func(t *Turn, message string) error

// Skill is a named set of state handlers.
type Skill interface {
	Name() string
	Handler(state string) (Handler, bool)
}

// Definition is a Skill built from an explicit dispatch table.
type Definition struct {
	name   string
	states map[string]Handler
	order  []string
}

// New defines a skill whose start state runs start.
func New(name string, start Handler) *Definition {
	d := &Definition{name: name, states: make(map[string]Handler)}
	return d.State(StartState, start)
}

// State adds a named state. Defining a state twice panics, since it can only
// be a wiring mistake.
func (d *Definition) State(name string, h Handler) *Definition {
	if _, ok := d.states[name]; ok {
		panic(fmt.Sprintf("skill %s: state %q defined twice", d.name, name))
	}
	d.states[name] = h
	d.order = append(d.order, name)
	return d
}

func (d *Definition) Name() string {
	return d.name
}

func (d *Definition) Handler(state string) (Handler, bool) {
	h, ok := d.states[state]
	return h, ok && h != nil
}

// States lists state names in definition order.
func (d *Definition) States() []string {
	return slices.Clone(d.order)
}

// Registry resolves skill ids returned by a classifier.
type Registry struct {
	mu     sync.RWMutex
	skills map[string]Skill
}

func NewRegistry() *Registry {
	return &Registry{skills: make(map[string]Skill)}
}

func (r *Registry) Register(sk Skill) error {
	if sk == nil || sk.Name() == "" {
		return ErrInvalidSkill
	}
	if _, ok := sk.Handler(StartState); !ok {
		return fmt.Errorf("%w: %s has no %s state", ErrInvalidSkill, sk.Name(), StartState)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.skills[sk.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSkill, sk.Name())
	}
	r.skills[sk.Name()] = sk

	return nil
}

// MustRegister is Register for static wiring at startup.
func (r *Registry) MustRegister(skills ...Skill) *Registry {
	for _, sk := range skills {
		if err := r.Register(sk); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Resolve(id string) (Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sk, ok := r.skills[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSkill, id)
	}
	return sk, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.skills))
	for name := range r.skills {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
