package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ivlev/promoreel/internal/counter"
	"github.com/ivlev/promoreel/internal/particles"
	"github.com/ivlev/promoreel/internal/stagger"
)

var (
	ErrInvalidScene = errors.New("invalid scene")
	errNilSignal    = errors.New("no signal")
)

// Param is a named numeric value of the scene.
type Param struct {
	Name   string
	Signal Signal
}

// NamedGroup is a staggered reveal. When Text is set the element count is
// the number of units of Text under Split and Group.Count is ignored.
type NamedGroup struct {
	Name  string
	Text  string
	Split stagger.Split
	Group stagger.Group
}

func (n NamedGroup) resolved() stagger.Group {
	g := n.Group
	if n.Text != "" {
		g.Count = stagger.Units(n.Text, n.Split)
	}
	return g
}

type NamedCounter struct {
	Name    string
	Counter counter.Counter
}

// Scene is the declarative description of one scene. Everything in it is
// evaluated against the scene-local frame.
type Scene struct {
	ID        string
	Params    []Param
	Groups    []NamedGroup
	Counters  []NamedCounter
	Particles *particles.Field
}

// Bag is everything a compositor needs to draw the scene at one frame.
type Bag struct {
	Values    map[string]float64           `json:"values"`
	Text      map[string]string            `json:"text,omitempty"`
	Elements  map[string][]stagger.Element `json:"elements,omitempty"`
	Particles []particles.State            `json:"particles,omitempty"`
}

// Evaluate computes the parameter bag at a scene-local frame. Counters
// contribute both their numeric value and their formatted text.
func (s *Scene) Evaluate(localFrame int) Bag {
	f := float64(localFrame)
	bag := Bag{Values: make(map[string]float64, len(s.Params)+len(s.Counters))}

	for _, p := range s.Params {
		bag.Values[p.Name] = p.Signal.At(f)
	}
	if len(s.Counters) > 0 {
		bag.Text = make(map[string]string, len(s.Counters))
		for _, c := range s.Counters {
			v := c.Counter.ValueAt(f)
			bag.Values[c.Name] = v
			bag.Text[c.Name] = c.Counter.Format.Format(v)
		}
	}
	if len(s.Groups) > 0 {
		bag.Elements = make(map[string][]stagger.Element, len(s.Groups))
		for _, g := range s.Groups {
			bag.Elements[g.Name] = g.resolved().At(f)
		}
	}
	if s.Particles != nil {
		bag.Particles = s.Particles.Snapshot(f)
	}
	return bag
}

// Names lists the numeric outputs of the scene, sorted.
func (s *Scene) Names() []string {
	names := make([]string, 0, len(s.Params)+len(s.Counters))
	for _, p := range s.Params {
		names = append(names, p.Name)
	}
	for _, c := range s.Counters {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// Signal returns the scalar source of a numeric output, counters included.
func (s *Scene) Signal(name string) (Signal, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p.Signal, true
		}
	}
	for _, c := range s.Counters {
		if c.Name == name {
			return counterSignal{c.Counter}, true
		}
	}
	return nil, false
}

type counterSignal struct{ c counter.Counter }

func (c counterSignal) At(frame float64) float64 { return c.c.ValueAt(frame) }

// SettleFrame is the local frame by which every staggered group has finished.
func (s *Scene) SettleFrame() float64 {
	last := 0.0
	for _, g := range s.Groups {
		last = max(last, g.resolved().SettleFrame())
	}
	for _, c := range s.Counters {
		last = max(last, c.Counter.EndFrame())
	}
	return last
}

// Validate reports every structural problem at once.
func (s *Scene) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidScene, s.ID, fmt.Sprintf(format, args...)))
	}
	if s.ID == "" {
		errs = append(errs, fmt.Errorf("%w: scene without id", ErrInvalidScene))
	}

	seen := make(map[string]bool)
	name := func(kind, n string) bool {
		switch {
		case n == "":
			bad("%s without name", kind)
			return false
		case seen[n]:
			bad("duplicate name %q", n)
			return false
		}
		seen[n] = true
		return true
	}

	for _, p := range s.Params {
		if !name("param", p.Name) {
			continue
		}
		if err := validateSignal(p.Signal); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: param %q: %w", ErrInvalidScene, s.ID, p.Name, err))
		}
	}
	for _, g := range s.Groups {
		if !name("group", g.Name) {
			continue
		}
		if err := g.resolved().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: group %q: %w", ErrInvalidScene, s.ID, g.Name, err))
		}
	}
	for _, c := range s.Counters {
		if !name("counter", c.Name) {
			continue
		}
		if err := c.Counter.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: counter %q: %w", ErrInvalidScene, s.ID, c.Name, err))
		}
	}
	if s.Particles != nil && s.Particles.Count < 0 {
		bad("negative particle count %d", s.Particles.Count)
	}
	return errors.Join(errs...)
}
