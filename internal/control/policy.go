package control

import (
	"fmt"
	"slices"
	"sort"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/leap/internal/dynamo"
)

// Input is what a policy sees each step.
type Input struct {
	QPos    []float64
	QVel    []float64
	Goal    quat.Number
	Nominal []float64
}

// Command is a policy's output. Angular is expressed in the cube frame.
type Command struct {
	Joints  dynamo.Control
	Linear  r3.Vec
	Angular r3.Vec
}

type Policy interface {
	Compute(in Input, t float64) Command
	Reset()
}

var registry = map[string]func(map[string]float64) (Policy, error){
	"none": func(map[string]float64) (Policy, error) { return NewNone(), nil },
	"tracker": func(params map[string]float64) (Policy, error) {
		return configure(NewTracker(), params)
	},
	"manual": func(params map[string]float64) (Policy, error) {
		return configure(NewManual(), params)
	},
}

func configure[P interface {
	Policy
	dynamo.Configurable
}](p P, params map[string]float64) (Policy, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := p.SetParam(k, params[k]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// New builds the named policy with params applied over its defaults.
func New(name string, params map[string]float64) (Policy, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("policy %q: %w", name, dynamo.ErrUnknownName)
	}
	return fn(params)
}

// Names lists the registered policies.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func nominal(in Input) dynamo.Control {
	u := make(dynamo.Control, dynamo.NumJoints)
	copy(u, in.Nominal)
	return u
}
