package config

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ParamKind enumerates supported parameter value kinds.
type ParamKind string

const (
	// ParamFloat denotes floating-point parameters.
	ParamFloat ParamKind = "float"
	// ParamInt denotes integer-valued parameters.
	ParamInt ParamKind = "int"
)

// ParamSpec describes a single tunable value that can be edited between ticks.
type ParamSpec struct {
	Name  string // canonical name, e.g. RABBIT_MOVE_INTERVAL
	Path  string // YAML path, e.g. rabbit.move_interval
	Label string
	Group string
	Kind  ParamKind

	Min    float64
	Max    float64
	HasMax bool

	get func(*Config) float64
	set func(*Config, float64)
}

// Parameter pairs a spec with its current value.
type Parameter struct {
	ParamSpec
	Value float64
}

// FormatValue renders the value the way a parameter editor would show it.
func (p Parameter) FormatValue() string {
	if p.Kind == ParamInt {
		return strconv.FormatInt(int64(p.Value), 10)
	}
	return strconv.FormatFloat(p.Value, 'f', -1, 64)
}

var paramSpecs = []ParamSpec{
	{
		Name: "MIN_SELF_GROW_FACTOR", Path: "ground.min_self_grow_factor", Label: "Min self grow factor",
		Group: "Ground", Kind: ParamFloat, Max: 1, HasMax: true,
		get: func(c *Config) float64 { return c.Ground.MinSelfGrowFactor },
		set: func(c *Config, v float64) { c.Ground.MinSelfGrowFactor = v },
	},
	{
		Name: "SELF_GROW_FACTOR", Path: "ground.self_grow_factor", Label: "Self grow factor",
		Group: "Ground", Kind: ParamFloat,
		get: func(c *Config) float64 { return c.Ground.SelfGrowFactor },
		set: func(c *Config, v float64) { c.Ground.SelfGrowFactor = v },
	},
	{
		Name: "ADJACENT_GROW_FACTOR", Path: "ground.adjacent_grow_factor", Label: "Adjacent grow factor",
		Group: "Ground", Kind: ParamFloat,
		get: func(c *Config) float64 { return c.Ground.AdjacentGrowFactor },
		set: func(c *Config, v float64) { c.Ground.AdjacentGrowFactor = v },
	},
	{
		Name: "MAX_GROW_FACTOR", Path: "ground.max_grow_factor", Label: "Max grow factor",
		Group: "Ground", Kind: ParamFloat,
		get: func(c *Config) float64 { return c.Ground.MaxGrowFactor },
		set: func(c *Config, v float64) { c.Ground.MaxGrowFactor = v },
	},
	{
		Name: "RABBIT_FULL_LIFE", Path: "rabbit.full_life", Label: "Rabbit full life",
		Group: "Rabbit", Kind: ParamFloat,
		get: func(c *Config) float64 { return c.Rabbit.FullLife },
		set: func(c *Config, v float64) { c.Rabbit.FullLife = v },
	},
	{
		Name: "RABBIT_MOVE_INTERVAL", Path: "rabbit.move_interval", Label: "Rabbit move interval",
		Group: "Rabbit", Kind: ParamFloat,
		get: func(c *Config) float64 { return c.Rabbit.MoveInterval },
		set: func(c *Config, v float64) { c.Rabbit.MoveInterval = v },
	},
	{
		Name: "RABBIT_LIFE_INTERVAL", Path: "rabbit.life_interval", Label: "Rabbit life decay",
		Group: "Rabbit", Kind: ParamFloat,
		get: func(c *Config) float64 { return c.Rabbit.LifeInterval },
		set: func(c *Config, v float64) { c.Rabbit.LifeInterval = v },
	},
	{
		Name: "RABBIT_EAT_INTERVAL", Path: "rabbit.eat_interval", Label: "Rabbit eat amount",
		Group: "Rabbit", Kind: ParamFloat, Max: 1, HasMax: true,
		get: func(c *Config) float64 { return c.Rabbit.EatInterval },
		set: func(c *Config, v float64) { c.Rabbit.EatInterval = v },
	},
	{
		Name: "MIN_RABBIT_EAT_INTERVAL", Path: "rabbit.min_eat_interval", Label: "Rabbit min ground to eat",
		Group: "Rabbit", Kind: ParamFloat, Max: 1, HasMax: true,
		get: func(c *Config) float64 { return c.Rabbit.MinEatInterval },
		set: func(c *Config, v float64) { c.Rabbit.MinEatInterval = v },
	},
	{
		Name: "INIT_NUM_RABBITS", Path: "population.initial", Label: "Initial rabbits",
		Group: "Population", Kind: ParamInt,
		get: func(c *Config) float64 { return float64(c.Population.Initial) },
		set: func(c *Config, v float64) { c.Population.Initial = int(v) },
	},
}

var paramIndex = func() map[string]int {
	idx := make(map[string]int, len(paramSpecs))
	for i, spec := range paramSpecs {
		idx[spec.Name] = i
	}
	return idx
}()

// Specs returns the specs of every editable parameter in display order.
func Specs() []ParamSpec {
	out := make([]ParamSpec, len(paramSpecs))
	copy(out, paramSpecs)
	return out
}

// Lookup finds a spec by name. Names match case-insensitively, so the YAML
// style rabbit_move_interval resolves like RABBIT_MOVE_INTERVAL.
func Lookup(name string) (ParamSpec, bool) {
	i, ok := paramIndex[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return ParamSpec{}, false
	}
	return paramSpecs[i], true
}

func (s ParamSpec) check(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalid, s.Name, v)
	}
	if v < s.Min {
		return fmt.Errorf("%w: %s must be >= %v, got %v", ErrInvalid, s.Name, s.Min, v)
	}
	if s.HasMax && v > s.Max {
		return fmt.Errorf("%w: %s must be <= %v, got %v", ErrInvalid, s.Name, s.Max, v)
	}
	if s.Kind == ParamInt {
		if v != math.Trunc(v) {
			return fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalid, s.Name, v)
		}
		// int conversion of larger values is implementation-defined
		if v > math.MaxInt32 {
			return fmt.Errorf("%w: %s must be <= %d, got %v", ErrInvalid, s.Name, math.MaxInt32, v)
		}
	}
	return nil
}

// Get returns the current value of the named parameter.
func (c *Config) Get(name string) (float64, error) {
	spec, ok := Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: unknown parameter %q", ErrInvalid, name)
	}
	return spec.get(c), nil
}

// Set validates and applies a single named parameter.
func (c *Config) Set(name string, v float64) error {
	return c.Apply(map[string]float64{name: v})
}

// Apply validates every entry first and only then writes them, so a bad
// entry leaves the config untouched.
func (c *Config) Apply(params map[string]float64) error {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]ParamSpec, len(names))
	for i, name := range names {
		spec, ok := Lookup(name)
		if !ok {
			return fmt.Errorf("%w: unknown parameter %q", ErrInvalid, name)
		}
		if err := spec.check(params[name]); err != nil {
			return err
		}
		specs[i] = spec
	}
	for i, spec := range specs {
		spec.set(c, params[names[i]])
	}
	return nil
}

// ParseParams converts string-valued input (flags, form fields) into
// parameter values. Unknown names and anything that is not a finite number
// are rejected.
func ParseParams(raw map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for name, text := range raw {
		spec, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown parameter %q", ErrInvalid, name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q is not a number", ErrInvalid, spec.Name, text)
		}
		if err := spec.check(v); err != nil {
			return nil, err
		}
		out[spec.Name] = v
	}
	return out, nil
}

// ParseAssignment splits a NAME=VALUE pair as given on the command line.
func ParseAssignment(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return "", "", fmt.Errorf("%w: expected NAME=VALUE, got %q", ErrInvalid, s)
	}
	return strings.TrimSpace(name), strings.TrimSpace(value), nil
}

// Parameters returns every editable parameter with its current value.
func (c *Config) Parameters() []Parameter {
	out := make([]Parameter, len(paramSpecs))
	for i, spec := range paramSpecs {
		out[i] = Parameter{ParamSpec: spec, Value: spec.get(c)}
	}
	return out
}
