// Package main provides CMA-ES tuning of the ground and rabbit parameters
// toward long-lived, stable rabbit populations.
package main

import (
	"github.com/pthm-cable/warren/config"
)

// ParamSpec defines a single tunable parameter and its search range.
type ParamSpec struct {
	Name    string  // registry name, e.g. RABBIT_LIFE_INTERVAL
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting point
}

// ParamVector holds the set of all tuned parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard search space. Defaults are the
// shipped configuration values.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Ground
			{Name: "MIN_SELF_GROW_FACTOR", Min: 0.1, Max: 1.0, Default: 0.5},
			{Name: "SELF_GROW_FACTOR", Min: 0.01, Max: 0.2, Default: 0.05},
			{Name: "ADJACENT_GROW_FACTOR", Min: 0.05, Max: 0.5, Default: 0.25},
			{Name: "MAX_GROW_FACTOR", Min: 0.02, Max: 0.5, Default: 0.1},
			// Rabbit (RABBIT_FULL_LIFE locked: it only rescales the others)
			{Name: "RABBIT_MOVE_INTERVAL", Min: 0.05, Max: 0.5, Default: 0.1},
			{Name: "RABBIT_LIFE_INTERVAL", Min: 0.2, Max: 1.5, Default: 0.75},
			{Name: "RABBIT_EAT_INTERVAL", Min: 0.02, Max: 0.3, Default: 0.1},
			{Name: "MIN_RABBIT_EAT_INTERVAL", Min: 0.01, Max: 0.2, Default: 0.05},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to the [0,1] search space.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = max(spec.Min, min(v[i], spec.Max))
	}
	return clamped
}

// Values pairs each parameter name with its clamped value.
func (pv *ParamVector) Values(v []float64) map[string]float64 {
	clamped := pv.Clamp(v)
	out := make(map[string]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[spec.Name] = clamped[i]
	}
	return out
}

// ApplyToConfig writes clamped parameter values into cfg through the
// parameter registry.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	return cfg.Apply(pv.Values(values))
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) ([]float64, error) {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v, err := cfg.Get(spec.Name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
