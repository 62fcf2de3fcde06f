// Package main provides CMA-ES tuning of the spring physics settings against
// a target feel: how far a pointer swipe pushes the field and how quickly it
// settles afterwards.
package main

import (
	"github.com/pthm-cable/shimmer/config"
)

// ParamSpec is one tunable setting and the box CMA-ES searches it in.
type ParamSpec struct {
	Name     string
	Path     string // YAML path, for reports
	Min, Max float64
	Default  float64

	field func(*config.Settings) *float64
}

func (s ParamSpec) span() float64 { return s.Max - s.Min }

func (s ParamSpec) clamp(v float64) float64 {
	return min(max(v, s.Min), s.Max)
}

// ParamVector maps between optimizer coordinates in [0,1] and Settings.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector returns the spring parameters: friction and ease.
func NewParamVector() *ParamVector {
	return &ParamVector{Specs: []ParamSpec{
		{
			Name: "friction", Path: "settings.friction",
			Min: 0.5, Max: 0.98, Default: 0.9,
			field: func(s *config.Settings) *float64 { return &s.Friction },
		},
		{
			Name: "ease", Path: "settings.ease",
			Min: 0.005, Max: 0.25, Default: 0.05,
			field: func(s *config.Settings) *float64 { return &s.Ease },
		},
	}}
}

// Dim is the search dimension.
func (pv *ParamVector) Dim() int { return len(pv.Specs) }

// each builds a vector by applying fn to every spec and its input value.
func (pv *ParamVector) each(in []float64, fn func(ParamSpec, float64) float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		var v float64
		if in != nil {
			v = in[i]
		}
		out[i] = fn(s, v)
	}
	return out
}

// DefaultVector returns the spec defaults.
func (pv *ParamVector) DefaultVector() []float64 {
	return pv.each(nil, func(s ParamSpec, _ float64) float64 { return s.Default })
}

// Normalize maps raw values into the unit box.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	return pv.each(raw, func(s ParamSpec, v float64) float64 { return (v - s.Min) / s.span() })
}

// Denormalize maps unit-box coordinates back to raw values.
func (pv *ParamVector) Denormalize(unit []float64) []float64 {
	return pv.each(unit, func(s ParamSpec, u float64) float64 { return s.Min + u*s.span() })
}

// Clamp pins each value into its spec range.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	return pv.each(v, ParamSpec.clamp)
}

// ApplyToConfig writes clamped values into cfg.Settings and refreshes the
// derived settings the integrator reads.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		*pv.Specs[i].field(&cfg.Settings) = v
	}
	cfg.Derived.Settings = cfg.Settings.Clamp()
}

// ExtractFromConfig reads the current values out of cfg.Settings.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return pv.each(nil, func(s ParamSpec, _ float64) float64 { return *s.field(&cfg.Settings) })
}
