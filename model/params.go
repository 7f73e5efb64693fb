package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameters is returned when planning parameters cannot be used.
var ErrInvalidParameters = errors.New("invalid planning parameters")

// MaxSmoothingFactor bounds SmoothingFactor. Each sharp corner gains up to
// four points per unit of factor.
const MaxSmoothingFactor = 20

// PlanningParameters are supplied per planning run and never persisted by
// the planner itself.
type PlanningParameters struct {
	LineSpacingMeters float64 `json:"line_spacing_m" yaml:"line_spacing_m" msgpack:"spacing"`
	FollowTerrain     bool    `json:"follow_terrain" yaml:"follow_terrain" msgpack:"terrain"`
	AltitudeMeters    float64 `json:"altitude_m" yaml:"altitude_m" msgpack:"alt"`
	SmoothPath        bool    `json:"smooth_path" yaml:"smooth_path" msgpack:"smooth"`
	SmoothingFactor   int     `json:"smoothing_factor" yaml:"smoothing_factor" msgpack:"factor"`
}

// DefaultPlanningParameters mirrors the operator console defaults.
func DefaultPlanningParameters() PlanningParameters {
	return PlanningParameters{
		LineSpacingMeters: 50,
		FollowTerrain:     true,
		AltitudeMeters:    100,
		SmoothPath:        true,
		SmoothingFactor:   5,
	}
}

// Validate checks the numeric ranges of the parameters.
func (p PlanningParameters) Validate() error {
	if math.IsNaN(p.LineSpacingMeters) || math.IsInf(p.LineSpacingMeters, 0) || p.LineSpacingMeters <= 0 {
		return fmt.Errorf("%w: line spacing must be a positive number of metres, got %v", ErrInvalidParameters, p.LineSpacingMeters)
	}
	if math.IsNaN(p.AltitudeMeters) || math.IsInf(p.AltitudeMeters, 0) {
		return fmt.Errorf("%w: altitude must be finite", ErrInvalidParameters)
	}
	if p.SmoothingFactor < 0 || p.SmoothingFactor > MaxSmoothingFactor {
		return fmt.Errorf("%w: smoothing factor must be within [0, %d], got %d", ErrInvalidParameters, MaxSmoothingFactor, p.SmoothingFactor)
	}
	return nil
}
