package plannersvc

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/signalsfoundry/coverage-planner/core"
	"github.com/signalsfoundry/coverage-planner/export"
	"github.com/signalsfoundry/coverage-planner/model"
)

var (
	// ErrInvalidRequest marks a structurally invalid request.
	ErrInvalidRequest = errors.New("invalid request")
)

// MaxMissionNameLength bounds mission names.
const MaxMissionNameLength = 128

// MaxPolygonVertices bounds the size of a survey polygon.
const MaxPolygonVertices = 10_000

// MaxWaypoints bounds the estimated path size of a single request.
const MaxWaypoints = core.DefaultMaxWaypoints

// ValidatePlanSize rejects requests whose resolved parameters would make the
// planner generate an unbounded amount of work.
func ValidatePlanSize(poly model.Polygon, params model.PlanningParameters) error {
	if params.SmoothingFactor > model.MaxSmoothingFactor {
		return fmt.Errorf("%w: smoothing factor %d exceeds %d", ErrInvalidRequest, params.SmoothingFactor, model.MaxSmoothingFactor)
	}
	if est := core.EstimateWaypoints(poly, params); est > MaxWaypoints {
		return fmt.Errorf("%w: line spacing %gm yields about %.0f waypoints, limit is %d",
			ErrInvalidRequest, params.LineSpacingMeters, est, MaxWaypoints)
	}
	return nil
}

// ValidatePlanRequest checks the polygon and name of a plan request.
// Parameter ranges are checked by model.PlanningParameters.Validate.
func ValidatePlanRequest(req *PlanRequest) error {
	if req == nil {
		return fmt.Errorf("%w: plan request is required", ErrInvalidRequest)
	}
	if err := validateName(req.Name, true); err != nil {
		return err
	}
	if len(req.Polygon) < model.MinPolygonPoints {
		return fmt.Errorf("%w: polygon needs at least %d vertices, got %d", ErrInvalidRequest, model.MinPolygonPoints, len(req.Polygon))
	}
	if len(req.Polygon) > MaxPolygonVertices {
		return fmt.Errorf("%w: polygon has %d vertices, limit is %d", ErrInvalidRequest, len(req.Polygon), MaxPolygonVertices)
	}
	for i, v := range req.Polygon {
		if !finite(v.Longitude) || !finite(v.Latitude) {
			return fmt.Errorf("%w: vertex %d is not finite", ErrInvalidRequest, i)
		}
		if v.Longitude < -180 || v.Longitude > 180 {
			return fmt.Errorf("%w: vertex %d longitude %v out of range", ErrInvalidRequest, i, v.Longitude)
		}
		if v.Latitude < -90 || v.Latitude > 90 {
			return fmt.Errorf("%w: vertex %d latitude %v out of range", ErrInvalidRequest, i, v.Latitude)
		}
	}
	return nil
}

// ValidateExportFormat checks the format of an export request.
func ValidateExportFormat(format string) error {
	switch format {
	case export.FormatGeoJSON, export.FormatJSON:
		return nil
	}
	return fmt.Errorf("%w: %q", export.ErrUnknownFormat, format)
}

func validateName(name string, optional bool) error {
	if strings.TrimSpace(name) == "" {
		if optional && name == "" {
			return nil
		}
		return fmt.Errorf("%w: mission name is required", ErrInvalidRequest)
	}
	if len(name) > MaxMissionNameLength {
		return fmt.Errorf("%w: mission name longer than %d bytes", ErrInvalidRequest, MaxMissionNameLength)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
