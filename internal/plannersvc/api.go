package plannersvc

import (
	"time"

	"github.com/signalsfoundry/coverage-planner/geodesy"
	"github.com/signalsfoundry/coverage-planner/model"
)

// DefaultMissionName is used when a plan request carries no name.
const DefaultMissionName = "Untitled Mission"

// LonLat is a vertex in degrees.
type LonLat struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// ParametersInput carries optional overrides of the server's planning
// defaults. Nil fields keep the default.
type ParametersInput struct {
	LineSpacingMeters *float64 `json:"line_spacing_m,omitempty"`
	FollowTerrain     *bool    `json:"follow_terrain,omitempty"`
	AltitudeMeters    *float64 `json:"altitude_m,omitempty"`
	SmoothPath        *bool    `json:"smooth_path,omitempty"`
	SmoothingFactor   *int     `json:"smoothing_factor,omitempty"`
}

// Apply returns defaults with the set fields of in applied.
func (in *ParametersInput) Apply(defaults model.PlanningParameters) model.PlanningParameters {
	p := defaults
	if in == nil {
		return p
	}
	if in.LineSpacingMeters != nil {
		p.LineSpacingMeters = *in.LineSpacingMeters
	}
	if in.FollowTerrain != nil {
		p.FollowTerrain = *in.FollowTerrain
	}
	if in.AltitudeMeters != nil {
		p.AltitudeMeters = *in.AltitudeMeters
	}
	if in.SmoothPath != nil {
		p.SmoothPath = *in.SmoothPath
	}
	if in.SmoothingFactor != nil {
		p.SmoothingFactor = *in.SmoothingFactor
	}
	return p
}

// PlanRequest asks for a coverage path over Polygon. Unless DryRun is set
// the result is stored under Name, replacing any mission of that name.
type PlanRequest struct {
	Name       string           `json:"name,omitempty"`
	Polygon    []LonLat         `json:"polygon"`
	Parameters *ParametersInput `json:"parameters,omitempty"`
	DryRun     bool             `json:"dry_run,omitempty"`
}

// Waypoint is a path position in degrees with its absolute height in
// metres.
type Waypoint struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Height    float64 `json:"height"`
}

// MissionView is the wire form of a mission.
type MissionView struct {
	ID             string                   `json:"id"`
	Name           string                   `json:"name"`
	Polygon        []LonLat                 `json:"polygon"`
	Parameters     model.PlanningParameters `json:"parameters"`
	OrientationDeg float64                  `json:"orientation_deg"`
	Waypoints      []Waypoint               `json:"waypoints"`
	Metrics        model.PathMetrics        `json:"metrics"`
	Warnings       []string                 `json:"warnings,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	Stored         bool                     `json:"stored"`
}

// MissionSummary is one entry of a mission listing.
type MissionSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	WaypointCount int       `json:"waypoint_count"`
	PathLengthKm  float64   `json:"path_length_km"`
	CreatedAt     time.Time `json:"created_at"`
}

// MissionList is the response of a listing.
type MissionList struct {
	Missions []MissionSummary `json:"missions"`
}

// NameRequest addresses a stored mission.
type NameRequest struct {
	Name string `json:"name"`
}

// ExportRequest asks for a stored mission in an export format.
type ExportRequest struct {
	Name   string `json:"name"`
	Format string `json:"format"`
}

// ExportView carries a rendered export.
type ExportView struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
}

// PolygonFromLonLat converts degree vertices into a model polygon.
func PolygonFromLonLat(vertices []LonLat) model.Polygon {
	poly := make(model.Polygon, len(vertices))
	for i, v := range vertices {
		poly[i] = model.GeoPointFromDegrees(v.Longitude, v.Latitude)
	}
	return poly
}

// LonLatFromPolygon converts a model polygon into degree vertices.
func LonLatFromPolygon(poly model.Polygon) []LonLat {
	out := make([]LonLat, len(poly))
	for i, p := range poly {
		out[i] = LonLat{Longitude: p.LongitudeDegrees(), Latitude: p.LatitudeDegrees()}
	}
	return out
}

// NewMissionView renders m for the wire.
func NewMissionView(m *model.Mission, stored bool) *MissionView {
	wps := make([]Waypoint, len(m.Waypoints))
	for i, wp := range m.Waypoints {
		wps[i] = Waypoint{Longitude: wp.LongitudeDegrees(), Latitude: wp.LatitudeDegrees(), Height: wp.Height}
	}
	return &MissionView{
		ID:             m.ID,
		Name:           m.Name,
		Polygon:        LonLatFromPolygon(m.Polygon),
		Parameters:     m.Parameters,
		OrientationDeg: geodesy.ToDegrees(float64(m.Orientation)),
		Waypoints:      wps,
		Metrics:        m.Metrics,
		Warnings:       m.Warnings,
		CreatedAt:      m.CreatedAt,
		Stored:         stored,
	}
}
