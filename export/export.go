// Package export renders missions in the formats downstream tools consume:
// a GeoJSON path for GIS tools and a flat waypoint record for flight
// controllers.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/signalsfoundry/coverage-planner/model"
)

// Supported export formats.
const (
	FormatGeoJSON = "geojson"
	FormatJSON    = "json"
)

var (
	// ErrEmptyPath is returned when a mission has no waypoints to export.
	ErrEmptyPath = errors.New("no path data to export")
	// ErrUnknownFormat is returned for an unsupported export format.
	ErrUnknownFormat = errors.New("unknown export format")
)

// Waypoint roles in a Record.
const (
	WaypointStart = "start"
	WaypointEnd   = "end"
	WaypointMid   = "waypoint"
)

// FeatureCollection is a GeoJSON feature collection whose coordinates carry
// a third (height) component.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON feature holding the flight path.
type Feature struct {
	Type       string         `json:"type"`
	Properties PathProperties `json:"properties"`
	Geometry   LineStringGeom `json:"geometry"`
}

// LineStringGeom is a GeoJSON LineString of [lon, lat, height] positions.
type LineStringGeom struct {
	Type        string       `json:"type"`
	Coordinates [][3]float64 `json:"coordinates"`
}

// PathProperties are the feature properties of an exported path.
type PathProperties struct {
	Name            string  `json:"name"`
	WaypointCount   int     `json:"waypointCount"`
	PathLength      float64 `json:"pathLength"`
	EstimatedTime   float64 `json:"estimatedTime"`
	AreaCoverage    float64 `json:"areaCoverage"`
	Altitude        float64 `json:"altitude"`
	LineSpacing     float64 `json:"lineSpacing"`
	FollowTerrain   bool    `json:"followTerrain"`
	SmoothPath      bool    `json:"smoothPath"`
	SmoothingFactor int     `json:"smoothingFactor"`
	ExportDate      string  `json:"exportDate"`
}

// Record is the flat mission export.
type Record struct {
	Mission MissionRecord `json:"mission"`
}

// MissionRecord holds the mission body of a Record.
type MissionRecord struct {
	Name       string           `json:"name"`
	Metadata   RecordMetadata   `json:"metadata"`
	Parameters RecordParameters `json:"parameters"`
	Waypoints  []RecordWaypoint `json:"waypoints"`
}

// RecordMetadata summarises the path.
type RecordMetadata struct {
	WaypointCount int     `json:"waypointCount"`
	PathLength    float64 `json:"pathLength"`
	EstimatedTime float64 `json:"estimatedTime"`
	AreaCoverage  float64 `json:"areaCoverage"`
	ExportDate    string  `json:"exportDate"`
}

// RecordParameters echoes the planning parameters.
type RecordParameters struct {
	Altitude        float64 `json:"altitude"`
	LineSpacing     float64 `json:"lineSpacing"`
	FollowTerrain   bool    `json:"followTerrain"`
	SmoothPath      bool    `json:"smoothPath"`
	SmoothingFactor int     `json:"smoothingFactor"`
}

// RecordWaypoint is one waypoint in degrees with its absolute altitude.
type RecordWaypoint struct {
	Index     int     `json:"index"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Altitude  float64 `json:"altitude"`
	Type      string  `json:"type"`
}

func height(p model.GeoPoint) float64 {
	if !p.HasHeight {
		return 0
	}
	return p.Height
}

func exportDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// GeoJSON renders m as a feature collection with a single LineString
// feature. Unresolved heights are written as 0.
func GeoJSON(m *model.Mission, exportedAt time.Time) (*FeatureCollection, error) {
	if m == nil || len(m.Waypoints) == 0 {
		return nil, ErrEmptyPath
	}

	coords := make([][3]float64, len(m.Waypoints))
	for i, wp := range m.Waypoints {
		coords[i] = [3]float64{wp.LongitudeDegrees(), wp.LatitudeDegrees(), height(wp)}
	}

	p := m.Parameters
	return &FeatureCollection{
		Type: "FeatureCollection",
		Features: []Feature{{
			Type: "Feature",
			Properties: PathProperties{
				Name:            m.Name,
				WaypointCount:   len(m.Waypoints),
				PathLength:      m.Metrics.PathLengthKm,
				EstimatedTime:   m.Metrics.EstimatedTimeMin,
				AreaCoverage:    m.Metrics.AreaKm2,
				Altitude:        p.AltitudeMeters,
				LineSpacing:     p.LineSpacingMeters,
				FollowTerrain:   p.FollowTerrain,
				SmoothPath:      p.SmoothPath,
				SmoothingFactor: p.SmoothingFactor,
				ExportDate:      exportDate(exportedAt),
			},
			Geometry: LineStringGeom{Type: "LineString", Coordinates: coords},
		}},
	}, nil
}

// ToRecord renders m as a flat waypoint record. The first waypoint is typed
// start and the last end; a single waypoint is a start.
func ToRecord(m *model.Mission, exportedAt time.Time) (*Record, error) {
	if m == nil || len(m.Waypoints) == 0 {
		return nil, ErrEmptyPath
	}

	last := len(m.Waypoints) - 1
	waypoints := make([]RecordWaypoint, len(m.Waypoints))
	for i, wp := range m.Waypoints {
		kind := WaypointMid
		switch i {
		case 0:
			kind = WaypointStart
		case last:
			kind = WaypointEnd
		}
		waypoints[i] = RecordWaypoint{
			Index:     i,
			Longitude: wp.LongitudeDegrees(),
			Latitude:  wp.LatitudeDegrees(),
			Altitude:  height(wp),
			Type:      kind,
		}
	}

	p := m.Parameters
	return &Record{Mission: MissionRecord{
		Name: m.Name,
		Metadata: RecordMetadata{
			WaypointCount: len(m.Waypoints),
			PathLength:    m.Metrics.PathLengthKm,
			EstimatedTime: m.Metrics.EstimatedTimeMin,
			AreaCoverage:  m.Metrics.AreaKm2,
			ExportDate:    exportDate(exportedAt),
		},
		Parameters: RecordParameters{
			Altitude:        p.AltitudeMeters,
			LineSpacing:     p.LineSpacingMeters,
			FollowTerrain:   p.FollowTerrain,
			SmoothPath:      p.SmoothPath,
			SmoothingFactor: p.SmoothingFactor,
		},
		Waypoints: waypoints,
	}}, nil
}

// Encoded is a serialised export ready to be written or served.
type Encoded struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Encode renders m in the named format as indented JSON.
func Encode(m *model.Mission, format string, exportedAt time.Time) (*Encoded, error) {
	var (
		doc         any
		err         error
		contentType string
	)
	switch format {
	case FormatGeoJSON:
		doc, err = GeoJSON(m, exportedAt)
		contentType = "application/geo+json"
	case FormatJSON:
		doc, err = ToRecord(m, exportedAt)
		contentType = "application/json"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return &Encoded{Filename: Filename(m.Name, format), ContentType: contentType, Body: body}, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Filename builds the download name for a mission export, replacing every
// character outside [A-Za-z0-9] with an underscore.
func Filename(name, ext string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_") + "_path." + ext
}

// SanitizeName applies the Filename character rules without a suffix.
func SanitizeName(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}
