package export

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/signalsfoundry/coverage-planner/model"
)

// ErrNoPolygon is returned when a GeoJSON document holds no polygon.
var ErrNoPolygon = errors.New("geojson contains no polygon")

// ReadPolygonGeoJSON extracts the outer ring of the first polygon in a
// FeatureCollection, Feature or bare geometry. Coordinates are read as
// degrees; a closing vertex equal to the first is dropped.
func ReadPolygonGeoJSON(data []byte) (model.Polygon, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	var geoms []orb.Geometry
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parse feature collection: %w", err)
		}
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("parse feature: %w", err)
		}
		geoms = append(geoms, f.Geometry)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("parse geometry: %w", err)
		}
		geoms = append(geoms, g.Geometry())
	}

	for _, g := range geoms {
		if ring, ok := outerRing(g); ok {
			return ringToPolygon(ring), nil
		}
	}
	return nil, ErrNoPolygon
}

func outerRing(g orb.Geometry) (orb.Ring, bool) {
	switch v := g.(type) {
	case orb.Polygon:
		if len(v) > 0 {
			return v[0], true
		}
	case orb.MultiPolygon:
		if len(v) > 0 && len(v[0]) > 0 {
			return v[0][0], true
		}
	}
	return nil, false
}

func ringToPolygon(ring orb.Ring) model.Polygon {
	if len(ring) > 1 && ring.Closed() {
		ring = ring[:len(ring)-1]
	}
	poly := make(model.Polygon, len(ring))
	for i, pt := range ring {
		poly[i] = model.GeoPointFromDegrees(pt.Lon(), pt.Lat())
	}
	return poly
}

// PolygonFeature renders a survey polygon as a GeoJSON feature with a
// closed ring.
func PolygonFeature(poly model.Polygon, props map[string]any) *geojson.Feature {
	ring := make(orb.Ring, 0, len(poly)+1)
	for _, p := range poly {
		ring = append(ring, orb.Point{p.LongitudeDegrees(), p.LatitudeDegrees()})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	f := geojson.NewFeature(orb.Polygon{ring})
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}
