package feature

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sewerflow/sewerflow/pkg/errors"
	"github.com/sewerflow/sewerflow/pkg/geom"
)

// GeoJSONSource serves features from a GeoJSON FeatureCollection file.
// The file is re-read on every Features call so that an external refresh of
// the file is picked up by the next graph rebuild.
type GeoJSONSource struct {
	path string
}

// NewGeoJSONSource creates a source backed by the given file path.
func NewGeoJSONSource(path string) *GeoJSONSource {
	return &GeoJSONSource{path: path}
}

// ID returns the file path as the layer identifier.
func (s *GeoJSONSource) ID() string { return s.path }

// Features reads and decodes the feature collection.
func (s *GeoJSONSource) Features(ctx context.Context) ([]Feature, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayer, err, "read layer %s", s.path)
	}

	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayer, err, "decode layer %s", s.path)
	}

	feats := make([]Feature, 0, len(fc.Features))
	for i, gf := range fc.Features {
		f := Feature{
			ID:     gf.ID,
			Fields: gf.Properties,
		}
		if f.Fields == nil {
			f.Fields = map[string]any{}
		}
		if f.ID == 0 {
			// GeoJSON ids are optional; fall back to the record position.
			f.ID = int64(i + 1)
		}
		if wkt, ok := gf.Geometry.wkt(); ok {
			f.Geometry = wkt
		}
		feats = append(feats, f)
	}
	return feats, nil
}

var _ Source = (*GeoJSONSource)(nil)

type featureCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

type geoJSONFeature struct {
	ID         int64           `json:"id"`
	Properties map[string]any  `json:"properties"`
	Geometry   geoJSONGeometry `json:"geometry"`
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// wkt converts the GeoJSON geometry to its WKT text form.
// Unsupported geometry types are dropped; the feature is kept without
// usable geometry.
func (g geoJSONGeometry) wkt() (string, bool) {
	switch g.Type {
	case "Point":
		var c []float64
		if err := json.Unmarshal(g.Coordinates, &c); err != nil || len(c) < 2 {
			return "", false
		}
		return geom.Point{X: c[0], Y: c[1]}.String(), true
	case "LineString":
		var cs [][]float64
		if err := json.Unmarshal(g.Coordinates, &cs); err != nil || len(cs) < 2 {
			return "", false
		}
		line := make(geom.Polyline, 0, len(cs))
		for _, c := range cs {
			if len(c) < 2 {
				return "", false
			}
			line = append(line, geom.Point{X: c[0], Y: c[1]})
		}
		return line.String(), true
	default:
		return "", false
	}
}

// WriteGeoJSON writes features to a FeatureCollection file, the inverse of
// GeoJSONSource. Geometries that fail to parse are written as null.
func WriteGeoJSON(path string, feats []Feature) error {
	fc := featureCollection{Type: "FeatureCollection"}
	for _, f := range feats {
		gf := geoJSONFeature{ID: f.ID, Properties: f.Fields}
		if f.Geometry != "" {
			if g, ok := geometryJSON(f.Geometry); ok {
				gf.Geometry = g
			}
		}
		fc.Features = append(fc.Features, gf)
	}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0644)
}

func geometryJSON(wkt string) (geoJSONGeometry, bool) {
	upper := strings.ToUpper(geom.StripSRID(wkt))
	switch {
	case strings.HasPrefix(strings.TrimSpace(upper), "POINT"):
		p, err := geom.ParsePoint(wkt)
		if err != nil {
			return geoJSONGeometry{}, false
		}
		coords, _ := json.Marshal([]float64{p.X, p.Y})
		return geoJSONGeometry{Type: "Point", Coordinates: coords}, true
	case strings.HasPrefix(strings.TrimSpace(upper), "LINESTRING"):
		l, err := geom.ParsePolyline(wkt)
		if err != nil {
			return geoJSONGeometry{}, false
		}
		cs := make([][]float64, len(l))
		for i, p := range l {
			cs[i] = []float64{p.X, p.Y}
		}
		coords, _ := json.Marshal(cs)
		return geoJSONGeometry{Type: "LineString", Coordinates: coords}, true
	default:
		return geoJSONGeometry{}, false
	}
}
