// Package geom provides the minimal planar geometry types used by the
// network engine: 2D points for nodes and polylines for reach geometries.
//
// Geometries arrive from source layers as WKT text, optionally carrying an
// EWKT SRID prefix ("SRID=2056;POINT(...)"). ParsePoint and ParsePolyline
// strip that prefix before parsing; the SRID itself is not interpreted -
// all coordinates are treated as planar.
package geom

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidWKT is returned when a geometry string cannot be parsed.
	ErrInvalidWKT = errors.New("invalid WKT geometry")

	// ErrWrongGeometryType is returned when the WKT parses but is not of
	// the requested type (e.g. a LINESTRING passed to ParsePoint).
	ErrWrongGeometryType = errors.New("unexpected geometry type")
)

// Point is a 2D coordinate pair.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// String formats the point as WKT.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%s %s)", fmtCoord(p.X), fmtCoord(p.Y))
}

// DistanceTo returns the Euclidean distance to q.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Polyline is an ordered vertex sequence describing an edge geometry.
type Polyline []Point

// Length returns the sum of segment lengths.
func (l Polyline) Length() float64 {
	var total float64
	for i := 1; i < len(l); i++ {
		total += l[i-1].DistanceTo(l[i])
	}
	return total
}

// String formats the polyline as WKT.
func (l Polyline) String() string {
	parts := make([]string, len(l))
	for i, p := range l {
		parts[i] = fmtCoord(p.X) + " " + fmtCoord(p.Y)
	}
	return "LINESTRING(" + strings.Join(parts, ", ") + ")"
}

// StripSRID removes an optional leading "SRID=n;" token from an EWKT string.
// Plain WKT passes through unchanged.
func StripSRID(wkt string) string {
	if i := strings.IndexByte(wkt, ';'); i >= 0 {
		return wkt[i+1:]
	}
	return wkt
}

// ParsePoint parses a WKT or EWKT POINT.
func ParsePoint(wkt string) (Point, error) {
	body, err := wktBody(wkt, "POINT")
	if err != nil {
		return Point{}, err
	}
	coords, err := parseCoordPair(body)
	if err != nil {
		return Point{}, err
	}
	return coords, nil
}

// ParsePolyline parses a WKT or EWKT LINESTRING.
func ParsePolyline(wkt string) (Polyline, error) {
	body, err := wktBody(wkt, "LINESTRING")
	if err != nil {
		return nil, err
	}
	segments := strings.Split(body, ",")
	line := make(Polyline, 0, len(segments))
	for _, seg := range segments {
		p, err := parseCoordPair(seg)
		if err != nil {
			return nil, err
		}
		line = append(line, p)
	}
	if len(line) < 2 {
		return nil, fmt.Errorf("%w: linestring needs at least 2 vertices", ErrInvalidWKT)
	}
	return line, nil
}

// wktBody validates the geometry tag and returns the text between the
// outermost parentheses.
func wktBody(wkt, wantTag string) (string, error) {
	s := strings.TrimSpace(StripSRID(wkt))
	open := strings.IndexByte(s, '(')
	close := strings.LastIndexByte(s, ')')
	if open < 0 || close < open {
		return "", fmt.Errorf("%w: %q", ErrInvalidWKT, wkt)
	}
	tag := strings.ToUpper(strings.TrimSpace(s[:open]))
	if tag != wantTag {
		return "", fmt.Errorf("%w: got %s, want %s", ErrWrongGeometryType, tag, wantTag)
	}
	return s[open+1 : close], nil
}

func parseCoordPair(s string) (Point, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	// Z/M coordinates are tolerated and dropped.
	if len(fields) < 2 {
		return Point{}, fmt.Errorf("%w: coordinate pair %q", ErrInvalidWKT, s)
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %q", ErrInvalidWKT, s)
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %q", ErrInvalidWKT, s)
	}
	return Point{X: x, Y: y}, nil
}

func fmtCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
