package geo

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

var inf = math.Inf(1)

var (
	// ErrNotPolygonal reports a zone whose geometry is not a polygon or multipolygon.
	ErrNotPolygonal = errors.New("zone geometry is not polygonal")
	// ErrEmptyZone reports a zone without an outer ring of at least three vertices.
	ErrEmptyZone = errors.New("zone has no outer ring")
	// ErrDegenerateZone reports a zone whose bounding box has zero width or height.
	ErrDegenerateZone = errors.New("zone bounding box has zero width or height")
	// ErrZeroArea reports a zone that encloses no area.
	ErrZeroArea = errors.New("zone has zero area")
)

// ZoneKind distinguishes where a planting zone came from.
type ZoneKind string

const (
	ZonePublicSpace ZoneKind = "public_space"
	ZoneVacantLot   ZoneKind = "vacant_lot"
)

// Zone is a candidate planting area. Geometry is an orb.Polygon or
// orb.MultiPolygon in projected coordinates.
type Zone struct {
	ID       string       `json:"id"`
	Kind     ZoneKind     `json:"kind"`
	Geometry orb.Geometry `json:"-"`
}

// NewZone creates a zone from a polygonal geometry.
func NewZone(id string, kind ZoneKind, g orb.Geometry) Zone {
	return Zone{ID: id, Kind: kind, Geometry: g}
}

// Bound returns the axis-aligned bounding box of the zone.
func (z Zone) Bound() orb.Bound {
	if z.Geometry == nil {
		return orb.Bound{}
	}
	return z.Geometry.Bound()
}

// Area returns the planar area of the zone.
func (z Zone) Area() float64 {
	if z.Geometry == nil {
		return 0
	}
	return math.Abs(planar.Area(z.Geometry))
}

// Contains reports whether pt lies strictly inside the zone. Points on
// the outer ring or on a hole ring are outside.
func (z Zone) Contains(pt orb.Point) bool {
	switch g := z.Geometry.(type) {
	case orb.Polygon:
		return interior(g, pt)
	case orb.MultiPolygon:
		for _, p := range g {
			if interior(p, pt) {
				return true
			}
		}
	}
	return false
}

func interior(p orb.Polygon, pt orb.Point) bool {
	for _, r := range p {
		if pathDistance(r, pt, true) == 0 {
			return false
		}
	}
	return planar.PolygonContains(p, pt)
}

// Validate checks that the zone can be sampled: it must be polygonal, have
// a non-degenerate bounding box and enclose a positive area.
func (z Zone) Validate() error {
	var polys []orb.Polygon
	switch g := z.Geometry.(type) {
	case orb.Polygon:
		polys = []orb.Polygon{g}
	case orb.MultiPolygon:
		polys = g
	default:
		return ErrNotPolygonal
	}

	rings := 0
	for _, p := range polys {
		if len(p) > 0 && len(p[0]) >= 3 {
			rings++
		}
	}
	if rings == 0 {
		return ErrEmptyZone
	}

	b := z.Bound()
	if b.Right()-b.Left() <= 0 || b.Top()-b.Bottom() <= 0 {
		return ErrDegenerateZone
	}
	if z.Area() <= 0 {
		return ErrZeroArea
	}
	return nil
}
