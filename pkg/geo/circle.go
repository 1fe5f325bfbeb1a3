package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Circle is a circular footprint buffer around a point, in projected units.
type Circle struct {
	Center orb.Point
	Radius float64
}

// Buffer returns the circular buffer of the given radius around p.
func Buffer(p orb.Point, radius float64) Circle {
	return Circle{Center: p, Radius: radius}
}

// Bound returns the axis-aligned bounding box of the circle.
func (c Circle) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{c.Center[0] - c.Radius, c.Center[1] - c.Radius},
		Max: orb.Point{c.Center[0] + c.Radius, c.Center[1] + c.Radius},
	}
}

// Intersects reports whether the circle shares at least one point with g.
// Touching counts as intersecting. Polygon holes are respected: a circle
// that fits entirely inside a hole does not intersect the polygon.
func (c Circle) Intersects(g orb.Geometry) bool {
	switch g := g.(type) {
	case nil:
		return false
	case orb.Point:
		return planar.Distance(c.Center, g) <= c.Radius
	case orb.MultiPoint:
		for _, p := range g {
			if planar.Distance(c.Center, p) <= c.Radius {
				return true
			}
		}
	case orb.LineString:
		return pathDistance(g, c.Center, false) <= c.Radius
	case orb.MultiLineString:
		for _, ls := range g {
			if pathDistance(ls, c.Center, false) <= c.Radius {
				return true
			}
		}
	case orb.Ring:
		return c.intersectsPolygon(orb.Polygon{g})
	case orb.Polygon:
		return c.intersectsPolygon(g)
	case orb.MultiPolygon:
		for _, p := range g {
			if c.intersectsPolygon(p) {
				return true
			}
		}
	case orb.Collection:
		for _, sub := range g {
			if c.Intersects(sub) {
				return true
			}
		}
	case orb.Bound:
		return c.intersectsPolygon(g.ToPolygon())
	}
	return false
}

func (c Circle) intersectsPolygon(p orb.Polygon) bool {
	if len(p) == 0 || len(p[0]) == 0 {
		return false
	}
	if planar.PolygonContains(p, c.Center) {
		return true
	}
	// Center is outside (or in a hole): the circle reaches the polygon only
	// across one of its rings.
	for _, r := range p {
		if pathDistance(r, c.Center, true) <= c.Radius {
			return true
		}
	}
	return false
}

// pathDistance returns the shortest distance from pt to the polyline pts.
// A closed path also includes the segment from the last vertex to the first.
func pathDistance(pts []orb.Point, pt orb.Point, closed bool) float64 {
	switch len(pts) {
	case 0:
		return inf
	case 1:
		return planar.Distance(pts[0], pt)
	}
	best := inf
	for i := 0; i < len(pts)-1; i++ {
		if d := planar.DistanceFromSegment(pts[i], pts[i+1], pt); d < best {
			best = d
		}
	}
	if closed && pts[0] != pts[len(pts)-1] {
		if d := planar.DistanceFromSegment(pts[len(pts)-1], pts[0], pt); d < best {
			best = d
		}
	}
	return best
}
