package geo

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

const (
	indexMinChildren = 8
	indexMaxChildren = 32

	// boundPad keeps index rectangles of points and axis-aligned lines
	// from having zero extent.
	boundPad = 1e-9
)

// Layer is a read-only collection of obstacle geometries (buildings, power
// lines) backed by a bounding-box R-tree. A Layer is safe for concurrent
// reads once built.
type Layer struct {
	Name  string
	items []orb.Geometry
	index *rtreego.Rtree
}

type layerEntry struct {
	idx  int
	rect rtreego.Rect
}

func (e *layerEntry) Bounds() rtreego.Rect {
	return e.rect
}

// NewLayer indexes the given geometries. Nil geometries are skipped.
func NewLayer(name string, geoms []orb.Geometry) *Layer {
	l := &Layer{Name: name}
	var entries []rtreego.Spatial
	for _, g := range geoms {
		if g == nil {
			continue
		}
		entries = append(entries, &layerEntry{idx: len(l.items), rect: boundRect(g.Bound())})
		l.items = append(l.items, g)
	}
	l.index = rtreego.NewTree(2, indexMinChildren, indexMaxChildren, entries...)
	return l
}

// Len returns the number of indexed geometries.
func (l *Layer) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Query returns the geometries whose bounding boxes intersect b.
func (l *Layer) Query(b orb.Bound) []orb.Geometry {
	if l.Len() == 0 {
		return nil
	}
	hits := l.index.SearchIntersect(boundRect(b))
	out := make([]orb.Geometry, 0, len(hits))
	for _, h := range hits {
		out = append(out, l.items[h.(*layerEntry).idx])
	}
	return out
}

// IntersectsCircle reports whether the circle intersects any geometry of the layer.
func (l *Layer) IntersectsCircle(c Circle) bool {
	for _, g := range l.Query(c.Bound()) {
		if c.Intersects(g) {
			return true
		}
	}
	return false
}

func boundRect(b orb.Bound) rtreego.Rect {
	p := rtreego.Point{b.Min[0] - boundPad, b.Min[1] - boundPad}
	lengths := []float64{
		b.Max[0] - b.Min[0] + 2*boundPad,
		b.Max[1] - b.Min[1] + 2*boundPad,
	}
	// Lengths are always positive, so NewRect cannot fail.
	r, _ := rtreego.NewRect(p, lengths)
	return r
}
