package planting

import (
	"math/rand/v2"
	"testing"

	"github.com/paulmach/orb"

	"github.com/oukawa/ICALON-UMEP/pkg/geo"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// sequence replays fixed values and counts draws.
type sequence struct {
	t      *testing.T
	values []float64
	draws  int
}

func (s *sequence) Float64() float64 {
	if s.draws >= len(s.values) {
		s.t.Fatalf("sequence exhausted after %d draws", s.draws)
	}
	v := s.values[s.draws]
	s.draws++
	return v
}

func square(x0, y0, size float64) orb.Polygon {
	return orb.Polygon{{
		{x0, y0}, {x0 + size, y0}, {x0 + size, y0 + size}, {x0, y0 + size}, {x0, y0},
	}}
}

func squareZone(id string, x0, y0, size float64) geo.Zone {
	return geo.NewZone(id, geo.ZonePublicSpace, square(x0, y0, size))
}

func tiers(diameters ...float64) []SizeTier {
	out := make([]SizeTier, len(diameters))
	for i, d := range diameters {
		out[i] = SizeTier{Diameter: d, Height: 2 * d, TrunkHeight: d / 2}
	}
	return out
}
