package planting

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/oukawa/ICALON-UMEP/pkg/geo"
	"github.com/oukawa/ICALON-UMEP/pkg/project"
)

// DefaultMaxAttempts bounds the number of candidates drawn per placement.
const DefaultMaxAttempts = project.DefaultMaxAttempts

var (
	// ErrInvalidInput is wrapped by every error Place returns.
	ErrInvalidInput = errors.New("invalid placement input")
	// ErrNoTiers reports an empty tier list.
	ErrNoTiers = fmt.Errorf("%w: no size tiers", ErrInvalidInput)
	// ErrAttemptBudget reports a non-positive attempt budget.
	ErrAttemptBudget = fmt.Errorf("%w: max attempts must be positive", ErrInvalidInput)
)

// Source is a uniform random source over [0, 1). *rand.Rand from
// math/rand/v2 satisfies it. A Source must not be shared between
// goroutines without external locking.
type Source interface {
	Float64() float64
}

// Obstacles is a collection a footprint buffer must stay clear of.
type Obstacles interface {
	IntersectsCircle(c geo.Circle) bool
}

// Request holds the inputs of one placement. Existing and Obstacles are
// read, never written.
type Request struct {
	Zone      geo.Zone
	Existing  []Tree
	Obstacles []Obstacles
	Tiers     []SizeTier

	// MaxAttempts must be positive; callers usually pass DefaultMaxAttempts.
	MaxAttempts int
}

// Placement is a successful (location, size) assignment.
type Placement struct {
	Location orb.Point `json:"location"`
	Size     SizeTier  `json:"size"`
	Tier     int       `json:"tier"`
	Attempt  int       `json:"attempt"`
}

// Place draws up to MaxAttempts candidate locations uniformly from the
// zone's bounding box. Attempt i uses tier TierIndex(i, len(Tiers)). A
// candidate is accepted when it lies inside the zone, keeps at least the
// mean of both canopy diameters from every existing tree, and its canopy
// buffer touches no obstacle.
//
// When every attempt is rejected Place returns ok == false and a nil
// error: the zone simply has no room. Malformed input is reported as an
// error wrapping ErrInvalidInput before any sampling.
func Place(req Request, rng Source) (Placement, bool, error) {
	if err := req.validate(); err != nil {
		return Placement{}, false, err
	}

	b := req.Zone.Bound()
	width, height := b.Right()-b.Left(), b.Top()-b.Bottom()

	for attempt := 0; attempt < req.MaxAttempts; attempt++ {
		tier := TierIndex(attempt, len(req.Tiers))
		size := req.Tiers[tier]

		pt := orb.Point{
			b.Left() + width*rng.Float64(),
			b.Bottom() + height*rng.Float64(),
		}
		if !req.Zone.Contains(pt) {
			continue
		}
		if collides(pt, size.Diameter, req.Existing) {
			continue
		}
		if obstructed(geo.Buffer(pt, size.Diameter/2), req.Obstacles) {
			continue
		}
		return Placement{Location: pt, Size: size, Tier: tier, Attempt: attempt}, true, nil
	}
	return Placement{}, false, nil
}

func (req Request) validate() error {
	if req.MaxAttempts <= 0 {
		return ErrAttemptBudget
	}
	if len(req.Tiers) == 0 {
		return ErrNoTiers
	}
	for i, s := range req.Tiers {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: tier %d: %v", ErrInvalidInput, i, err)
		}
	}
	if err := req.Zone.Validate(); err != nil {
		return fmt.Errorf("%w: zone %q: %w", ErrInvalidInput, req.Zone.ID, err)
	}
	return nil
}

// collides reports whether a canopy of diameter d at pt would come closer
// than the mean of both diameters to any existing tree. The check spans
// the whole stand, not only trees inside the current zone.
func collides(pt orb.Point, d float64, existing []Tree) bool {
	for _, t := range existing {
		if planar.Distance(pt, t.Location) < (t.Diameter+d)/2 {
			return true
		}
	}
	return false
}

func obstructed(c geo.Circle, layers []Obstacles) bool {
	for _, l := range layers {
		if l != nil && l.IntersectsCircle(c) {
			return true
		}
	}
	return false
}
