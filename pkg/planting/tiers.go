package planting

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/oukawa/ICALON-UMEP/pkg/project"
)

// DefaultPercentiles indexes the sorted population from the 80th down to
// the 20th percentile in steps of 5, so tier 0 is the largest. It is the
// slice a project starts from, so treat it as read-only.
var DefaultPercentiles = project.DefaultPercentiles

// SizeTier is a matched (diameter, height, trunk height) triple sampled
// from one tree of the source population.
type SizeTier struct {
	Diameter    float64 `json:"diameter" yaml:"diameter"`
	Height      float64 `json:"height" yaml:"height"`
	TrunkHeight float64 `json:"trunk_height" yaml:"trunk_height"`
}

// Validate checks that the triple describes a plantable tree.
func (s SizeTier) Validate() error {
	switch {
	case !(s.Diameter > 0):
		return fmt.Errorf("diameter must be positive (got %v)", s.Diameter)
	case !(s.Height > 0):
		return fmt.Errorf("height must be positive (got %v)", s.Height)
	case s.TrunkHeight < 0 || s.TrunkHeight > s.Height:
		return fmt.Errorf("trunk height must be in [0, height] (got %v for height %v)", s.TrunkHeight, s.Height)
	}
	return nil
}

// ComputeTiers derives the size tiers for a run from a snapshot of the
// initial population. Trees whose size triple does not validate are left
// out. The rest are sorted by diameter (stable, so ties keep
// population order) and each percentile p selects the tree at index
// int(p*(n-1)). Its full triple becomes one tier, in percentile order.
func ComputeTiers(population []Tree, percentiles []float64) ([]SizeTier, error) {
	if len(population) == 0 {
		return nil, errors.New("computing size tiers: empty population")
	}
	if len(percentiles) == 0 {
		return nil, errors.New("computing size tiers: no percentiles")
	}

	sorted := make([]Tree, 0, len(population))
	for _, t := range population {
		if t.Size().Validate() == nil {
			sorted = append(sorted, t)
		}
	}
	if len(sorted) == 0 {
		return nil, errors.New("computing size tiers: no tree has a valid size")
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Diameter < sorted[j].Diameter
	})

	last := len(sorted) - 1
	tiers := make([]SizeTier, 0, len(percentiles))
	for _, p := range percentiles {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return nil, fmt.Errorf("computing size tiers: percentile %v outside [0, 1]", p)
		}
		tiers = append(tiers, sorted[int(p*float64(last))].Size())
	}
	return tiers, nil
}

// TierIndex returns the tier used on the given attempt: attempts walk down
// the tiers one per attempt and then stay on the smallest.
func TierIndex(attempt, tierCount int) int {
	if attempt < tierCount-1 {
		return attempt
	}
	return tierCount - 1
}
