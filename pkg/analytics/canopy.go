package analytics

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/oukawa/ICALON-UMEP/pkg/geo"
	"github.com/oukawa/ICALON-UMEP/pkg/planting"
	"github.com/oukawa/ICALON-UMEP/pkg/validation"
)

// StandStats describes the size distribution of a tree population.
type StandStats struct {
	Count          int     `json:"count"`
	CanopyAreaM2   float64 `json:"canopy_area_m2"`
	MeanDiameter   float64 `json:"mean_diameter"`
	StdDiameter    float64 `json:"std_diameter"`
	MedianDiameter float64 `json:"median_diameter"`
	MeanHeight     float64 `json:"mean_height"`
	MedianHeight   float64 `json:"median_height"`
	ShortTrees     int     `json:"short_trees"`
}

// Summary compares a stand before and after a planting run.
type Summary struct {
	Before        StandStats `json:"before"`
	After         StandStats `json:"after"`
	Replaced      int        `json:"replaced"`
	Added         int        `json:"added"`
	Target        int        `json:"target"`
	ZoneAreaM2    float64    `json:"zone_area_m2"`
	CanopyGainM2  float64    `json:"canopy_gain_m2"`
	CanopyGainPct float64    `json:"canopy_gain_pct"`
	CanopyPerZone float64    `json:"canopy_per_zone_area"`
}

// Describe computes size statistics. Trees shorter than shortBelow are
// counted as short.
func Describe(trees []planting.Tree, shortBelow float64) StandStats {
	s := StandStats{Count: len(trees)}
	if len(trees) == 0 {
		return s
	}

	diameters := make([]float64, len(trees))
	heights := make([]float64, len(trees))
	for i, t := range trees {
		diameters[i] = t.Diameter
		heights[i] = t.Height
		s.CanopyAreaM2 += t.CanopyArea()
		if t.Height < shortBelow {
			s.ShortTrees++
		}
	}

	s.MeanDiameter, s.StdDiameter = stat.MeanStdDev(diameters, nil)
	s.MeanHeight = stat.Mean(heights, nil)

	sort.Float64s(diameters)
	sort.Float64s(heights)
	s.MedianDiameter = stat.Quantile(0.5, stat.Empirical, diameters, nil)
	s.MedianHeight = stat.Quantile(0.5, stat.Empirical, heights, nil)
	return s
}

// Outcome carries the pass counters Summarize reports on.
type Outcome struct {
	Replace planting.ReplaceResult
	Augment planting.AugmentResult
}

// Summarize compares the stand before and after a run. zones are the
// planting zones the run drew from.
func Summarize(before, after []planting.Tree, zones []geo.Zone, out Outcome, shortBelow float64) (*Summary, *validation.Report) {
	report := validation.NewReport()

	s := &Summary{
		Before:   Describe(before, shortBelow),
		After:    Describe(after, shortBelow),
		Replaced: out.Replace.Replaced,
		Added:    out.Augment.Placed,
		Target:   out.Augment.Target,
	}
	for _, z := range zones {
		s.ZoneAreaM2 += z.Area()
	}

	s.CanopyGainM2 = s.After.CanopyAreaM2 - s.Before.CanopyAreaM2
	if s.Before.CanopyAreaM2 > 0 {
		s.CanopyGainPct = 100 * s.CanopyGainM2 / s.Before.CanopyAreaM2
	}
	if s.ZoneAreaM2 > 0 {
		s.CanopyPerZone = s.After.CanopyAreaM2 / s.ZoneAreaM2
	}

	report.AddInfo(validation.Result{
		Level: validation.LevelAnalytical,
		Message: fmt.Sprintf("canopy area %.0f m² -> %.0f m² (%+.1f%%), %d trees -> %d",
			s.Before.CanopyAreaM2, s.After.CanopyAreaM2, s.CanopyGainPct, s.Before.Count, s.After.Count),
	})
	if s.CanopyGainM2 < 0 {
		report.AddWarning(validation.Result{
			Level:       validation.LevelAnalytical,
			Message:     "total canopy area decreased",
			ActualValue: s.CanopyGainM2,
			Suggestions: []string{"Check that the size percentiles select trees larger than the ones replaced"},
		})
	}
	if s.After.ShortTrees > 0 {
		report.AddInfo(validation.Result{
			Level:   validation.LevelAnalytical,
			Message: fmt.Sprintf("%d trees remain shorter than %.1f m", s.After.ShortTrees, shortBelow),
		})
	}
	return s, report
}
