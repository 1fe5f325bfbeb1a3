package analytics

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/oukawa/ICALON-UMEP/pkg/geo"
	"github.com/oukawa/ICALON-UMEP/pkg/planting"
)

const tolerance = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func tree(id string, d, h float64) planting.Tree {
	return planting.Tree{ID: id, Diameter: d, Height: h, TrunkHeight: h / 4, Origin: planting.OriginExisting}
}

func TestDescribeEmpty(t *testing.T) {
	s := Describe(nil, 5)
	if s != (StandStats{}) {
		t.Errorf("Describe(nil) = %+v, want zero value", s)
	}
}

func TestDescribe(t *testing.T) {
	trees := []planting.Tree{
		tree("a", 6, 12),
		tree("b", 2, 3),
		tree("c", 4, 8),
	}
	s := Describe(trees, 5)

	if s.Count != 3 {
		t.Errorf("Count = %d, want 3", s.Count)
	}
	wantArea := math.Pi * (9 + 1 + 4)
	if !approxEqual(s.CanopyAreaM2, wantArea) {
		t.Errorf("CanopyAreaM2 = %f, want %f", s.CanopyAreaM2, wantArea)
	}
	if !approxEqual(s.MeanDiameter, 4) {
		t.Errorf("MeanDiameter = %f, want 4", s.MeanDiameter)
	}
	// Sample standard deviation of {2, 4, 6}.
	if !approxEqual(s.StdDiameter, 2) {
		t.Errorf("StdDiameter = %f, want 2", s.StdDiameter)
	}
	if !approxEqual(s.MedianDiameter, 4) {
		t.Errorf("MedianDiameter = %f, want 4", s.MedianDiameter)
	}
	if !approxEqual(s.MeanHeight, 23.0/3) {
		t.Errorf("MeanHeight = %f, want %f", s.MeanHeight, 23.0/3)
	}
	if !approxEqual(s.MedianHeight, 8) {
		t.Errorf("MedianHeight = %f, want 8", s.MedianHeight)
	}
	if s.ShortTrees != 1 {
		t.Errorf("ShortTrees = %d, want 1", s.ShortTrees)
	}
}

func TestDescribeDoesNotReorderInput(t *testing.T) {
	trees := []planting.Tree{tree("a", 6, 12), tree("b", 2, 3)}
	Describe(trees, 5)
	if trees[0].ID != "a" || trees[1].ID != "b" {
		t.Errorf("input reordered: %s, %s", trees[0].ID, trees[1].ID)
	}
}

func TestSummarizeGain(t *testing.T) {
	before := []planting.Tree{tree("a", 2, 3), tree("b", 2, 3)}
	after := []planting.Tree{tree("a", 4, 8), tree("b", 2, 3), tree("n", 4, 8)}
	zones := []geo.Zone{
		geo.NewZone("z", geo.ZonePublicSpace, orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}),
	}
	out := Outcome{
		Replace: planting.ReplaceResult{Candidates: 2, Replaced: 1, Kept: []string{"b"}},
		Augment: planting.AugmentResult{Target: 2, Placed: 1, Iterations: 2},
	}

	s, report := Summarize(before, after, zones, out, 5)
	if !report.Valid {
		t.Fatalf("report invalid: %+v", report.Errors)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", report.Warnings)
	}
	if s.Replaced != 1 || s.Added != 1 || s.Target != 2 {
		t.Errorf("counters = %d/%d/%d, want 1/1/2", s.Replaced, s.Added, s.Target)
	}
	if !approxEqual(s.ZoneAreaM2, 100) {
		t.Errorf("ZoneAreaM2 = %f, want 100", s.ZoneAreaM2)
	}

	wantBefore := 2 * math.Pi
	wantAfter := math.Pi * (4 + 1 + 4)
	if !approxEqual(s.CanopyGainM2, wantAfter-wantBefore) {
		t.Errorf("CanopyGainM2 = %f, want %f", s.CanopyGainM2, wantAfter-wantBefore)
	}
	if !approxEqual(s.CanopyGainPct, 350) {
		t.Errorf("CanopyGainPct = %f, want 350", s.CanopyGainPct)
	}
	if !approxEqual(s.CanopyPerZone, wantAfter/100) {
		t.Errorf("CanopyPerZone = %f, want %f", s.CanopyPerZone, wantAfter/100)
	}
}

func TestSummarizeWarnsOnCanopyLoss(t *testing.T) {
	before := []planting.Tree{tree("a", 6, 12)}
	after := []planting.Tree{tree("a", 2, 12)}

	s, report := Summarize(before, after, nil, Outcome{}, 5)
	if s.CanopyGainM2 >= 0 {
		t.Errorf("CanopyGainM2 = %f, want negative", s.CanopyGainM2)
	}
	if len(report.Warnings) != 1 {
		t.Errorf("warnings = %d, want 1", len(report.Warnings))
	}
	if s.CanopyPerZone != 0 {
		t.Errorf("CanopyPerZone = %f, want 0 without zones", s.CanopyPerZone)
	}
}

func TestSummarizeEmptyBefore(t *testing.T) {
	s, _ := Summarize(nil, []planting.Tree{tree("n", 2, 6)}, nil, Outcome{}, 5)
	if s.CanopyGainPct != 0 {
		t.Errorf("CanopyGainPct = %f, want 0 with no starting canopy", s.CanopyGainPct)
	}
}
