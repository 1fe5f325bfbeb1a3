package planting

import (
	"fmt"

	"github.com/oukawa/ICALON-UMEP/pkg/geo"
	"github.com/oukawa/ICALON-UMEP/pkg/project"
	"github.com/oukawa/ICALON-UMEP/pkg/validation"
)

const (
	// DefaultHeightThreshold marks trees shorter than this (m) for replacement.
	DefaultHeightThreshold = project.DefaultHeightThreshold
	// DefaultFailureLimit stops augmentation after this many consecutive failures.
	DefaultFailureLimit = project.DefaultFailureLimit
)

// Plan is the fixed input shared by the replacement and augmentation passes.
type Plan struct {
	// PublicSpaces are searched for the zone that holds a replaced tree.
	PublicSpaces []geo.Zone
	// PlantingZones are drawn from at random when no home zone applies.
	PlantingZones []geo.Zone
	Obstacles     []Obstacles
	Tiers         []SizeTier
	MaxAttempts   int

	// NewTreeType is the tree type code given to trees added by Augment.
	NewTreeType int
}

// ReplaceResult summarizes a replacement pass.
type ReplaceResult struct {
	Candidates int      `json:"candidates"`
	Replaced   int      `json:"replaced"`
	Kept       []string `json:"kept,omitempty"`
}

// AugmentResult summarizes an augmentation pass.
type AugmentResult struct {
	Target       int  `json:"target"`
	Placed       int  `json:"placed"`
	Iterations   int  `json:"iterations"`
	StoppedEarly bool `json:"stopped_early"`
}

// ReplaceSmall replaces every tree shorter than threshold with a tree
// sized from the tiers, placed in the public space holding the old tree or,
// failing that, in a random planting zone. The replaced tree keeps its ID.
// Trees that cannot be replaced are left as they are.
func ReplaceSmall(stand *Stand, plan Plan, threshold float64, rng Source) (ReplaceResult, *validation.Report) {
	report := validation.NewReport()
	var res ReplaceResult

	n := stand.Len()
	for i := 0; i < n; i++ {
		old := stand.At(i)
		// Trees with no recorded height are left alone.
		if old.Height <= 0 || old.Height >= threshold {
			continue
		}
		res.Candidates++

		zone, ok := homeZone(old, plan, rng)
		if !ok {
			addNoZones(report)
			return res, report
		}

		p, placed, err := Place(Request{
			Zone:        zone,
			Existing:    stand.SnapshotExcept(i),
			Obstacles:   plan.Obstacles,
			Tiers:       plan.Tiers,
			MaxAttempts: plan.MaxAttempts,
		}, rng)
		if err != nil {
			addAborted(report, "replacement", old.ID, err)
			return res, report
		}
		if !placed {
			res.Kept = append(res.Kept, old.ID)
			continue
		}

		nt := old.WithSize(p.Location, p.Size)
		nt.Origin = OriginReplacement
		stand.Replace(i, nt)
		res.Replaced++
	}

	report.AddInfo(validation.Result{
		Level:   validation.LevelSpatial,
		Message: fmt.Sprintf("replaced %d of %d trees shorter than %.1f m",
			res.Replaced, res.Candidates, threshold),
	})
	if len(res.Kept) > 0 {
		report.AddWarning(validation.Result{
			Level:       validation.LevelSpatial,
			Message:     fmt.Sprintf("%d trees could not be replaced and were kept", len(res.Kept)),
			ActualValue: len(res.Kept),
		})
	}
	return res, report
}

// Augment adds up to target new trees, each in a randomly chosen planting
// zone. It stops early once failureLimit placements in a row have failed
// and reports the shortfall as a warning.
func Augment(stand *Stand, plan Plan, target, failureLimit int, rng Source) (AugmentResult, *validation.Report) {
	report := validation.NewReport()
	res := AugmentResult{Target: target}
	if len(plan.PlantingZones) == 0 {
		addNoZones(report)
		return res, report
	}

	failures := 0
	for i := 0; i < target; i++ {
		res.Iterations++
		zone := pickZone(plan.PlantingZones, rng)

		p, placed, err := Place(Request{
			Zone:        zone,
			Existing:    stand.Snapshot(),
			Obstacles:   plan.Obstacles,
			Tiers:       plan.Tiers,
			MaxAttempts: plan.MaxAttempts,
		}, rng)
		if err != nil {
			addAborted(report, "augmentation", zone.ID, err)
			return res, report
		}
		if !placed {
			failures++
			if failureLimit > 0 && failures >= failureLimit {
				res.StoppedEarly = true
				break
			}
			continue
		}

		failures = 0
		stand.Add(Tree{
			ID:     fmt.Sprintf("tree_new_%05d", stand.Added()),
			Origin: OriginNew,
			Type:   plan.NewTreeType,
		}.WithSize(p.Location, p.Size))
		res.Placed++
	}

	if res.StoppedEarly {
		report.AddWarning(validation.Result{
			Level:   validation.LevelSpatial,
			Message: fmt.Sprintf("stopped early after %d consecutive failures: placed %d of %d new trees",
				failureLimit, res.Placed, res.Target),
			ActualValue: res.Placed,
			Expected:    fmt.Sprintf("%d", res.Target),
			Suggestions: []string{
				"Add vacant lots to the planting zones",
				"Raise max_attempts or failure_limit",
			},
		})
	} else {
		report.AddInfo(validation.Result{
			Level:   validation.LevelSpatial,
			Message: fmt.Sprintf("placed %d of %d new trees", res.Placed, res.Target),
		})
	}
	return res, report
}

// homeZone returns the first public space containing the tree, or a random
// planting zone.
func homeZone(t Tree, plan Plan, rng Source) (geo.Zone, bool) {
	for _, z := range plan.PublicSpaces {
		if z.Contains(t.Location) {
			return z, true
		}
	}
	if len(plan.PlantingZones) == 0 {
		return geo.Zone{}, false
	}
	return pickZone(plan.PlantingZones, rng), true
}

func pickZone(zones []geo.Zone, rng Source) geo.Zone {
	i := int(rng.Float64() * float64(len(zones)))
	if i >= len(zones) {
		i = len(zones) - 1
	}
	return zones[i]
}

func addNoZones(report *validation.Report) {
	report.AddError(validation.Result{
		Level:       validation.LevelSpatial,
		Message:     "no planting zones available",
		ConfigPath:  "layers.public_spaces",
		Suggestions: []string{"Check that the planting space layer contains polygons"},
	})
}

func addAborted(report *validation.Report, pass, id string, err error) {
	report.AddError(validation.Result{
		Level:   validation.LevelSpatial,
		Message: fmt.Sprintf("%s pass aborted at %s: %v", pass, id, err),
	})
}
