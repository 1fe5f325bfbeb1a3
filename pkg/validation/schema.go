package validation

import (
	"fmt"

	"github.com/oukawa/ICALON-UMEP/pkg/project"
)

// ValidateProject performs schema validation on a loaded project.
// It checks structural correctness before any layer is read.
func ValidateProject(p *project.Project) *Report {
	r := NewReport()

	validateScenario(p, r)
	validateLayers(p, r)
	validateAttributes(p, r)
	validatePlanting(p, r)
	validateProcessing(p, r)

	return r
}

func validateScenario(p *project.Project, r *Report) {
	switch p.Scenario {
	case project.ScenarioPublicOnly:
	case project.ScenarioWithVacant:
		if p.Layers.VacantLots == "" {
			r.AddError(Result{
				Level:        LevelSchema,
				Message:      "scenario with_vacant requires a vacant lot layer",
				ConfigPath:   "layers.vacant_lots",
				ConflictWith: "scenario",
			})
		}
	default:
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("unknown scenario %q", p.Scenario),
			ConfigPath:  "scenario",
			ActualValue: p.Scenario,
			Expected:    "public_only or with_vacant",
		})
	}
}

func validateLayers(p *project.Project, r *Report) {
	required := []struct {
		path, value string
	}{
		{"layers.trees", p.Layers.Trees},
		{"layers.public_spaces", p.Layers.PublicSpaces},
		{"layers.output", p.Layers.Output},
	}
	for _, l := range required {
		if l.value == "" {
			r.AddError(Result{
				Level:      LevelSchema,
				Message:    fmt.Sprintf("%s must be set", l.path),
				ConfigPath: l.path,
			})
		}
	}

	if p.Layers.Buildings == "" {
		r.AddWarning(Result{
			Level:      LevelSchema,
			Message:    "no building layer: footprints are not checked against buildings",
			ConfigPath: "layers.buildings",
		})
	}
	if p.Layers.PowerLines == "" {
		r.AddWarning(Result{
			Level:      LevelSchema,
			Message:    "no power line layer: footprints are not checked against power lines",
			ConfigPath: "layers.power_lines",
		})
	}
}

func validateAttributes(p *project.Project, r *Report) {
	a := p.Attributes
	for path, name := range map[string]string{
		"attributes.diameter":     a.Diameter,
		"attributes.height":       a.Height,
		"attributes.trunk_height": a.TrunkHeight,
	} {
		if name == "" {
			r.AddError(Result{
				Level:      LevelSchema,
				Message:    fmt.Sprintf("%s must name a feature property", path),
				ConfigPath: path,
			})
		}
	}
}

func validatePlanting(p *project.Project, r *Report) {
	pl := p.Planting

	if len(pl.Percentiles) == 0 {
		r.AddError(Result{
			Level:      LevelSchema,
			Message:    "planting.percentiles must contain at least one percentile",
			ConfigPath: "planting.percentiles",
		})
	}
	for i, q := range pl.Percentiles {
		if q < 0 || q > 1 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("planting.percentiles[%d] %.2f is outside [0, 1]", i, q),
				ConfigPath:  fmt.Sprintf("planting.percentiles[%d]", i),
				ActualValue: q,
				Expected:    "0-1",
			})
		}
		if i > 0 && q > pl.Percentiles[i-1] {
			r.AddWarning(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("planting.percentiles[%d] %.2f is larger than the one before it", i, q),
				ConfigPath:  fmt.Sprintf("planting.percentiles[%d]", i),
				ActualValue: q,
				Suggestions: []string{"List percentiles in descending order so the largest trees are tried first"},
			})
		}
	}

	if pl.MaxAttempts <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "planting.max_attempts must be > 0",
			ConfigPath:  "planting.max_attempts",
			ActualValue: pl.MaxAttempts,
			Expected:    "> 0",
		})
	} else if pl.MaxAttempts < len(pl.Percentiles) {
		r.AddWarning(Result{
			Level:        LevelSchema,
			Message:      fmt.Sprintf("max_attempts %d is below the tier count %d: the smallest tiers are never tried", pl.MaxAttempts, len(pl.Percentiles)),
			ConfigPath:   "planting.max_attempts",
			ActualValue:  pl.MaxAttempts,
			ConflictWith: "planting.percentiles",
		})
	}

	if pl.FailureLimit <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "planting.failure_limit must be > 0",
			ConfigPath:  "planting.failure_limit",
			ActualValue: pl.FailureLimit,
			Expected:    "> 0",
		})
	}
	if pl.HeightThreshold <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "planting.height_threshold must be > 0",
			ConfigPath:  "planting.height_threshold",
			ActualValue: pl.HeightThreshold,
			Expected:    "> 0",
		})
	}
	if pl.Target < 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "planting.target must be >= 0",
			ConfigPath:  "planting.target",
			ActualValue: pl.Target,
			Expected:    ">= 0 (0 = size of the original population)",
		})
	}
}

func validateProcessing(p *project.Project, r *Report) {
	pr := p.Processing

	if pr.Resolution != 2 && pr.Resolution != 10 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("processing.resolution %d m is not supported", pr.Resolution),
			ConfigPath:  "processing.resolution",
			ActualValue: pr.Resolution,
			Expected:    "2 or 10",
		})
	}
	if pr.Season != "winter" && pr.Season != "summer" {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("unknown season %q", pr.Season),
			ConfigPath:  "processing.season",
			ActualValue: pr.Season,
			Expected:    "winter or summer",
		})
	}
	if len(pr.Clusters) == 0 {
		r.AddError(Result{
			Level:      LevelSchema,
			Message:    "processing.clusters must name at least one meteorological cluster",
			ConfigPath: "processing.clusters",
		})
	}
	for _, d := range []struct {
		path string
		day  int
	}{
		{"processing.leaf_start", pr.LeafStart},
		{"processing.leaf_end", pr.LeafEnd},
	} {
		if d.day < 1 || d.day > 366 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s must be a day of year", d.path),
				ConfigPath:  d.path,
				ActualValue: d.day,
				Expected:    "1-366",
			})
		}
	}
	if pr.UTCOffset < -12 || pr.UTCOffset > 14 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("processing.utc_offset %d is outside -12..14", pr.UTCOffset),
			ConfigPath:  "processing.utc_offset",
			ActualValue: pr.UTCOffset,
			Expected:    "-12..14",
		})
	}
}
