// Package scenario runs a complete planting scenario for a project: it reads
// the input layers, computes size tiers, replaces small trees, adds new
// ones and writes the resulting tree layer.
package scenario

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/oukawa/ICALON-UMEP/pkg/analytics"
	"github.com/oukawa/ICALON-UMEP/pkg/geo"
	"github.com/oukawa/ICALON-UMEP/pkg/layers"
	"github.com/oukawa/ICALON-UMEP/pkg/planting"
	"github.com/oukawa/ICALON-UMEP/pkg/project"
	"github.com/oukawa/ICALON-UMEP/pkg/validation"
)

var (
	// ErrInvalidProject is returned when the project fails schema validation.
	ErrInvalidProject = errors.New("project has validation errors")
	// ErrPlanting is returned when a planting pass aborts.
	ErrPlanting = errors.New("planting run failed")
)

// Options override project settings for a single run.
type Options struct {
	// Seed fixes the random stream. Nil falls back to the project seed,
	// then to a fresh random seed.
	Seed *uint64
	// Scenario overrides the project scenario when set.
	Scenario project.Scenario
	// NoWrite skips writing the output layer.
	NoWrite bool
}

// Inputs are the layers a run reads.
type Inputs struct {
	Trees        []planting.Tree
	PublicSpaces []geo.Zone
	VacantLots   []geo.Zone
	Obstacles    []*geo.Layer
}

// PlantingZones returns the zones new trees may be drawn into.
func (in *Inputs) PlantingZones(s project.Scenario) []geo.Zone {
	zones := make([]geo.Zone, 0, len(in.PublicSpaces)+len(in.VacantLots))
	zones = append(zones, in.PublicSpaces...)
	if s == project.ScenarioWithVacant {
		zones = append(zones, in.VacantLots...)
	}
	return zones
}

// Result is the outcome of a run.
type Result struct {
	Scenario   project.Scenario       `json:"scenario"`
	Seed       uint64                 `json:"seed"`
	Tiers      []planting.SizeTier    `json:"tiers"`
	Replace    planting.ReplaceResult `json:"replace"`
	Augment    planting.AugmentResult `json:"augment"`
	Summary    *analytics.Summary     `json:"summary"`
	OutputPath string                 `json:"output_path,omitempty"`
	Trees      []planting.Tree        `json:"-"`
}

// NewRand returns the deterministic random stream used for a seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Configure applies opts to a copy of p.
func Configure(p *project.Project, opts Options) *project.Project {
	q := *p
	if opts.Scenario != "" {
		q.Scenario = opts.Scenario
	}
	return &q
}

// LoadInputs reads the tree, zone and obstacle layers of p. Vacant lots are
// only read for the with_vacant scenario.
func LoadInputs(p *project.Project) (*Inputs, *validation.Report, error) {
	report := validation.NewReport()
	in := &Inputs{}

	trees, r, err := layers.ReadTrees(p.Path(p.Layers.Trees), p.Attributes)
	if err != nil {
		return nil, report, err
	}
	report.Merge(r)
	in.Trees = trees

	in.PublicSpaces, r, err = layers.ReadZones(p.Path(p.Layers.PublicSpaces), geo.ZonePublicSpace, p.Attributes.ID)
	if err != nil {
		return nil, report, err
	}
	report.Merge(r)

	if p.Scenario == project.ScenarioWithVacant {
		in.VacantLots, r, err = layers.ReadZones(p.Path(p.Layers.VacantLots), geo.ZoneVacantLot, p.Attributes.ID)
		if err != nil {
			return nil, report, err
		}
		report.Merge(r)
	}

	for _, ob := range []struct{ name, path string }{
		{"buildings", p.Layers.Buildings},
		{"power_lines", p.Layers.PowerLines},
	} {
		if ob.path == "" {
			continue
		}
		layer, err := layers.ReadObstacles(p.Path(ob.path), ob.name)
		if err != nil {
			return nil, report, err
		}
		in.Obstacles = append(in.Obstacles, layer)
	}
	return in, report, nil
}

// Tiers computes the size tiers of the project's tree population. The
// report lists the trees left out for lacking a usable size.
func Tiers(p *project.Project) ([]planting.SizeTier, *validation.Report, error) {
	trees, report, err := layers.ReadTrees(p.Path(p.Layers.Trees), p.Attributes)
	if err != nil {
		return nil, validation.NewReport(), err
	}
	tiers, err := planting.ComputeTiers(trees, p.Planting.Percentiles)
	if err != nil {
		return nil, report, err
	}
	return tiers, report, nil
}

// Run executes the scenario. The returned report holds every finding of the
// run; the error is non-nil when the run could not complete.
func Run(p *project.Project, opts Options, log logrus.FieldLogger) (*Result, *validation.Report, error) {
	p = Configure(p, opts)

	report := validation.ValidateProject(p)
	if !report.Valid {
		return nil, report, ErrInvalidProject
	}

	seed := rand.Uint64()
	switch {
	case opts.Seed != nil:
		seed = *opts.Seed
	case p.Seed != nil:
		seed = *p.Seed
	}
	log = log.WithFields(logrus.Fields{"scenario": p.Scenario, "seed": seed})
	log.Info("starting planting run")

	in, r, err := LoadInputs(p)
	report.Merge(r)
	if err != nil {
		return nil, report, fmt.Errorf("loading layers: %w", err)
	}
	log.WithFields(logrus.Fields{
		"trees":         len(in.Trees),
		"public_spaces": len(in.PublicSpaces),
		"vacant_lots":   len(in.VacantLots),
		"obstacles":     len(in.Obstacles),
	}).Debug("layers loaded")

	tiers, err := planting.ComputeTiers(in.Trees, p.Planting.Percentiles)
	if err != nil {
		return nil, report, fmt.Errorf("computing size tiers: %w", err)
	}

	res := &Result{Scenario: p.Scenario, Seed: seed, Tiers: tiers}
	rng := NewRand(seed)
	plan := planting.Plan{
		PublicSpaces:  in.PublicSpaces,
		PlantingZones: in.PlantingZones(p.Scenario),
		Tiers:         tiers,
		MaxAttempts:   p.Planting.MaxAttempts,
		NewTreeType:   p.Planting.NewTreeType,
	}
	for _, l := range in.Obstacles {
		plan.Obstacles = append(plan.Obstacles, l)
	}

	stand := planting.NewStand(in.Trees)

	if !p.Planting.SkipReplacement {
		res.Replace, r = planting.ReplaceSmall(stand, plan, p.Planting.HeightThreshold, rng)
		report.Merge(r)
		if !r.Valid {
			return nil, report, fmt.Errorf("replacement pass: %w", ErrPlanting)
		}
		log.WithFields(logrus.Fields{
			"candidates": res.Replace.Candidates,
			"replaced":   res.Replace.Replaced,
		}).Info("replacement pass done")
	}

	target := p.Planting.Target
	if target == 0 {
		target = len(in.Trees)
	}
	res.Augment, r = planting.Augment(stand, plan, target, p.Planting.FailureLimit, rng)
	report.Merge(r)
	if !r.Valid {
		return nil, report, fmt.Errorf("augmentation pass: %w", ErrPlanting)
	}
	entry := log.WithFields(logrus.Fields{"placed": res.Augment.Placed, "target": res.Augment.Target})
	if res.Augment.StoppedEarly {
		entry.Warn("augmentation stopped early")
	} else {
		entry.Info("augmentation pass done")
	}

	res.Trees = stand.Trees()
	summary, r := analytics.Summarize(in.Trees, res.Trees, plan.PlantingZones, analytics.Outcome{
		Replace: res.Replace,
		Augment: res.Augment,
	}, p.Planting.HeightThreshold)
	report.Merge(r)
	res.Summary = summary

	if !opts.NoWrite {
		res.OutputPath = p.OutputPath()
		if err := layers.WriteTrees(res.OutputPath, res.Trees, p.Attributes); err != nil {
			return nil, report, err
		}
		log.WithField("path", res.OutputPath).Info("tree layer written")
	}
	return res, report, nil
}
