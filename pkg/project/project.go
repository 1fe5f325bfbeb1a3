package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the project file looked up by LoadProject.
const FileName = "treeplanter.yaml"

// Planting defaults. The planting package exports the same values under
// the same names.
const (
	DefaultMaxAttempts     = 50
	DefaultHeightThreshold = 5.0
	DefaultFailureLimit    = 10
	DefaultNewTreeType     = 1
)

// DefaultPercentiles runs from the 80th down to the 20th percentile in
// steps of 5, so tier 0 is the largest.
var DefaultPercentiles = []float64{
	0.80, 0.75, 0.70, 0.65,
	0.60, 0.55, 0.50, 0.45,
	0.40, 0.35, 0.30, 0.25,
	0.20,
}

// Load reads a project from a YAML file and applies defaults.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing project YAML: %w", err)
	}

	p.Dir = filepath.Dir(path)
	p.ApplyDefaults()
	return &p, nil
}

// LoadProject loads a project from a project directory.
// It looks for treeplanter.yaml in the given directory.
func LoadProject(projectDir string) (*Project, error) {
	return Load(filepath.Join(projectDir, FileName))
}

// ApplyDefaults fills unset fields with the values the planting and
// processing runs were tuned with.
func (p *Project) ApplyDefaults() {
	if p.Scenario == "" {
		p.Scenario = ScenarioPublicOnly
	}
	if p.Layers.Output == "" {
		p.Layers.Output = "Trees_{scenario}.geojson"
	}

	a := &p.Attributes
	if a.Diameter == "" {
		a.Diameter = "diameter"
	}
	if a.Height == "" {
		a.Height = "height"
	}
	if a.TrunkHeight == "" {
		a.TrunkHeight = "trunk_height"
	}
	if a.TreeType == "" {
		a.TreeType = "tree_type"
	}
	if a.ID == "" {
		a.ID = "id"
	}

	pl := &p.Planting
	if pl.Percentiles == nil {
		pl.Percentiles = append([]float64(nil), DefaultPercentiles...)
	}
	if pl.MaxAttempts == 0 {
		pl.MaxAttempts = DefaultMaxAttempts
	}
	if pl.HeightThreshold == 0 {
		pl.HeightThreshold = DefaultHeightThreshold
	}
	if pl.FailureLimit == 0 {
		pl.FailureLimit = DefaultFailureLimit
	}
	if pl.NewTreeType == 0 {
		pl.NewTreeType = DefaultNewTreeType
	}

	pr := &p.Processing
	if pr.QGISProcess == "" {
		pr.QGISProcess = "qgis_process"
	}
	if pr.Resolution == 0 {
		pr.Resolution = 2
	}
	if pr.Season == "" {
		pr.Season = "summer"
	}
	if pr.Clusters == nil {
		pr.Clusters = []string{"C1", "C2", "C3"}
	}
	if pr.LeafStart == 0 && pr.LeafEnd == 0 {
		// Southern hemisphere leaf-on period.
		pr.LeafStart, pr.LeafEnd = 280, 120
	}
	c := &pr.Comfort
	if c.Clothing == 0 {
		c.Clothing = 0.9
	}
	if c.Activity == 0 {
		c.Activity = 80
	}
	if c.Age == 0 {
		c.Age = 35
	}
	if c.HeightCM == 0 {
		c.HeightCM = 180
	}
	if c.WeightKG == 0 {
		c.WeightKG = 75
	}
}

// Path resolves a project-relative path. Empty stays empty.
func (p *Project) Path(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Dir, rel)
}

// OutputPath returns the resolved output layer path for the project scenario.
func (p *Project) OutputPath() string {
	return p.Path(strings.ReplaceAll(p.Layers.Output, "{scenario}", string(p.Scenario)))
}
