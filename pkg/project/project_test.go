package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProject(t *testing.T) {
	p, err := LoadProject("../../examples/default-project")
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}

	if p.Version != 1 {
		t.Errorf("version = %d, want 1", p.Version)
	}
	if p.Scenario != ScenarioPublicOnly {
		t.Errorf("scenario = %q, want %q", p.Scenario, ScenarioPublicOnly)
	}
	if p.Seed == nil || *p.Seed != 20241001 {
		t.Errorf("seed = %v, want 20241001", p.Seed)
	}
	if p.Layers.Trees != "Trees.geojson" {
		t.Errorf("layers.trees = %q", p.Layers.Trees)
	}
	if len(p.Planting.Percentiles) != 13 {
		t.Errorf("percentiles count = %d, want 13", len(p.Planting.Percentiles))
	}
	if p.Planting.Percentiles[0] != 0.8 || p.Planting.Percentiles[12] != 0.2 {
		t.Errorf("percentiles = %v", p.Planting.Percentiles)
	}
	if p.Planting.MaxAttempts != 50 {
		t.Errorf("max_attempts = %d, want 50", p.Planting.MaxAttempts)
	}
	if p.Processing.Resolution != 2 || p.Processing.Season != "summer" {
		t.Errorf("processing = %d m %s", p.Processing.Resolution, p.Processing.Season)
	}
	if len(p.Processing.Clusters) != 3 {
		t.Errorf("clusters = %v", p.Processing.Clusters)
	}
	if p.Processing.UTCOffset != -3 {
		t.Errorf("utc_offset = %d, want -3", p.Processing.UTCOffset)
	}
}

func TestLoadProjectMissing(t *testing.T) {
	_, err := LoadProject("/nonexistent/path")
	if err == nil {
		t.Error("expected error for missing project directory")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("planting: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProject(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("version: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}

	if p.Scenario != ScenarioPublicOnly {
		t.Errorf("default scenario = %q", p.Scenario)
	}
	if p.Seed != nil {
		t.Error("seed should stay unset")
	}
	if p.Attributes.Diameter != "diameter" || p.Attributes.TrunkHeight != "trunk_height" {
		t.Errorf("default attributes = %+v", p.Attributes)
	}
	if p.Planting.MaxAttempts != 50 || p.Planting.FailureLimit != 10 || p.Planting.HeightThreshold != 5 {
		t.Errorf("default planting = %+v", p.Planting)
	}
	if p.Processing.LeafStart != 280 || p.Processing.LeafEnd != 120 {
		t.Errorf("default leaf period = %d-%d", p.Processing.LeafStart, p.Processing.LeafEnd)
	}
	if p.Processing.Comfort.Clothing != 0.9 || p.Processing.Comfort.Age != 35 {
		t.Errorf("default comfort = %+v", p.Processing.Comfort)
	}
}

func TestApplyDefaultsCopiesPercentiles(t *testing.T) {
	p := &Project{}
	p.ApplyDefaults()
	p.Planting.Percentiles[0] = 0.99

	if DefaultPercentiles[0] != 0.80 {
		t.Errorf("editing a project's percentiles changed the default to %v", DefaultPercentiles[0])
	}
}

func TestPaths(t *testing.T) {
	p := &Project{Dir: "/data/run", Scenario: ScenarioWithVacant}
	p.ApplyDefaults()

	if got := p.Path("Trees.geojson"); got != filepath.Join("/data/run", "Trees.geojson") {
		t.Errorf("Path(relative) = %q", got)
	}
	if got := p.Path("/abs/Trees.geojson"); got != "/abs/Trees.geojson" {
		t.Errorf("Path(absolute) = %q", got)
	}
	if got := p.Path(""); got != "" {
		t.Errorf("Path(empty) = %q", got)
	}
	if got := p.OutputPath(); got != filepath.Join("/data/run", "Trees_with_vacant.geojson") {
		t.Errorf("OutputPath() = %q", got)
	}
}
