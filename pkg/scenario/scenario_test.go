package scenario

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/oukawa/ICALON-UMEP/pkg/geo"
	"github.com/oukawa/ICALON-UMEP/pkg/layers"
	"github.com/oukawa/ICALON-UMEP/pkg/planting"
	"github.com/oukawa/ICALON-UMEP/pkg/project"
)

const exampleDir = "../../examples/default-project"

func exampleProject(t *testing.T) *project.Project {
	t.Helper()
	p, err := project.LoadProject(exampleDir)
	if err != nil {
		t.Fatalf("loading example project: %v", err)
	}
	p.Layers.Output = filepath.Join(t.TempDir(), "Trees_{scenario}.geojson")
	return p
}

func seed(v uint64) *uint64 { return &v }

// exampleTopTier is the 80th percentile tree of the example population.
var exampleTopTier = planting.SizeTier{Diameter: 6.9, Height: 5.7, TrunkHeight: 1.3}

// unsizedSite is the centre of public space ps_003.
var unsizedSite = orb.Point{333030, 7394140}

// treesWithUnsized writes the example tree layer plus a wide tree whose
// trunk is taller than the tree, and returns the new layer's path.
func treesWithUnsized(t *testing.T) string {
	t.Helper()
	fc, err := layers.ReadCollection(filepath.Join(exampleDir, "Trees.geojson"))
	if err != nil {
		t.Fatalf("reading example trees: %v", err)
	}
	f := geojson.NewFeature(unsizedSite)
	f.Properties["id"] = "tree_bad"
	f.Properties["diameter"] = 30.0
	f.Properties["height"] = 6.0
	f.Properties["trunk_height"] = 7.0
	fc.Append(f)

	data, err := fc.MarshalJSON()
	if err != nil {
		t.Fatalf("encoding trees: %v", err)
	}
	path := filepath.Join(t.TempDir(), "Trees.geojson")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing trees: %v", err)
	}
	return path
}

func TestRunExampleProject(t *testing.T) {
	p := exampleProject(t)
	log, hook := test.NewNullLogger()

	res, report, err := Run(p, Options{Seed: seed(7)}, log)
	if err != nil {
		t.Fatalf("Run: %v (report: %+v)", err, report.Errors)
	}
	if !report.Valid {
		t.Fatalf("report invalid: %+v", report.Errors)
	}

	if res.Scenario != project.ScenarioPublicOnly {
		t.Errorf("Scenario = %q, want %q", res.Scenario, project.ScenarioPublicOnly)
	}
	if res.Seed != 7 {
		t.Errorf("Seed = %d, want 7", res.Seed)
	}
	if len(res.Tiers) != len(p.Planting.Percentiles) {
		t.Errorf("len(Tiers) = %d, want %d", len(res.Tiers), len(p.Planting.Percentiles))
	}
	if res.Augment.Target != 15 {
		t.Errorf("Augment.Target = %d, want the original population 15", res.Augment.Target)
	}
	if res.Augment.Placed == 0 {
		t.Error("no new trees placed")
	}
	if got, want := len(res.Trees), 15+res.Augment.Placed; got != want {
		t.Errorf("len(Trees) = %d, want %d", got, want)
	}

	ids := make(map[string]bool)
	for _, tr := range res.Trees {
		if ids[tr.ID] {
			t.Errorf("duplicate tree ID %s", tr.ID)
		}
		ids[tr.ID] = true
	}

	if filepath.Base(res.OutputPath) != "Trees_public_only.geojson" {
		t.Errorf("OutputPath = %s", res.OutputPath)
	}
	if _, err := os.Stat(res.OutputPath); err != nil {
		t.Errorf("output not written: %v", err)
	}
	if len(hook.AllEntries()) == 0 {
		t.Error("expected log entries")
	}
	if hook.LastEntry().Data["seed"] != uint64(7) {
		t.Errorf("log seed field = %v, want 7", hook.LastEntry().Data["seed"])
	}
}

func TestRunPlacedTreesRespectConstraints(t *testing.T) {
	p := exampleProject(t)
	p.Scenario = project.ScenarioWithVacant
	log, _ := test.NewNullLogger()

	res, _, err := Run(p, Options{Seed: seed(11), NoWrite: true}, log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	in, _, err := LoadInputs(p)
	if err != nil {
		t.Fatalf("LoadInputs: %v", err)
	}
	zones := in.PlantingZones(p.Scenario)

	for i, a := range res.Trees {
		if a.Origin == planting.OriginExisting {
			continue
		}
		inZone := false
		for _, z := range zones {
			if z.Contains(a.Location) {
				inZone = true
				break
			}
		}
		if !inZone {
			t.Errorf("%s at %v is outside every planting zone", a.ID, a.Location)
		}
		c := geo.Buffer(a.Location, a.Diameter/2)
		for _, l := range in.Obstacles {
			if l.IntersectsCircle(c) {
				t.Errorf("%s intersects obstacle layer %s", a.ID, l.Name)
			}
		}
		for j, b := range res.Trees {
			if i == j {
				continue
			}
			dist := math.Hypot(a.Location.X()-b.Location.X(), a.Location.Y()-b.Location.Y())
			if dist < (a.Diameter+b.Diameter)/2 {
				t.Errorf("%s and %s overlap: distance %.2f < %.2f", a.ID, b.ID, dist, (a.Diameter+b.Diameter)/2)
			}
		}
	}
}

func TestRunDeterministic(t *testing.T) {
	p := exampleProject(t)
	log, _ := test.NewNullLogger()

	first, _, err := Run(p, Options{Seed: seed(42), NoWrite: true}, log)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, _, err := Run(p, Options{Seed: seed(42), NoWrite: true}, log)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if diff := cmp.Diff(first.Trees, second.Trees); diff != "" {
		t.Errorf("same seed gave different trees (-first +second):\n%s", diff)
	}
}

func TestRunUsesProjectSeed(t *testing.T) {
	p := exampleProject(t)
	log, _ := test.NewNullLogger()

	res, _, err := Run(p, Options{NoWrite: true}, log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Seed != *p.Seed {
		t.Errorf("Seed = %d, want project seed %d", res.Seed, *p.Seed)
	}
	if res.OutputPath != "" {
		t.Errorf("OutputPath = %q with NoWrite", res.OutputPath)
	}
}

func TestRunScenarioOverride(t *testing.T) {
	p := exampleProject(t)
	log, _ := test.NewNullLogger()

	res, _, err := Run(p, Options{Seed: seed(3), Scenario: project.ScenarioWithVacant}, log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Scenario != project.ScenarioWithVacant {
		t.Errorf("Scenario = %q, want with_vacant", res.Scenario)
	}
	if filepath.Base(res.OutputPath) != "Trees_with_vacant.geojson" {
		t.Errorf("OutputPath = %s", res.OutputPath)
	}
	if p.Scenario != project.ScenarioPublicOnly {
		t.Errorf("override leaked into the project: %q", p.Scenario)
	}
}

func TestRunSkipReplacement(t *testing.T) {
	p := exampleProject(t)
	p.Planting.SkipReplacement = true
	log, _ := test.NewNullLogger()

	res, _, err := Run(p, Options{Seed: seed(5), NoWrite: true}, log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Replace.Candidates != 0 {
		t.Errorf("Replace.Candidates = %d, want 0", res.Replace.Candidates)
	}
	for _, tr := range res.Trees {
		if tr.Origin == planting.OriginReplacement {
			t.Errorf("%s replaced with replacement disabled", tr.ID)
		}
	}
}

func TestRunInvalidProject(t *testing.T) {
	p := exampleProject(t)
	p.Scenario = project.ScenarioWithVacant
	p.Layers.VacantLots = ""

	res, report, err := Run(p, Options{}, logrus.New())
	if !errors.Is(err, ErrInvalidProject) {
		t.Fatalf("err = %v, want ErrInvalidProject", err)
	}
	if res != nil {
		t.Error("expected nil result")
	}
	if report.Valid {
		t.Error("expected invalid report")
	}
}

func TestRunMissingLayer(t *testing.T) {
	p := exampleProject(t)
	p.Layers.Trees = "missing.geojson"
	log, _ := test.NewNullLogger()

	if _, _, err := Run(p, Options{Seed: seed(1)}, log); err == nil {
		t.Fatal("expected error for missing tree layer")
	}
}

func TestLoadInputsVacantOnlyWhenNeeded(t *testing.T) {
	p := exampleProject(t)

	in, _, err := LoadInputs(p)
	if err != nil {
		t.Fatalf("LoadInputs: %v", err)
	}
	if len(in.VacantLots) != 0 {
		t.Errorf("public_only loaded %d vacant lots", len(in.VacantLots))
	}
	if len(in.Obstacles) != 2 {
		t.Errorf("len(Obstacles) = %d, want 2", len(in.Obstacles))
	}

	p.Scenario = project.ScenarioWithVacant
	in, _, err = LoadInputs(p)
	if err != nil {
		t.Fatalf("LoadInputs: %v", err)
	}
	if len(in.VacantLots) != 2 {
		t.Errorf("len(VacantLots) = %d, want 2", len(in.VacantLots))
	}
	if got := len(in.PlantingZones(p.Scenario)); got != 5 {
		t.Errorf("len(PlantingZones) = %d, want 5", got)
	}
	if got := len(in.PlantingZones(project.ScenarioPublicOnly)); got != 3 {
		t.Errorf("public_only PlantingZones = %d, want 3", got)
	}
}

func TestTiers(t *testing.T) {
	p := exampleProject(t)

	tiers, report, err := Tiers(p)
	if err != nil {
		t.Fatalf("Tiers: %v", err)
	}
	// 15 trees: 0.8 selects index 11 of the diameter-sorted population.
	if tiers[0] != exampleTopTier {
		t.Errorf("tiers[0] = %+v, want %+v", tiers[0], exampleTopTier)
	}
	if report == nil || len(report.Warnings) != 0 {
		t.Errorf("expected a clean read report, got %+v", report)
	}
}

func TestTiersReportsUnsizedTrees(t *testing.T) {
	p := exampleProject(t)
	p.Layers.Trees = treesWithUnsized(t)

	tiers, report, err := Tiers(p)
	if err != nil {
		t.Fatalf("Tiers: %v", err)
	}
	if tiers[0] != exampleTopTier {
		t.Errorf("tiers[0] = %+v, want %+v: the unsized tree must not shift the tiers", tiers[0], exampleTopTier)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0].Message, "tree_bad") {
		t.Errorf("expected one warning naming tree_bad, got %+v", report.Warnings)
	}
}

func TestRunKeepsUnsizedTree(t *testing.T) {
	p := exampleProject(t)
	p.Layers.Trees = treesWithUnsized(t)
	log, _ := test.NewNullLogger()

	res, report, err := Run(p, Options{Seed: seed(21)}, log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Tiers[0] != exampleTopTier {
		t.Errorf("Tiers[0] = %+v, want %+v", res.Tiers[0], exampleTopTier)
	}
	if len(report.Warnings) == 0 {
		t.Error("expected a warning for the unsized tree")
	}

	out, _, err := layers.ReadTrees(res.OutputPath, p.Attributes)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	var bad *planting.Tree
	for i := range out {
		if out[i].ID == "tree_bad" {
			bad = &out[i]
		}
	}
	if bad == nil {
		t.Fatal("unsized tree missing from the output layer")
	}
	if bad.Location != unsizedSite {
		t.Errorf("unsized tree moved to %v", bad.Location)
	}

	for _, tr := range res.Trees {
		if tr.Origin == planting.OriginExisting {
			continue
		}
		minSep := (bad.Diameter + tr.Diameter) / 2
		if d := planar.Distance(tr.Location, bad.Location); d < minSep {
			t.Errorf("%s placed %.2f from the unsized tree, need %.2f", tr.ID, d, minSep)
		}
	}
}

func TestOutputReadable(t *testing.T) {
	p := exampleProject(t)
	log, _ := test.NewNullLogger()

	res, _, err := Run(p, Options{Seed: seed(9)}, log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	trees, _, err := layers.ReadTrees(res.OutputPath, p.Attributes)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(trees) != len(res.Trees) {
		t.Errorf("read %d trees, want %d", len(trees), len(res.Trees))
	}
}
