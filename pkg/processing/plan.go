package processing

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/oukawa/ICALON-UMEP/pkg/project"
	"github.com/oukawa/ICALON-UMEP/pkg/validation"
)

// dirs resolves the processing directories of a project. Empty entries fall
// back to the project directory; the Tmrt directory falls back to the
// SOLWEIG output directory.
type dirs struct {
	raster, met, output, tmrt string
}

func resolveDirs(p *project.Project) dirs {
	pr := p.Processing
	at := func(d string) string {
		if d == "" {
			return p.Dir
		}
		return p.Path(d)
	}
	d := dirs{
		raster: at(pr.RasterDir),
		met:    at(pr.MetDir),
		output: at(pr.OutputDir),
		tmrt:   at(pr.TmrtDir),
	}
	if pr.TmrtDir == "" {
		d.tmrt = d.output
	}
	return d
}

// runName is the per-cluster folder and suffix, e.g. C1_summer_2.
func runName(cluster, season string, res int) string {
	return cluster + "_" + season + "_" + strconv.Itoa(res)
}

// SolweigJobs plans one SOLWEIG run per meteorological cluster. Canopy and
// trunk rasters are passed when present in the raster directory.
func SolweigJobs(p *project.Project) ([]Job, *validation.Report) {
	report := validation.NewReport()
	pr := p.Processing
	d := resolveDirs(p)
	rasters := filepath.Join(d.raster, fmt.Sprintf("Input_Rasters_%dm", pr.Resolution))

	base := Params{
		"INPUT_DSM":    filepath.Join(rasters, "DSM.tif"),
		"INPUT_DEM":    filepath.Join(rasters, "DEM.tif"),
		"INPUT_HEIGHT": filepath.Join(rasters, "WallHeight.tif"),
		"INPUT_ASPECT": filepath.Join(rasters, "WallAspect.tif"),
		"INPUT_LC":     filepath.Join(rasters, "LandClass.tif"),
		"INPUT_SVF":    filepath.Join(rasters, "SVF.zip"),

		// Ignored by SOLWEIG when a land cover raster is given.
		"ALBEDO_GROUND": 0.15,
		"ALBEDO_WALLS":  0.2,
		"EMIS_GROUND":   0.95,
		"EMIS_WALLS":    0.9,

		"ONLYGLOBAL":    true,
		"UTC":           pr.UTCOffset,
		"CONIFER_TREES": pr.Conifer,
		"LEAF_START":    pr.LeafStart,
		"LEAF_END":      pr.LeafEnd,
		"INPUT_THEIGHT": 25,
		"TRANS_VEG":     7,
		"USE_LC_BUILD":  false,

		"OUTPUT_KDOWN":       false,
		"OUTPUT_KUP":         false,
		"OUTPUT_LDOWN":       false,
		"OUTPUT_LUP":         false,
		"OUTPUT_SH":          false,
		"OUTPUT_TMRT":        true,
		"OUTPUT_TREEPLANTER": true,
		"SAVE_BUILD":         false,
	}
	for _, key := range []string{"INPUT_DSM", "INPUT_DEM", "INPUT_HEIGHT", "INPUT_ASPECT", "INPUT_LC", "INPUT_SVF"} {
		if path := base[key].(string); !exists(path) {
			addMissing(report, key, path)
		}
	}
	for key, name := range map[string]string{"INPUT_CDSM": "CDSM.tif", "INPUT_TDSM": "TDSM.tif"} {
		if path := filepath.Join(rasters, name); exists(path) {
			base[key] = path
		}
	}

	jobs := make([]Job, 0, len(pr.Clusters))
	for _, cluster := range pr.Clusters {
		met := filepath.Join(d.met, fmt.Sprintf("%s_met_%s.txt", pr.Season, cluster))
		if !exists(met) {
			addMissing(report, "INPUTMET", met)
		}
		out := filepath.Join(d.output, runName(cluster, pr.Season, pr.Resolution))

		params := make(Params, len(base)+2)
		for k, v := range base {
			params[k] = v
		}
		params["INPUTMET"] = met
		params["OUTPUT_DIR"] = out

		jobs = append(jobs, Job{
			Name:      "solweig " + runName(cluster, pr.Season, pr.Resolution),
			Stage:     StageSolweig,
			Algorithm: AlgorithmSolweig,
			Params:    params,
			Dirs:      []string{out},
		})
	}
	report.AddInfo(validation.Result{
		Level:   validation.LevelProcessing,
		Message: fmt.Sprintf("planned %d SOLWEIG runs", len(jobs)),
	})
	return jobs, report
}

// ComfortJobs plans a UTCI run for every Tmrt_20*.tif raster of every
// cluster, writing UTCI_20*.tif next to it. Clusters without Tmrt rasters
// are skipped with a warning.
func ComfortJobs(p *project.Project) ([]Job, *validation.Report, error) {
	report := validation.NewReport()
	pr := p.Processing
	c := pr.Comfort
	d := resolveDirs(p)

	var jobs []Job
	for _, cluster := range pr.Clusters {
		name := runName(cluster, pr.Season, pr.Resolution)
		dir := filepath.Join(d.tmrt, name)

		tmrt, err := tmrtRasters(dir)
		if err != nil {
			return nil, report, err
		}
		if len(tmrt) == 0 {
			report.AddWarning(validation.Result{
				Level:       validation.LevelProcessing,
				Message:     fmt.Sprintf("no Tmrt rasters found in %s", dir),
				ConfigPath:  "processing.tmrt_dir",
				Suggestions: []string{"Run the solweig stage first"},
			})
			continue
		}

		wind := filepath.Join(d.tmrt, "WS_"+name+".tif")
		if !exists(wind) {
			addMissing(report, "UROCK_MAP", wind)
		}
		for _, f := range tmrt {
			out := "UTCI_20" + strings.TrimPrefix(f, "Tmrt_20")
			jobs = append(jobs, Job{
				Name:      "utci " + name + " " + strings.TrimSuffix(f, ".tif"),
				Stage:     StageComfort,
				Algorithm: AlgorithmComfort,
				Params: Params{
					"COMFA":     false,
					"CLO":       c.Clothing,
					"ACTIVITY":  c.Activity,
					"AGE":       c.Age,
					"HEIGHT":    c.HeightCM,
					"WEIGHT":    c.WeightKG,
					"SEX":       c.Sex,
					"TC_TYPE":   1,
					"UROCK_MAP": wind,
					"TMRT_MAP":  filepath.Join(dir, f),
					"TC_OUT":    filepath.Join(dir, out),
				},
			})
		}
	}
	report.AddInfo(validation.Result{
		Level:   validation.LevelProcessing,
		Message: fmt.Sprintf("planned %d UTCI runs", len(jobs)),
	})
	return jobs, report, nil
}

// tmrtRasters lists the Tmrt_20*.tif file names in dir, sorted. A missing
// directory has none.
func tmrtRasters(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing Tmrt rasters: %w", err)
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if !e.IsDir() && strings.HasPrefix(n, "Tmrt_20") && strings.HasSuffix(n, ".tif") {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

// TreeGeneratorJob plans the conversion of a planted tree layer into canopy
// (CDSM) and trunk (TDSM) rasters, written next to the layer.
func TreeGeneratorJob(p *project.Project, pointLayer string, scenario project.Scenario) Job {
	a := p.Attributes
	dir := filepath.Dir(pointLayer)
	return Job{
		Name:      "tree generator " + string(scenario),
		Stage:     StageTrees,
		Algorithm: AlgorithmTreeGenerator,
		Params: Params{
			"INPUT_POINTLAYER": pointLayer,
			"DIA":              a.Diameter,
			"TOT_HEIGHT":       a.Height,
			"TRUNK_HEIGHT":     a.TrunkHeight,
			"TREE_TYPE":        a.TreeType,
			"CDSM_GRID_OUT":    filepath.Join(dir, "CDSM_"+string(scenario)+".tif"),
			"TDSM_GRID_OUT":    filepath.Join(dir, "TDSM_"+string(scenario)+".tif"),
		},
		Dirs: []string{dir},
	}
}

// Plan returns the jobs of one stage for the project's current scenario.
// The trees stage is empty unless processing.tree_generator is set.
func Plan(p *project.Project, stage Stage) ([]Job, *validation.Report, error) {
	switch stage {
	case StageTrees:
		report := validation.NewReport()
		if !p.Processing.TreeGenerator {
			report.AddInfo(validation.Result{
				Level:      validation.LevelProcessing,
				Message:    "tree generator disabled",
				ConfigPath: "processing.tree_generator",
			})
			return nil, report, nil
		}
		layer := p.OutputPath()
		if !exists(layer) {
			addMissing(report, "INPUT_POINTLAYER", layer)
		}
		return []Job{TreeGeneratorJob(p, layer, p.Scenario)}, report, nil
	case StageSolweig:
		jobs, report := SolweigJobs(p)
		return jobs, report, nil
	case StageComfort:
		return ComfortJobs(p)
	}
	return nil, nil, fmt.Errorf("unknown stage %q", stage)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func addMissing(report *validation.Report, key, path string) {
	report.AddWarning(validation.Result{
		Level:       validation.LevelProcessing,
		Message:     fmt.Sprintf("%s input %s does not exist", key, path),
		ActualValue: path,
	})
}
