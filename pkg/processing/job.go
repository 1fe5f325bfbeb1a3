// Package processing plans and runs the UMEP algorithms that turn a planted
// tree layer into thermal comfort maps: Tree Generator, SOLWEIG and Spatial
// Thermal Comfort (UTCI). Jobs are executed through qgis_process.
package processing

import (
	"fmt"
	"sort"
	"strconv"
)

const (
	AlgorithmSolweig       = "umep:Outdoor Thermal Comfort: SOLWEIG"
	AlgorithmComfort       = "umep:Outdoor Thermal Comfort: Spatial Thermal Comfort"
	AlgorithmTreeGenerator = "umep:Spatial Data: Tree Generator"
)

// Stage groups the jobs of one processing step.
type Stage string

const (
	StageTrees   Stage = "trees"
	StageSolweig Stage = "solweig"
	StageComfort Stage = "comfort"
)

// Stages lists the processing steps in run order.
var Stages = []Stage{StageTrees, StageSolweig, StageComfort}

// ParseStage returns the stage named s.
func ParseStage(s string) (Stage, error) {
	for _, st := range Stages {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q (want trees, solweig or comfort)", s)
}

// Params are algorithm parameters. Nil values are left out of the command
// line so the algorithm default applies.
type Params map[string]any

// Args renders the parameters as KEY=VALUE arguments, sorted by key.
func (p Params) Args() []string {
	keys := make([]string, 0, len(p))
	for k, v := range p {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, len(keys))
	for i, k := range keys {
		args[i] = k + "=" + formatValue(p[k])
	}
	return args
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Job is a single algorithm invocation.
type Job struct {
	Name      string `json:"name"`
	Stage     Stage  `json:"stage"`
	Algorithm string `json:"algorithm"`
	Params    Params `json:"params"`
	// Dirs are created before the job runs.
	Dirs []string `json:"dirs,omitempty"`
}

// Args returns the qgis_process arguments that run the job.
func (j Job) Args() []string {
	return append([]string{"run", j.Algorithm, "--"}, j.Params.Args()...)
}
