package project

// Scenario selects which zones trees may be planted in.
type Scenario string

const (
	ScenarioPublicOnly Scenario = "public_only"
	ScenarioWithVacant Scenario = "with_vacant"
)

// Project is the top-level configuration read from treeplanter.yaml.
type Project struct {
	Version    int           `yaml:"version" json:"version"`
	Name       string        `yaml:"name" json:"name"`
	Scenario   Scenario      `yaml:"scenario" json:"scenario"`
	Seed       *uint64       `yaml:"seed,omitempty" json:"seed,omitempty"`
	Layers     Layers        `yaml:"layers" json:"layers"`
	Attributes Attributes    `yaml:"attributes" json:"attributes"`
	Planting   PlantingDef   `yaml:"planting" json:"planting"`
	Processing ProcessingDef `yaml:"processing" json:"processing"`

	// Dir is the directory relative paths are resolved against.
	Dir string `yaml:"-" json:"-"`
}

// Layers names the GeoJSON vector files of a project.
type Layers struct {
	Trees        string `yaml:"trees" json:"trees"`
	PublicSpaces string `yaml:"public_spaces" json:"public_spaces"`
	VacantLots   string `yaml:"vacant_lots" json:"vacant_lots"`
	Buildings    string `yaml:"buildings" json:"buildings"`
	PowerLines   string `yaml:"power_lines" json:"power_lines"`
	// Output may contain {scenario}.
	Output string `yaml:"output" json:"output"`
}

// Attributes maps tree sizes to feature property names.
type Attributes struct {
	Diameter    string `yaml:"diameter" json:"diameter"`
	Height      string `yaml:"height" json:"height"`
	TrunkHeight string `yaml:"trunk_height" json:"trunk_height"`
	TreeType    string `yaml:"tree_type" json:"tree_type"`
	ID          string `yaml:"id" json:"id"`
}

type PlantingDef struct {
	Percentiles     []float64 `yaml:"percentiles" json:"percentiles"`
	MaxAttempts     int       `yaml:"max_attempts" json:"max_attempts"`
	HeightThreshold float64   `yaml:"height_threshold" json:"height_threshold"`
	FailureLimit    int       `yaml:"failure_limit" json:"failure_limit"`
	// Target of zero plants as many new trees as the original population.
	Target int `yaml:"target" json:"target"`
	// SkipReplacement disables the replacement pass.
	SkipReplacement bool `yaml:"skip_replacement" json:"skip_replacement"`
	// NewTreeType is the tree type code written for added trees.
	NewTreeType int `yaml:"new_tree_type" json:"new_tree_type"`
}

type ProcessingDef struct {
	QGISProcess   string   `yaml:"qgis_process" json:"qgis_process"`
	RasterDir     string   `yaml:"raster_dir" json:"raster_dir"`
	MetDir        string   `yaml:"met_dir" json:"met_dir"`
	OutputDir     string   `yaml:"output_dir" json:"output_dir"`
	TmrtDir       string   `yaml:"tmrt_dir" json:"tmrt_dir"`
	Resolution    int      `yaml:"resolution" json:"resolution"`
	Season        string   `yaml:"season" json:"season"`
	Clusters      []string `yaml:"clusters" json:"clusters"`
	UTCOffset     int      `yaml:"utc_offset" json:"utc_offset"`
	LeafStart     int      `yaml:"leaf_start" json:"leaf_start"`
	LeafEnd       int      `yaml:"leaf_end" json:"leaf_end"`
	Conifer       bool     `yaml:"conifer" json:"conifer"`
	TreeGenerator bool     `yaml:"tree_generator" json:"tree_generator"`
	Comfort       Comfort  `yaml:"comfort" json:"comfort"`
}

// Comfort holds the body parameters of the thermal comfort index run.
type Comfort struct {
	Clothing float64 `yaml:"clothing" json:"clothing"`
	Activity float64 `yaml:"activity" json:"activity"`
	Age      int     `yaml:"age" json:"age"`
	HeightCM float64 `yaml:"height_cm" json:"height_cm"`
	WeightKG float64 `yaml:"weight_kg" json:"weight_kg"`
	Sex      int     `yaml:"sex" json:"sex"`
}
