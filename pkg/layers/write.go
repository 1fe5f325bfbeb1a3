package layers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"

	"github.com/oukawa/ICALON-UMEP/pkg/planting"
	"github.com/oukawa/ICALON-UMEP/pkg/project"
)

// TreeCollection converts trees into point features carrying the size
// attributes under the project's property names.
func TreeCollection(trees []planting.Tree, attrs project.Attributes) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, t := range trees {
		f := geojson.NewFeature(t.Location)
		f.Properties[attrs.ID] = t.ID
		f.Properties[attrs.Diameter] = t.Diameter
		f.Properties[attrs.Height] = t.Height
		f.Properties[attrs.TrunkHeight] = t.TrunkHeight
		f.Properties["origin"] = string(t.Origin)
		if t.Type != 0 {
			f.Properties[attrs.TreeType] = t.Type
		}
		fc.Append(f)
	}
	return fc
}

// WriteTrees writes trees as a GeoJSON point layer, creating the parent
// directory when needed.
func WriteTrees(path string, trees []planting.Tree, attrs project.Attributes) error {
	data, err := TreeCollection(trees, attrs).MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding tree layer: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing tree layer: %w", err)
	}
	return nil
}
