// Package layers reads and writes the GeoJSON vector layers of a planting
// project. All layers are expected in the same projected CRS, in meters.
package layers

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/oukawa/ICALON-UMEP/pkg/geo"
	"github.com/oukawa/ICALON-UMEP/pkg/planting"
	"github.com/oukawa/ICALON-UMEP/pkg/project"
	"github.com/oukawa/ICALON-UMEP/pkg/validation"
)

// ReadCollection reads a GeoJSON feature collection from a file.
func ReadCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layer: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing GeoJSON %s: %w", path, err)
	}
	return fc, nil
}

// ReadTrees reads point features as trees. Features without a point
// geometry are skipped; trees with missing or invalid sizes are kept and
// reported.
func ReadTrees(path string, attrs project.Attributes) ([]planting.Tree, *validation.Report, error) {
	fc, err := ReadCollection(path)
	if err != nil {
		return nil, nil, err
	}
	trees, report := TreesFromCollection(fc, attrs)
	return trees, report, nil
}

// TreesFromCollection converts point features into trees.
func TreesFromCollection(fc *geojson.FeatureCollection, attrs project.Attributes) ([]planting.Tree, *validation.Report) {
	report := validation.NewReport()
	var trees []planting.Tree

	for i, f := range fc.Features {
		id := featureID(f, attrs.ID, fmt.Sprintf("tree_%05d", i))

		pt, ok := pointOf(f.Geometry)
		if !ok {
			skipFeature(report, id, "geometry is not a point")
			continue
		}

		// A tree without a usable size still occupies its location: it is
		// kept for collision checks and output, but not sized from.
		d, okD := number(f.Properties, attrs.Diameter)
		h, okH := number(f.Properties, attrs.Height)
		th, okT := number(f.Properties, attrs.TrunkHeight)
		size := planting.SizeTier{Diameter: measure(d), Height: measure(h), TrunkHeight: measure(th)}
		switch err := size.Validate(); {
		case !okD || !okH || !okT:
			unsized(report, id, "missing size attributes")
		case err != nil:
			unsized(report, id, err.Error())
		}

		tt, _ := number(f.Properties, attrs.TreeType)
		trees = append(trees, planting.Tree{
			ID:     id,
			Origin: planting.OriginExisting,
			Type:   int(tt),
		}.WithSize(pt, size))
	}

	report.AddInfo(validation.Result{
		Level:   validation.LevelSchema,
		Message: fmt.Sprintf("read %d trees from %d features", len(trees), len(fc.Features)),
	})
	return trees, report
}

// ReadZones reads polygon features as planting zones. Zones that cannot
// be sampled (empty, flat or zero-area) are skipped and reported.
func ReadZones(path string, kind geo.ZoneKind, idAttr string) ([]geo.Zone, *validation.Report, error) {
	fc, err := ReadCollection(path)
	if err != nil {
		return nil, nil, err
	}
	zones, report := ZonesFromCollection(fc, kind, idAttr)
	return zones, report, nil
}

// ZonesFromCollection converts polygon features into zones.
func ZonesFromCollection(fc *geojson.FeatureCollection, kind geo.ZoneKind, idAttr string) ([]geo.Zone, *validation.Report) {
	report := validation.NewReport()
	var zones []geo.Zone

	for i, f := range fc.Features {
		id := featureID(f, idAttr, fmt.Sprintf("%s_%03d", kind, i))
		z := geo.NewZone(id, kind, f.Geometry)
		if err := z.Validate(); err != nil {
			skipFeature(report, id, err.Error())
			continue
		}
		zones = append(zones, z)
	}
	return zones, report
}

// ReadObstacles reads every geometry of a layer into an indexed obstacle layer.
func ReadObstacles(path, name string) (*geo.Layer, error) {
	fc, err := ReadCollection(path)
	if err != nil {
		return nil, err
	}
	geoms := make([]orb.Geometry, 0, len(fc.Features))
	for _, f := range fc.Features {
		geoms = append(geoms, f.Geometry)
	}
	return geo.NewLayer(name, geoms), nil
}

func skipFeature(report *validation.Report, id, reason string) {
	report.AddWarning(validation.Result{
		Level:   validation.LevelSchema,
		Message: fmt.Sprintf("skipped feature %s: %s", id, reason),
	})
}

func unsized(report *validation.Report, id, reason string) {
	report.AddWarning(validation.Result{
		Level:       validation.LevelSchema,
		Message:     fmt.Sprintf("tree %s has no usable size (%s); kept in place but not used for size tiers", id, reason),
		Suggestions: []string{"Fix the size attributes of the tree layer"},
	})
}

// measure turns a missing, negative or non-finite attribute into zero.
func measure(v float64) float64 {
	if !(v > 0) || math.IsInf(v, 1) {
		return 0
	}
	return v
}

func pointOf(g orb.Geometry) (orb.Point, bool) {
	switch g := g.(type) {
	case orb.Point:
		return g, true
	case orb.MultiPoint:
		if len(g) == 1 {
			return g[0], true
		}
	}
	return orb.Point{}, false
}

func featureID(f *geojson.Feature, attr, fallback string) string {
	if v, ok := f.Properties[attr]; ok && v != nil {
		return fmt.Sprint(v)
	}
	if f.ID != nil {
		return fmt.Sprint(f.ID)
	}
	return fallback
}

// number reads a numeric property. Numeric strings are accepted since
// some exports write attributes as text.
func number(props geojson.Properties, key string) (float64, bool) {
	switch v := props[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}
