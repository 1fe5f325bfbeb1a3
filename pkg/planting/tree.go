package planting

import (
	"math"

	"github.com/paulmach/orb"
)

// Origin records how a tree came to be in the stand.
type Origin string

const (
	OriginExisting    Origin = "existing"
	OriginReplacement Origin = "replacement"
	OriginNew         Origin = "new"
)

// Tree is a placed tree: a point location plus a matched size triple.
type Tree struct {
	ID          string    `json:"id"`
	Location    orb.Point `json:"location"`
	Diameter    float64   `json:"diameter"`     // canopy diameter, m
	Height      float64   `json:"height"`       // total height, m
	TrunkHeight float64   `json:"trunk_height"` // m, <= Height
	Origin      Origin    `json:"origin"`

	// Type is the tree generator's tree type code; zero means unset.
	Type int `json:"tree_type,omitempty"`
}

// Size returns the tree's size triple.
func (t Tree) Size() SizeTier {
	return SizeTier{Diameter: t.Diameter, Height: t.Height, TrunkHeight: t.TrunkHeight}
}

// WithSize returns a copy of t at loc with the size fields taken from s.
func (t Tree) WithSize(loc orb.Point, s SizeTier) Tree {
	t.Location = loc
	t.Diameter = s.Diameter
	t.Height = s.Height
	t.TrunkHeight = s.TrunkHeight
	return t
}

// CanopyArea returns the area of the canopy disk.
func (t Tree) CanopyArea() float64 {
	r := t.Diameter / 2
	return math.Pi * r * r
}
