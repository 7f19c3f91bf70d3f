package design

import (
	"github.com/chazu/trellis/pkg/geom"
	"github.com/chazu/trellis/pkg/lattice"
)

// CellData is a unit cell definition. Either Segments or Preset is set.
type CellData struct {
	Segments  []geom.Segment `json:"segments,omitempty"`
	Preset    string         `json:"preset,omitempty"`
	Reference []geom.Vec     `json:"reference,omitempty"` // normalization box, defaults to the cell's own nodes
	Tolerance float64        `json:"tolerance,omitempty"` // 0 = graph default
	Mirror    bool           `json:"mirror,omitempty"`
}

func (CellData) nodeData() {}

// SurfaceData is a bilinear bounding surface through four corners listed
// around its boundary.
type SurfaceData struct {
	Corners [4]geom.Vec `json:"corners"`
}

func (SurfaceData) nodeData() {}

// OffsetMode selects the reference offsets placed in every grid cell.
type OffsetMode string

const (
	OffsetsCorners OffsetMode = "corners" // the eight unit cube corners
	OffsetsNodes   OffsetMode = "nodes"   // the unit cell's own nodes
)

// LatticeData tiles a cell between two surfaces. When Bottom and Top are
// zero the lattice fills the axis-aligned box of side Size.
type LatticeData struct {
	Cell        NodeID         `json:"cell"`
	Bottom      NodeID         `json:"bottom,omitempty"`
	Top         NodeID         `json:"top,omitempty"`
	Size        float64        `json:"size,omitempty"`
	Extent      lattice.Extent `json:"extent"`
	Offsets     OffsetMode     `json:"offsets"`
	StrutRadius float64        `json:"strut_radius"`
	NodeRadius  float64        `json:"node_radius,omitempty"` // 0 = no node spheres
}

func (LatticeData) nodeData() {}
