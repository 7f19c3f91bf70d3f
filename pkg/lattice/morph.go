package lattice

import (
	"fmt"

	"github.com/chazu/trellis/pkg/geom"
)

// Morph places normalized unit cell nodes inside every box of a tree that
// was generated with the eight cube corners as offsets. Each node is mapped
// by trilinear interpolation of its box's corners, so a curved grid bends
// the cell with it.
func Morph(corners *Tree, nodes []geom.Vec) (*Tree, error) {
	out := NewTree()
	for _, br := range corners.Branches() {
		if len(br.Points) != 8 {
			return nil, fmt.Errorf("lattice: morph: cell %s has %d corners, want 8", br.Index, len(br.Points))
		}
		c := br.Points
		pts := make([]geom.Vec, len(nodes))
		for i, n := range nodes {
			bottom := geom.Lerp(geom.Lerp(c[0], c[1], n.X), geom.Lerp(c[3], c[2], n.X), n.Y)
			top := geom.Lerp(geom.Lerp(c[4], c[5], n.X), geom.Lerp(c[7], c[6], n.X), n.Y)
			pts[i] = geom.Lerp(bottom, top, n.Z)
		}
		out.Set(br.Index, pts)
	}
	return out, nil
}
