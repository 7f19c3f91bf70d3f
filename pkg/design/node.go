package design

import (
	"crypto/sha256"
	"encoding/hex"
)

// NodeID is a content-addressed node identifier: the hex sha256 of the
// definition path that created the node.
type NodeID string

// NewNodeID derives the ID for a definition path such as "defcell/body".
func NewNodeID(path string) NodeID {
	sum := sha256.Sum256([]byte(path))
	return NodeID(hex.EncodeToString(sum[:]))
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool { return id == "" }

// Short returns the first eight characters of id for messages.
func (id NodeID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// NodeKind enumerates the types of nodes in the design graph.
type NodeKind int

const (
	NodeCell    NodeKind = iota // unit cell topology (defcell, preset)
	NodeSurface                 // bounding surface (defsurface)
	NodeLattice                 // tiled lattice (lattice)
)

func (k NodeKind) String() string {
	switch k {
	case NodeCell:
		return "cell"
	case NodeSurface:
		return "surface"
	case NodeLattice:
		return "lattice"
	default:
		return "unknown"
	}
}

// SourceRef points back at the script text that produced a node.
type SourceRef struct {
	Line int `json:"line,omitempty"`
}

// Node is the fundamental element of the design graph.
type Node struct {
	ID       NodeID    `json:"id"`
	Kind     NodeKind  `json:"kind"`
	Name     string    `json:"name,omitempty"`
	Source   SourceRef `json:"source"`
	Children []NodeID  `json:"children,omitempty"`
	Data     NodeData  `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
