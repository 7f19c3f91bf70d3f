// Package design defines the design graph for trellis.
// The design graph is an immutable DAG of unit cells, bounding surfaces and
// lattices produced by one evaluation of a lattice script.
package design
