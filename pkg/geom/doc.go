// Package geom holds the small set of 3D primitives shared by the lattice
// packages. Vectors and boxes are the sdfx types so that geometry flows into
// the sdfx kernel without conversion.
package geom
