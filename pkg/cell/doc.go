// Package cell turns a raw unit-cell sketch (a bag of line segments) into a
// topology that can be tiled: unique nodes, unique edges, coordinates in the
// unit cube, a validity status and, per node, the neighbouring cell that owns
// it when the node sits on a shared boundary.
//
// The stages run in a fixed order and each mutates the UnitCell in place:
//
//	Extract -> Normalize -> Validate -> IndexBoundaries
//
// Build runs the whole sequence. Every stage takes its distance tolerance as
// an explicit argument.
package cell
