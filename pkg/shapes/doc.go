// Package shapes provides ready-to-connect structures for common layout
// elements.
//
// Every factory returns a [structure.Structure] built at the origin with the
// endpoint labels used throughout gdstools:
//
//   - [Box], [HollowBox]: A (left), B (bottom), C (top), D (right), CENTER;
//     [Box] also has the corners W, X, Y, Z
//   - [Circle]: CENTER and BOTTOM
//   - [Triangle]: one endpoint per vertex, A, B, C
//   - [Line], [Meander]: A at the start, B at the end
//   - [Splitter]: A at the input, B, C, ... at the outputs
//   - [Lattice]: A and B on the edges of a rectangular repetition
//
// Side and port endpoints carry outward directions so that [structure.Structure.Connect]
// can turn pieces to face each other. Corners, centres and triangle vertices
// carry no direction.
//
// Sequentially named endpoints follow [Alphabet]: A..Z, then A1..Z1 and so on.
package shapes
