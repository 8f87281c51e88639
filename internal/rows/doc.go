// Package rows clusters a stream of pen strokes into the rows of a digit
// grid and decides which neighboring digits form one number.
//
// Strokes arrive in reading order through [Manager.AddHatch]. Each stroke is
// reduced to its middle dot and consecutive middles are chained into vectors.
// [Manager.Process] then walks the chain once, without backtracking:
//
//   - a vector that stays close to horizontal continues the current row,
//   - a vector that turns sharply either lands inside the band of an existing
//     row and is absorbed there, or closes the current row and opens a new one.
//
// Flat connector strokes (a dash between two digits) never seed a row; the
// chain is stitched across them.
//
// Once the tessellation of the stroke middles is known, [Manager.LinkCells]
// maps every row dot to its cell and measures digit widths, and
// [Manager.Group] applies a [Strategy] to link adjacent cells of the same
// number.
package rows
