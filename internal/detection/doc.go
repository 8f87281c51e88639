// Package detection finds the pen strokes of a scanned digit grid.
//
// Each stroke is reported as a [geometry.Hatch]: the leftmost, rightmost,
// topmost and bottommost pixels of one connected component of ink. The
// strokes come back in reading order, ready to be fed to the row clustering.
//
// # Algorithm Overview
//
//  1. Binarization: convert to grayscale and threshold at the ink level
//  2. Component labelling: 8-connected flood fill over the ink mask
//  3. Filtering: drop components below the minimum area (dust, speckle)
//  4. Ordering: group strokes into text lines, then sort each line by X
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// # Limitations
//
// A digit drawn with lifted pen strokes (a "4" or a "5" written in two
// moves) yields one stroke per piece. Digits touching each other merge into
// one stroke. Both cases are left to the row clustering, which treats flat
// pieces as connectors.
package detection
