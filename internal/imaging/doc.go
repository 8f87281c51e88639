// Package imaging loads document scans and cuts digit cells out of them.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based with the origin at the
// top-left corner:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive and Max is exclusive
//
// Cell geometry from the segmentation (centers, widths, row bands) is in the
// same coordinates, as float64.
//
// # Thread Safety
//
// ScanCache is safe for concurrent use. Scans are never mutated after Load,
// so any number of sessions may read the same scan at once.
//
// # Ink
//
// Whether a pixel is ink is decided in two places. Stroke detection
// binarizes the grayscale scan with [Binarize]. Blank-cell detection uses
// [InkCoverage], which measures perceptual lightness (CIE L*) so that blue
// or red pens are treated like black ones.
package imaging
