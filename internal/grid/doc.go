// Package grid runs the digit grid segmentation for one document.
//
// A [Session] collects the strokes of a page, clusters them into rows,
// tessellates the stroke middles into cells, links every row to its cells
// and groups adjacent cells into multi-digit numbers:
//
//	s, err := grid.NewSession(cfg, logger)
//	...
//	err = s.AddHatches(hatches)
//	res, err := s.Run(ctx)
//
// The [Result] is a plain value with no references into the session, ready
// to be serialized.
//
// # Classification
//
// [Session.Classify] crops every cell of a Result out of the scan and asks a
// [Classifier] which digit it holds. Cells with almost no ink are marked
// blank and not classified. The digits of every group are then concatenated
// into the group's Value.
//
// # Concurrency
//
// A Session is not safe for concurrent use. Sessions share nothing, so
// independent documents can be processed in parallel with one Session each.
package grid
