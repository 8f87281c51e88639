// Package ocr recognizes handwritten digits using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2) as a
// grid.Classifier: every call receives one cell crop and returns a single
// digit with a confidence score.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr
//   - macOS: brew install tesseract
//   - Windows: Download from https://github.com/UB-Mannheim/tesseract/wiki
//
// Language data files are required for the configured language
// (tesseract-ocr-eng for the default "eng"). Options.TessdataDir points
// Tesseract at a non-standard data directory.
//
// # Recognition Mode
//
// The client runs in single-character page segmentation mode with a
// whitelist of the ten digits and dictionary correction disabled. Crops are
// binarized, scaled to a fixed glyph height and centered on a white canvas
// before recognition; see Preprocess.
//
// # Error Handling
//
// Classify wraps grid.ErrUnrecognized when Tesseract returns nothing that
// starts with a digit. Callers treat such cells as unknown rather than
// failing the whole page.
package ocr
