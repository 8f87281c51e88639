package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/digitgrid-mcp/internal/grid"
	dgimaging "github.com/ironsheep/digitgrid-mcp/internal/imaging"
)

// Digits is the character whitelist passed to Tesseract.
const Digits = "0123456789"

// Default preprocessing parameters.
const (
	DefaultLanguage     = "eng"
	DefaultGlyphHeight  = 48
	DefaultMargin       = 16
	DefaultInkThreshold = 128
)

// Options configures a DigitClassifier. Zero fields take their defaults.
type Options struct {
	// Language is the Tesseract language code.
	Language string

	// TessdataDir overrides the directory holding the .traineddata files.
	TessdataDir string

	// GlyphHeight is the height, in pixels, every crop is scaled to before
	// recognition. Tesseract does best with glyphs 30 to 50 pixels tall.
	GlyphHeight int

	// Margin is the white border added around the scaled crop. A negative
	// margin means none.
	Margin int

	// InkThreshold is the gray level under which a pixel is ink.
	InkThreshold uint8
}

func (o Options) withDefaults() Options {
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if o.GlyphHeight <= 0 {
		o.GlyphHeight = DefaultGlyphHeight
	}
	if o.Margin < 0 {
		o.Margin = 0
	} else if o.Margin == 0 {
		o.Margin = DefaultMargin
	}
	if o.InkThreshold == 0 {
		o.InkThreshold = DefaultInkThreshold
	}
	return o
}

// DigitClassifier recognizes single handwritten digits with Tesseract. It
// implements grid.Classifier.
//
// One Tesseract client is held for the classifier's lifetime; calls are
// serialized. Close releases the client.
type DigitClassifier struct {
	opts Options

	mu     sync.Mutex
	client *gosseract.Client
}

var _ grid.Classifier = (*DigitClassifier)(nil)

// NewDigitClassifier creates a classifier restricted to the digits 0-9 in
// single-character page segmentation mode.
func NewDigitClassifier(opts Options) (*DigitClassifier, error) {
	opts = opts.withDefaults()
	client := gosseract.NewClient()

	if opts.TessdataDir != "" {
		if err := client.SetTessdataPrefix(opts.TessdataDir); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata directory: %w", err)
		}
	}
	if err := client.SetLanguage(opts.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetWhitelist(Digits); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}

	// Digit strings are not dictionary words.
	if err := client.SetVariable("load_system_dawg", "false"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to disable system dictionary: %w", err)
	}
	if err := client.SetVariable("load_freq_dawg", "false"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to disable frequent words dictionary: %w", err)
	}

	return &DigitClassifier{opts: opts, client: client}, nil
}

// Close releases OCR resources.
func (c *DigitClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// Version returns the Tesseract library version.
func (c *DigitClassifier) Version() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return ""
	}
	return c.client.Version()
}

// Classify returns the digit shown in img and Tesseract's confidence in it,
// scaled to [0, 1].
//
// # Errors
//
//   - grid.ErrUnrecognized when Tesseract returns no digit
//   - the context's error if it is done before recognition starts
//   - errors from Tesseract itself
func (c *DigitClassifier) Classify(ctx context.Context, img image.Image) (int, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if img == nil || img.Bounds().Empty() {
		return 0, 0, grid.ErrNoImage
	}

	data, err := Preprocess(img, c.opts)
	if err != nil {
		return 0, 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return 0, 0, fmt.Errorf("classifier closed")
	}

	if err := c.client.SetImageFromBytes(data); err != nil {
		return 0, 0, fmt.Errorf("failed to set image: %w", err)
	}
	text, err := c.client.Text()
	if err != nil {
		return 0, 0, fmt.Errorf("OCR failed: %w", err)
	}

	digit, ok := ParseDigit(text)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", grid.ErrUnrecognized, strings.TrimSpace(text))
	}

	confidence := 0.0
	if boxes, err := c.client.GetBoundingBoxes(gosseract.RIL_SYMBOL); err == nil {
		for _, box := range boxes {
			if strings.TrimSpace(box.Word) != "" {
				confidence = float64(box.Confidence) / 100.0
				break
			}
		}
	}
	return digit, confidence, nil
}

// ParseDigit extracts the first decimal digit of Tesseract's output.
func ParseDigit(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" || text[0] < '0' || text[0] > '9' {
		return 0, false
	}
	return int(text[0] - '0'), true
}

// Preprocess turns a cell crop into the PNG handed to Tesseract: binarized
// black ink on white, scaled to the glyph height and centered on a white
// canvas with a margin on every side.
func Preprocess(img image.Image, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	b := img.Bounds()
	if b.Empty() {
		return nil, grid.ErrNoImage
	}

	mask := dgimaging.Binarize(img, opts.InkThreshold)
	scaled := imaging.Resize(mask, 0, opts.GlyphHeight, imaging.Lanczos)

	sb := scaled.Bounds()
	canvas := imaging.New(sb.Dx()+2*opts.Margin, sb.Dy()+2*opts.Margin, color.White)
	canvas = imaging.PasteCenter(canvas, scaled)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode crop: %w", err)
	}
	return buf.Bytes(), nil
}
