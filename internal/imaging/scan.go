package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder, common for scanners
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Scan is one decoded document image.
type Scan struct {
	// Path is the file the scan was read from, as passed to Load.
	Path string

	// Image is the decoded image in its native color model.
	Image image.Image

	// Format is the decoder name reported by image.Decode: "png", "jpeg",
	// "gif", "bmp", "tiff" or "webp".
	Format string
}

// Bounds returns the scan's pixel rectangle.
func (s *Scan) Bounds() image.Rectangle {
	return s.Image.Bounds()
}

// ScanCache keeps decoded scans in memory so repeated tool calls on the same
// document do not hit the disk again.
//
// Scans are keyed by the exact path string. ScanCache is safe for concurrent
// use; scans stay cached until Evict or Clear.
type ScanCache struct {
	mu    sync.RWMutex
	scans map[string]*Scan
}

// NewScanCache creates an empty cache.
func NewScanCache() *ScanCache {
	return &ScanCache{
		scans: make(map[string]*Scan),
	}
}

// Load returns the cached scan for path, decoding it on first use.
//
// # Errors
//
//   - the file does not exist or cannot be read
//   - the file is not a PNG, JPEG, GIF, BMP, TIFF or WebP image
func (c *ScanCache) Load(path string) (*Scan, error) {
	c.mu.RLock()
	if s, ok := c.scans[path]; ok {
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scan: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode scan: %w", err)
	}

	s := &Scan{
		Path:   path,
		Image:  img,
		Format: format,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another caller may have decoded the same scan meanwhile.
	if cached, ok := c.scans[path]; ok {
		return cached, nil
	}
	c.scans[path] = s
	return s, nil
}

// Len returns the number of cached scans.
func (c *ScanCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.scans)
}

// Clear drops every cached scan.
func (c *ScanCache) Clear() {
	c.mu.Lock()
	c.scans = make(map[string]*Scan)
	c.mu.Unlock()
}

// Evict drops the scan cached under path, if any.
func (c *ScanCache) Evict(path string) {
	c.mu.Lock()
	delete(c.scans, path)
	c.mu.Unlock()
}

// Info describes a scan file.
type Info struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format"`
	HasAlpha      bool   `json:"has_alpha"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

// Info loads the scan at path and reports its metadata.
func (c *ScanCache) Info(path string) (*Info, error) {
	s, err := c.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	hasAlpha := false
	switch s.Image.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
	}

	b := s.Bounds()
	return &Info{
		Width:         b.Dx(),
		Height:        b.Dy(),
		Format:        s.Format,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}

// Dimensions is the pixel size of a scan.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Dimensions loads the scan at path and returns its size.
func (c *ScanCache) Dimensions(path string) (*Dimensions, error) {
	s, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	b := s.Bounds()
	return &Dimensions{Width: b.Dx(), Height: b.Dy()}, nil
}
