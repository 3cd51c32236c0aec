// Package compress shrinks oversized photos before they are sent to the upload endpoint.
package compress

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultThresholdBytes keeps a single-file multipart request under a ~3 MB platform ceiling.
	DefaultThresholdBytes = 2_900_000
	DefaultMaxDimension   = 2600
	DefaultQuality        = 86

	jpegContentType = "image/jpeg"
)

// File is a named blob as selected by the user.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the payload length in bytes.
func (f File) Size() int {
	return len(f.Data)
}

// Options tunes the compressor. Zero values fall back to the defaults.
type Options struct {
	ThresholdBytes int
	MaxDimension   int
	Quality        int
}

// Compressor re-encodes large images as bounded-size JPEGs.
type Compressor struct {
	opts Options
}

// New builds a compressor with defaults applied to unset options.
func New(opts Options) *Compressor {
	if opts.ThresholdBytes <= 0 {
		opts.ThresholdBytes = DefaultThresholdBytes
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultMaxDimension
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}
	return &Compressor{opts: opts}
}

// Compress returns f unchanged when it is not an image, is already small enough, cannot be decoded,
// or would not get smaller. Otherwise it returns an orientation-corrected JPEG fitted within MaxDimension.
func (c *Compressor) Compress(ctx context.Context, f File) (File, error) {
	if err := ctx.Err(); err != nil {
		return f, err
	}
	if f.ContentType == "" {
		f.ContentType = mimetype.Detect(f.Data).String()
	}
	if !isImage(f) {
		return f, nil
	}
	if f.Size() <= c.opts.ThresholdBytes {
		return f, nil
	}

	src, err := imaging.Decode(bytes.NewReader(f.Data), imaging.AutoOrientation(true))
	if err != nil {
		return f, nil
	}
	if err := ctx.Err(); err != nil {
		return f, err
	}

	b := src.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), c.opts.MaxDimension)
	img := src
	if w != b.Dx() || h != b.Dy() {
		img = imaging.Resize(src, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(c.opts.Quality)); err != nil {
		return f, nil
	}
	if buf.Len() >= f.Size() {
		return f, nil
	}

	return File{
		Name:        jpegName(f.Name),
		ContentType: jpegContentType,
		Data:        buf.Bytes(),
	}, nil
}

// FitWithin scales (w, h) down so neither side exceeds maxDim, preserving aspect ratio. It never upscales.
func FitWithin(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	scale := float64(maxDim) / float64(max(w, h))
	return int(math.Round(float64(w) * scale)), int(math.Round(float64(h) * scale))
}

func isImage(f File) bool {
	if strings.HasPrefix(strings.ToLower(f.ContentType), "image/") {
		return true
	}
	// Browsers and CLIs sometimes send application/octet-stream for photos.
	return strings.HasPrefix(mimetype.Detect(f.Data).String(), "image/")
}

func jpegName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return base + ".jpg"
}
