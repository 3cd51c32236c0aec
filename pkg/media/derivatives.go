// Package media turns an uploaded photo into the fixed set of JPEG renditions the journal stores.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ErrUndecodable is wrapped by Generate when the input is not a supported image.
var ErrUndecodable = errors.New("unsupported or corrupt image")

// Spec describes how one variant is rendered. MaxWidth of zero keeps full resolution.
type Spec struct {
	Variant  Variant
	MaxWidth int
	Quality  int
}

// DefaultSpecs are the renditions produced for every photo.
var DefaultSpecs = []Spec{
	{Variant: VariantOriginal, MaxWidth: 0, Quality: 92},
	{Variant: VariantWeb, MaxWidth: 1800, Quality: 86},
	{Variant: VariantThumb, MaxWidth: 600, Quality: 78},
}

// Derivative is one encoded rendition.
type Derivative struct {
	Variant Variant
	Data    []byte
	Width   int
	Height  int
}

// Generator produces derivatives from raw image bytes.
type Generator struct {
	specs []Spec
}

// NewGenerator builds a generator for specs, falling back to DefaultSpecs.
func NewGenerator(specs ...Spec) *Generator {
	if len(specs) == 0 {
		specs = DefaultSpecs
	}
	return &Generator{specs: specs}
}

// Generate decodes raw once, applies the embedded EXIF orientation, then renders each spec in order.
// Orientation is applied before any resize so widths are measured on the upright image.
func (g *Generator) Generate(raw []byte) ([]Derivative, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUndecodable)
	}
	src, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	out := make([]Derivative, 0, len(g.specs))
	for _, spec := range g.specs {
		d, err := render(src, spec)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func render(src image.Image, spec Spec) (Derivative, error) {
	img := src
	if spec.MaxWidth > 0 && src.Bounds().Dx() > spec.MaxWidth {
		img = imaging.Resize(src, spec.MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(spec.Quality)); err != nil {
		return Derivative{}, fmt.Errorf("encode %s variant: %w", spec.Variant, err)
	}
	b := img.Bounds()
	return Derivative{
		Variant: spec.Variant,
		Data:    buf.Bytes(),
		Width:   b.Dx(),
		Height:  b.Dy(),
	}, nil
}
