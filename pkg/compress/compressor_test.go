package compress

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noise(w, h int) *image.NRGBA {
	rng := rand.New(rand.NewSource(42))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}
	return img
}

func TestCompressPassesThroughSmallImages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, noise(64, 48)))
	in := File{Name: "IMG_0001.png", ContentType: "image/png", Data: buf.Bytes()}

	out, err := New(Options{}).Compress(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCompressPassesThroughNonImages(t *testing.T) {
	in := File{Name: "notes.txt", Data: bytes.Repeat([]byte("plain text "), 1000)}

	out, err := New(Options{ThresholdBytes: 10}).Compress(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", out.Name)
	assert.Equal(t, in.Data, out.Data)
	assert.NotEqual(t, jpegContentType, out.ContentType)
}

func TestCompressReencodesLargeImages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, noise(800, 600)))
	in := File{Name: "beach.day.png", ContentType: "image/png", Data: buf.Bytes()}

	out, err := New(Options{ThresholdBytes: 1000, MaxDimension: 400}).Compress(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", out.ContentType)
	assert.Equal(t, "beach.day.jpg", out.Name)
	assert.LessOrEqual(t, out.Size(), in.Size())

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.LessOrEqual(t, max(cfg.Width, cfg.Height), 400)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestCompressDetectsImageWithoutContentType(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, noise(300, 200)))
	in := File{Name: "upload", Data: buf.Bytes()}

	out, err := New(Options{ThresholdBytes: 1000}).Compress(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "upload.jpg", out.Name)
	assert.Equal(t, "image/jpeg", out.ContentType)
}

func TestCompressNeverReturnsLargerOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, noise(320, 240), &jpeg.Options{Quality: 1}))
	in := File{Name: "tiny.jpeg", ContentType: "image/jpeg", Data: buf.Bytes()}

	out, err := New(Options{ThresholdBytes: 1, Quality: 95}).Compress(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCompressUndecodableImageIsReturnedAsIs(t *testing.T) {
	in := File{Name: "broken.jpg", ContentType: "image/jpeg", Data: bytes.Repeat([]byte{0xFF, 0xD8, 0x00}, 500)}

	out, err := New(Options{ThresholdBytes: 10}).Compress(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCompressHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := File{Name: "a.png", ContentType: "image/png", Data: []byte{1, 2, 3}}
	out, err := New(Options{}).Compress(ctx, in)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, in, out)
}

func TestFitWithin(t *testing.T) {
	cases := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{"already fits", 1200, 800, 2600, 1200, 800},
		{"exact bound", 2600, 2600, 2600, 2600, 2600},
		{"landscape", 5200, 3900, 2600, 2600, 1950},
		{"portrait", 3000, 4000, 2600, 1950, 2600},
		{"rounds", 4032, 3024, 2600, 2600, 1950},
		{"odd ratio", 2601, 1001, 2600, 2600, 1001},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := FitWithin(tc.w, tc.h, tc.max)
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
		})
	}
}
