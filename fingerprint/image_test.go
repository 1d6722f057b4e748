package fingerprint

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// gradient draws a ramp along x when horizontal is set, along y otherwise.
func gradient(w, h int, horizontal bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(255 * y / h)
			if horizontal {
				v = uint8(255 * x / w)
			}
			img.Set(x, y, color.NRGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIsImageFilename(t *testing.T) {
	tests := map[string]bool{
		"meme.png":      true,
		"MEME.JPG":      true,
		"photo.jpeg":    true,
		"anim.gif":      true,
		"scan.tiff":     true,
		"sticker.webp":  true,
		"old.bmp":       true,
		"clip.mp4":      false,
		"notes.txt":     false,
		"no_extension":  false,
		"archive.png.z": false,
	}
	for name, want := range tests {
		assert.Equal(t, want, IsImageFilename(name), name)
	}
}

func TestDecodeImage(t *testing.T) {
	img, err := DecodeImage(encodePNG(t, solid(4, 4, color.White)), 0)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())

	_, err = DecodeImage([]byte("definitely not an image"), 0)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = DecodeImage(encodePNG(t, solid(4, 4, color.White)), 15)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

// withDimensions rewrites the IHDR of a PNG so it claims w x h pixels.
func withDimensions(data []byte, w, h uint32) []byte {
	out := bytes.Clone(data)
	// signature(8) length(4) "IHDR"(4) width(4) height(4) ... crc at 29
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestDecodeImageRejectsHugeDimensions(t *testing.T) {
	forged := withDimensions(encodePNG(t, solid(4, 4, color.White)), 20000, 20000)
	require.Less(t, len(forged), 1024)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := DecodeImage(forged, 0)
	runtime.ReadMemStats(&after)

	require.ErrorIs(t, err, ErrUnsupportedImage)
	assert.Contains(t, err.Error(), "20000x20000")
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(64<<20))
}

func TestColorHashSolidColors(t *testing.T) {
	black := ColorHash(solid(8, 8, color.Black), HashSize)
	require.Len(t, black, 14*HashSize/8)
	assert.Equal(t, []byte{0xff, 0xff}, []byte(black[:2]))
	assert.Equal(t, make([]byte, len(black)-2), []byte(black[2:]))

	// Pure red is a bright color in the first hue bin, the 9th value.
	red := ColorHash(solid(8, 8, color.NRGBA{R: 255, A: 255}), HashSize)
	want := make(Hash, len(red))
	want[16], want[17] = 0xff, 0xff
	assert.Equal(t, want, red)
}

func TestColorHashIgnoresScale(t *testing.T) {
	small := ColorHash(solid(16, 16, color.NRGBA{G: 200, A: 255}), HashSize)
	large := ColorHash(solid(600, 400, color.NRGBA{G: 200, A: 255}), HashSize)

	d, err := Distance(small, large)
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestFingerprintImage(t *testing.T) {
	base, err := FingerprintImage(gradient(64, 64, true))
	require.NoError(t, err)
	assert.Equal(t, HashSize*HashSize, base.Structural.Bits())
	assert.Equal(t, 14*HashSize, base.Color.Bits())

	same, err := FingerprintImage(gradient(64, 64, true))
	require.NoError(t, err)
	d, err := Distance(base.Structural, same.Structural)
	require.NoError(t, err)
	assert.Zero(t, d)

	scaled, err := FingerprintImage(gradient(128, 128, true))
	require.NoError(t, err)
	scaledDist, err := Distance(base.Structural, scaled.Structural)
	require.NoError(t, err)

	rotated, err := FingerprintImage(gradient(64, 64, false))
	require.NoError(t, err)
	rotatedDist, err := Distance(base.Structural, rotated.Structural)
	require.NoError(t, err)

	assert.Less(t, scaledDist, rotatedDist)
}
