package fingerprint

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"path"
	"strings"

	// Decoders for every extension in imageExtensions.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/corona10/goimagehash"
	"github.com/gabriel-vasile/mimetype"
)

// HashSize is the side of the perceptual hash grid and the bits per color bin.
const HashSize = 16

// DefaultMaxPixels bounds width*height when the caller sets no limit.
const DefaultMaxPixels = 50_000_000

// ErrUnsupportedImage is returned when downloaded bytes are not a raster image.
var ErrUnsupportedImage = errors.New("unsupported image")

var imageExtensions = map[string]bool{
	"bmp":  true,
	"gif":  true,
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"tiff": true,
	"webp": true,
}

// IsImageFilename reports whether the attachment extension is an accepted raster format.
func IsImageFilename(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	return imageExtensions[ext]
}

// ImageFingerprint holds both hashes of one image.
type ImageFingerprint struct {
	Structural Hash
	Color      Hash
}

// DecodeImage sniffs data and decodes it once. The header is read first so an
// image claiming more than maxPixels is rejected before any pixel buffer is
// allocated. A maxPixels of zero or less means DefaultMaxPixels.
func DecodeImage(data []byte, maxPixels int64) (image.Image, error) {
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrUnsupportedImage, mtype.String())
	}

	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s header: %w", mtype.String(), err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedImage, cfg.Width, cfg.Height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", mtype.String(), err)
	}
	return img, nil
}

// FingerprintImage computes both hashes from a single decoded image.
func FingerprintImage(img image.Image) (ImageFingerprint, error) {
	structural, err := StructuralHash(img)
	if err != nil {
		return ImageFingerprint{}, err
	}
	return ImageFingerprint{
		Structural: structural,
		Color:      ColorHash(img, HashSize),
	}, nil
}

// StructuralHash is a DCT perceptual hash over a HashSize x HashSize grid.
func StructuralHash(img image.Image) (Hash, error) {
	h, err := goimagehash.ExtPerceptionHash(img, HashSize, HashSize)
	if err != nil {
		return nil, fmt.Errorf("failed to compute perception hash: %w", err)
	}

	words := h.GetHash()
	out := make(Hash, 0, len(words)*8)
	for _, w := range words {
		out = binary.BigEndian.AppendUint64(out, w)
	}
	return out, nil
}
