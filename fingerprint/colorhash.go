package fingerprint

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

const (
	hueBins = 6

	// Thresholds on the 0-255 scale.
	blackIntensity = 256 / 8
	graySaturation = 256 / 3
	faintSatCutoff = 256 * 2 / 3

	// Larger images are scaled down before counting; only fractions matter.
	colorSampleSide = 256
)

// ColorHash fingerprints the color distribution of img: the fraction of black
// pixels, of gray pixels, and of faint and bright colors in six hue bins,
// each quantized to binBits bits. The result is 14*binBits bits wide.
func ColorHash(img image.Image, binBits int) Hash {
	img = shrink(img, colorSampleSide)
	b := img.Bounds()

	var total, black, gray, colors int
	var faint, bright [hueBins]int

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			total++

			if intensity(c) < blackIntensity {
				black++
				continue
			}
			h, s := hueSaturation(c)
			if s < graySaturation {
				gray++
				continue
			}
			colors++
			switch {
			case s < faintSatCutoff:
				faint[hueBin(h)]++
			case s > faintSatCutoff:
				bright[hueBin(h)]++
			}
		}
	}

	maxValue := 1 << binBits
	quantize := func(n, of int) int {
		if of == 0 {
			return 0
		}
		v := int(float64(n) * float64(maxValue) / float64(of))
		return min(v, maxValue-1)
	}

	values := make([]int, 0, 2+2*hueBins)
	values = append(values, quantize(black, total), quantize(gray, total))
	c := max(1, colors)
	for _, n := range faint {
		values = append(values, quantize(n, c))
	}
	for _, n := range bright {
		values = append(values, quantize(n, c))
	}

	bools := make([]bool, 0, len(values)*binBits)
	for _, v := range values {
		for i := 0; i < binBits; i++ {
			bools = append(bools, (v>>(binBits-i-1))%(1<<(binBits-i)) > 0)
		}
	}
	return packBits(bools)
}

func shrink(img image.Image, side int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= side && h <= side {
		return img
	}
	scale := float64(side) / float64(max(w, h))
	dst := image.NewNRGBA(image.Rect(0, 0, max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// intensity is the ITU-R 601-2 luma on the 0-255 scale.
func intensity(c color.NRGBA) int {
	return (int(c.R)*299 + int(c.G)*587 + int(c.B)*114) / 1000
}

// hueSaturation returns hue and saturation on the 0-255 scale.
func hueSaturation(c color.NRGBA) (int, int) {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	maxc := math.Max(r, math.Max(g, b))
	minc := math.Min(r, math.Min(g, b))
	if maxc == minc {
		return 0, 0
	}

	cr := maxc - minc
	s := cr / maxc
	rc := (maxc - r) / cr
	gc := (maxc - g) / cr
	bc := (maxc - b) / cr

	var h float64
	switch {
	case r == maxc:
		h = bc - gc
	case g == maxc:
		h = 2.0 + rc - bc
	default:
		h = 4.0 + gc - rc
	}
	h = math.Mod(h/6.0+1.0, 1.0)

	return clip8(h * 255), clip8(s * 255)
}

func hueBin(h int) int {
	return min(int(float64(h)/(255.0/hueBins)), hueBins-1)
}

func clip8(v float64) int {
	return min(max(int(v), 0), 255)
}
