package recoplot

import (
	"image/color"
	"sort"

	"github.com/banshee-data/clever/internal/hits"
)

// timeColors assigns each hit a hue by arrival rank, earliest red through
// latest violet.
func timeColors(hs []hits.Hit) []color.Color {
	order := make([]int, len(hs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return hs[order[a]].Time < hs[order[b]].Time })

	palette := generateColors(len(hs))
	out := make([]color.Color, len(hs))
	for rank, i := range order {
		out[i] = palette[rank]
	}
	return out
}

// generateColors spreads n colors over the first 80% of the hue circle so the
// two ends stay distinguishable.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := 0.8 * float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(l * 255)
		return v, v, v
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255),
		uint8(hueToRGB(p, q, h) * 255),
		uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return "#" + hexByte(uint8(r>>8)) + hexByte(uint8(g>>8)) + hexByte(uint8(b>>8))
}

func hexByte(v uint8) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[v>>4], digits[v&0x0f]})
}
