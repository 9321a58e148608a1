package palette

import (
	"fmt"
	"math"
	"strconv"
)

// ValidHex reports whether s is a "#rrggbb" color.
func ValidHex(s string) bool {
	_, _, _, ok := parseHexColor(s)
	return ok
}

func parseHexColor(s string) (r, g, b int, ok bool) {
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(uint8(v >> 16)), int(uint8(v >> 8)), int(uint8(v)), true
}

func formatHexColor(r, g, b int) string {
	return fmt.Sprintf("#%02x%02x%02x", clampByte(r), clampByte(g), clampByte(b))
}

func clampByte(v int) int {
	return min(max(v, 0), 255)
}

// Blend mixes a toward b by ratio in [0, 1]. Invalid input returns a.
func Blend(a, b string, ratio float64) string {
	ar, ag, ab, ok1 := parseHexColor(a)
	br, bg, bb, ok2 := parseHexColor(b)
	if !ok1 || !ok2 {
		return a
	}
	ratio = math.Min(math.Max(ratio, 0), 1)
	mix := func(x, y int) int { return int(float64(x)*(1-ratio) + float64(y)*ratio) }
	return formatHexColor(mix(ar, br), mix(ag, bg), mix(ab, bb))
}

// Luminance returns the relative luminance of a color, 0 for invalid input.
func Luminance(hex string) float64 {
	r, g, b, ok := parseHexColor(hex)
	if !ok {
		return 0
	}
	return 0.2126*srgbToLinear(r) + 0.7152*srgbToLinear(g) + 0.0722*srgbToLinear(b)
}

func srgbToLinear(c int) float64 {
	v := float64(c) / 255.0
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// Contrast returns the WCAG contrast ratio of two colors.
func Contrast(a, b string) float64 {
	l1, l2 := Luminance(a), Luminance(b)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// TextOn picks whichever of light and dark reads better on bg.
func TextOn(bg, light, dark string) string {
	if Contrast(bg, light) >= Contrast(bg, dark) {
		return light
	}
	return dark
}
