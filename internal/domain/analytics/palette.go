package analytics

import (
	"strconv"
	"strings"
)

// FallbackPalette cycles through chart datasets whose product carries no
// configured color.
var FallbackPalette = []string{
	"#3b82f6", "#22c55e", "#ef4444", "#f59e0b",
	"#8b5cf6", "#ec4899", "#14b8a6", "#f97316",
}

// PaletteColor returns the palette entry for a dataset position.
func PaletteColor(i int) string {
	if i < 0 {
		i = -i
	}
	return FallbackPalette[i%len(FallbackPalette)]
}

// Alpha converts "#RRGGBB" to an "rgba(r,g,b,a)" string for translucent
// chart fills. Malformed colors degrade to a neutral gray.
func Alpha(hexColor string, a float64) string {
	alpha := strconv.FormatFloat(a, 'g', -1, 64)
	h := strings.TrimPrefix(hexColor, "#")
	if len(h) != 6 {
		return "rgba(100,100,100," + alpha + ")"
	}
	r, err1 := strconv.ParseUint(h[0:2], 16, 8)
	g, err2 := strconv.ParseUint(h[2:4], 16, 8)
	b, err3 := strconv.ParseUint(h[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return "rgba(100,100,100," + alpha + ")"
	}
	return "rgba(" + strconv.FormatUint(r, 10) + "," + strconv.FormatUint(g, 10) + "," +
		strconv.FormatUint(b, 10) + "," + alpha + ")"
}
