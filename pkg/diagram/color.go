package diagram

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultInk  = "1F2933"
	defaultFill = "F7F8FA"

	// fillAlpha is the fixed blend factor for role/department fills. The
	// entity color is mixed into white at this weight so node text stays
	// legible on top of strong colors.
	fillAlpha = 0.18
)

// blendHex mixes a 6-digit hex color into white at the given alpha and
// returns the resulting 6-digit hex code. Invalid input falls back to the
// default fill.
func blendHex(hex string, alpha float64) string {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return defaultFill
	}

	var blended [3]string

	for i := range 3 {
		channel, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return defaultFill
		}

		mixed := alpha*float64(channel) + (1-alpha)*255

		blended[i] = fmt.Sprintf("%02X", int(mixed+0.5))
	}

	return blended[0] + blended[1] + blended[2]
}
