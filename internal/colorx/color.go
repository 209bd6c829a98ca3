// Package colorx parses and transforms the 24-bit colours that the Nekos API
// attaches to images (dominant colour and palette).
package colorx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidColor is returned when a string is neither a hex nor an rgb() colour.
var ErrInvalidColor = errors.New("invalid color")

// RGB is a 24-bit colour.
type RGB struct {
	R, G, B uint8
}

// Hex encodes c as a lowercase, zero-padded "#rrggbb" string.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c.R)<<16|uint32(c.G)<<8|uint32(c.B))
}

// Parse accepts "#rrggbb", "rrggbb", "#rgb" and "rgb(r, g, b)".
func Parse(s string) (RGB, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")") {
		return parseFunctional(s[4 : len(s)-1])
	}

	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func parseFunctional(body string) (RGB, error) {
	parts := strings.Split(body, ",")
	if len(parts) != 3 {
		return RGB{}, fmt.Errorf("%w: rgb(%s)", ErrInvalidColor, body)
	}

	var ch [3]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return RGB{}, fmt.Errorf("%w: rgb(%s)", ErrInvalidColor, body)
		}
		ch[i] = uint8(n)
	}
	return RGB{R: ch[0], G: ch[1], B: ch[2]}, nil
}

// Darken scales every channel by (100-percentage)/100 and floors the result.
// Percentages outside [0,100] are clamped.
func Darken(c RGB, percentage int) RGB {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	keep := 100 - percentage

	scale := func(v uint8) uint8 {
		// integer arithmetic floors for non-negative operands
		return uint8(int(v) * keep / 100)
	}
	return RGB{R: scale(c.R), G: scale(c.G), B: scale(c.B)}
}

// DarkenHex parses color, darkens it and re-encodes it as "#rrggbb".
func DarkenHex(color string, percentage int) (string, error) {
	c, err := Parse(color)
	if err != nil {
		return "", err
	}
	return Darken(c, percentage).Hex(), nil
}

// IsLight reports whether text on top of c should be dark.
func IsLight(c RGB) bool {
	brightness := (int(c.R)*299 + int(c.G)*587 + int(c.B)*114) / 1000
	return brightness > 155
}
