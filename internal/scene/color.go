package scene

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a linear RGB triple with components in [0, 1].
type Color struct {
	R, G, B float64
}

var (
	White = Color{1, 1, 1}
	Black = Color{0, 0, 0}
)

// ColorFromHex builds a color from 0xRRGGBB.
func ColorFromHex(hex uint32) Color {
	return Color{
		R: float64(hex>>16&0xff) / 255,
		G: float64(hex>>8&0xff) / 255,
		B: float64(hex&0xff) / 255,
	}
}

// ParseColor accepts "#RRGGBB", "RRGGBB" and "0xRRGGBB".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return ColorFromHex(uint32(v)), nil
}

func (c Color) Hex() uint32 {
	return uint32(clamp8(c.R))<<16 | uint32(clamp8(c.G))<<8 | uint32(clamp8(c.B))
}

// String formats the color as #RRGGBB.
func (c Color) String() string {
	return fmt.Sprintf("#%06X", c.Hex())
}

// Mul multiplies component-wise.
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B}
}

func (c Color) Scale(f float64) Color {
	return Color{c.R * f, c.G * f, c.B * f}
}

func (c Color) Add(o Color) Color {
	return Color{c.R + o.R, c.G + o.G, c.B + o.B}
}

// Luminance is the relative luminance of c.
func (c Color) Luminance() float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
