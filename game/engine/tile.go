package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// TileType is the terrain of a hex tile
type TileType uint8

const (
	Plains TileType = iota
	Desert
	River
)

// TileTypes lists every tile type in selection order.
var TileTypes = []TileType{Plains, Desert, River}

var tileTypeNames = map[TileType]string{
	Plains: "plains",
	Desert: "desert",
	River:  "river",
}

var tileTypeColors = map[TileType]Color{
	Plains: 0x8CC7A1,
	Desert: 0xD8B4A0,
	River:  0x0F8B8D,
}

// String returns the lowercase name of the tile type
func (t TileType) String() string {
	if name, ok := tileTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tiletype(%d)", uint8(t))
}

// Valid reports whether t is one of the known tile types
func (t TileType) Valid() bool {
	_, ok := tileTypeNames[t]
	return ok
}

// Color returns the display color of the tile type
func (t TileType) Color() Color {
	return tileTypeColors[t]
}

// Char returns the single-letter map symbol of the tile type
func (t TileType) Char() string {
	switch t {
	case Plains:
		return "P"
	case Desert:
		return "D"
	case River:
		return "R"
	default:
		return "?"
	}
}

// MarshalText encodes the tile type as its name
func (t TileType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown tile type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tile type name
func (t *TileType) UnmarshalText(text []byte) error {
	parsed, err := ParseTileType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTileType parses a tile type name (case-insensitive)
func ParseTileType(s string) (TileType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range tileTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tile type %q", s)
}

// Color is a 24-bit RGB value
type Color uint32

// RGB splits the color into its components
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Hex returns the color in #RRGGBB form
func (c Color) Hex() string {
	return fmt.Sprintf("#%06X", uint32(c)&0xFFFFFF)
}

// MarshalText encodes the color as #RRGGBB
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText decodes a #RRGGBB color
func (c *Color) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(strings.TrimSpace(string(text)), "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return fmt.Errorf("invalid color %q", string(text))
	}
	*c = Color(v)
	return nil
}
