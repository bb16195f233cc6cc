package engine

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestTileTypeNames(t *testing.T) {
	tests := []struct {
		tileType TileType
		name     string
		char     string
		color    string
	}{
		{Plains, "plains", "P", "#8CC7A1"},
		{Desert, "desert", "D", "#D8B4A0"},
		{River, "river", "R", "#0F8B8D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tileType.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.tileType.Char(); got != tt.char {
				t.Errorf("Char() = %q, want %q", got, tt.char)
			}
			if got := tt.tileType.Color().Hex(); got != tt.color {
				t.Errorf("Color().Hex() = %q, want %q", got, tt.color)
			}
			if !tt.tileType.Valid() {
				t.Error("expected tile type to be valid")
			}
		})
	}

	if TileType(9).Valid() {
		t.Error("TileType(9) should not be valid")
	}
	if TileType(9).Char() != "?" {
		t.Errorf("unknown tile char = %q, want ?", TileType(9).Char())
	}
}

func TestParseTileType(t *testing.T) {
	for _, name := range []string{"plains", "Desert", " RIVER "} {
		if _, err := ParseTileType(name); err != nil {
			t.Errorf("ParseTileType(%q) error: %v", name, err)
		}
	}
	if _, err := ParseTileType("lava"); err == nil {
		t.Error("expected error for unknown tile type")
	}
}

func TestTileTypeJSON(t *testing.T) {
	data, err := json.Marshal(Tile{Col: 1, Row: 2, Type: River})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var tile Tile
	if err := json.Unmarshal(data, &tile); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if tile.Type != River {
		t.Errorf("expected river, got %s", tile.Type)
	}

	if err := json.Unmarshal([]byte(`{"type":"lava"}`), &tile); err == nil {
		t.Error("expected error for unknown tile type in JSON")
	}
}

func TestColorText(t *testing.T) {
	var c Color
	if err := c.UnmarshalText([]byte("#0F8B8D")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != 0x0F8B8D {
		t.Errorf("expected 0x0F8B8D, got %#x", uint32(c))
	}
	r, g, b := c.RGB()
	if r != 0x0F || g != 0x8B || b != 0x8D {
		t.Errorf("RGB() = %d,%d,%d", r, g, b)
	}

	for _, bad := range []string{"", "#FFF", "#GGGGGG", "#1234567"} {
		if err := c.UnmarshalText([]byte(bad)); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestErrInvalidDirectionWrapped(t *testing.T) {
	_, err := ParseDirection("north")
	if !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("expected ErrInvalidDirection, got %v", err)
	}
}
