// Package glyph holds the 5x5 font used by the text matrix.
//
// A Glyph is a 25-bit bitmap in row-major order. Bit 24 is the upper-left
// LED (index 0) and bit 0 is the lower-right LED (index 24).
package glyph

import "strings"

const (
	Width  = 5
	Height = 5
	// Count is the number of LEDs a glyph addresses.
	Count = Width * Height
)

// Glyph is one character worth of LED states.
type Glyph uint32

// Blank lights nothing.
const Blank Glyph = 0

var digits = [10]Glyph{
	0b11111_10011_10101_11001_11111, // 0
	0b00100_01100_00100_00100_01110, // 1
	0b11110_00001_01110_10000_11111, // 2
	0b11110_00001_11110_00001_11110, // 3
	0b10000_10000_10100_11111_00100, // 4
	0b11111_10000_11110_00001_11110, // 5
	0b11111_10000_11111_10001_11111, // 6
	0b11111_00001_00010_00100_00100, // 7
	0b11111_10001_11111_10001_11111, // 8
	0b11111_10001_11111_00001_11111, // 9
}

var letters = [26]Glyph{
	0b01110_10001_11111_10001_10001, // A
	0b11111_10001_11110_10001_11111, // B
	0b11111_10000_10000_10000_11111, // C
	0b11110_10001_10001_10001_11110, // D
	0b11111_10000_11110_10000_11111, // E
	0b11111_10000_11110_10000_10000, // F
	0b11111_10000_10111_10001_11111, // G
	0b10001_10001_11111_10001_10001, // H
	0b11111_00100_00100_00100_11111, // I
	0b00011_00001_00001_10001_11111, // J
	0b10001_10010_11100_10010_10001, // K
	0b10000_10000_10000_10000_11111, // L
	0b10001_11011_10101_10001_10001, // M
	0b10001_11001_10101_10011_10001, // N
	0b01110_10001_10001_10001_01110, // O
	0b11110_10001_11110_10000_10000, // P
	0b01110_10001_10001_01110_00011, // Q
	0b11110_10001_11110_10001_10001, // R
	0b11111_10000_11111_00001_11111, // S
	0b11111_00100_00100_00100_00100, // T
	0b10001_10001_10001_10001_11111, // U
	0b10001_10001_01010_01010_00100, // V
	0b10001_10001_10101_10101_01010, // W
	0b10001_01010_00100_01010_10001, // X
	0b10001_10001_01010_00100_00100, // Y
	0b11111_00010_00100_01000_11111, // Z
}

// Lookup returns the glyph for c. Lower-case letters map to their capitals.
// The second result is false for anything outside 0-9 and A-Z.
func Lookup(c byte) (Glyph, bool) {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	switch {
	case c >= '0' && c <= '9':
		return digits[c-'0'], true
	case c >= 'A' && c <= 'Z':
		return letters[c-'A'], true
	default:
		return Blank, false
	}
}

// Lit reports whether LED index (0 upper-left .. 24 lower-right) is on.
func (g Glyph) Lit(index int) bool {
	if index < 0 || index >= Count {
		return false
	}
	return (g>>(Count-1-index))&0x01 == 1
}

// Bits expands the glyph into one bool per LED, in LED index order.
func (g Glyph) Bits() [Count]bool {
	var out [Count]bool
	for i := range out {
		out[i] = g.Lit(i)
	}
	return out
}

// String draws the glyph as five rows of '#' and '.'.
func (g Glyph) String() string {
	var sb strings.Builder
	for row := 0; row < Height; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := 0; col < Width; col++ {
			if g.Lit(row*Width + col) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
	}
	return sb.String()
}
