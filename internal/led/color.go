package led

import "image/color"

// MaxBrightness caps the alpha channel when a ColorVal is flattened for a strip.
const MaxBrightness uint8 = 200

const (
	alphaOffset uint8 = 0x18
	greenOffset uint8 = 0x10
	redOffset   uint8 = 0x08
	blueOffset  uint8 = 0x0
)

// DefaultOnColor is the lit color for strip and console banks.
const DefaultOnColor uint32 = 0xFF9911CC

// ColorVal packs an AGRB color: alpha in the top byte, then green, red, blue.
type ColorVal struct {
	val uint32
}

func NewColor(c uint32) ColorVal {
	return ColorVal{val: c}
}

func (c ColorVal) Color() uint32 {
	return c.val
}

// ToRGB flattens alpha into the channels, capped at MaxBrightness.
func (c ColorVal) ToRGB() color.NRGBA {
	aa := float64(c.GetA())
	if aa > float64(MaxBrightness) {
		aa = float64(MaxBrightness)
	}
	aa /= 255.0
	return color.NRGBA{
		R: uint8(float64(c.GetR()) * aa),
		G: uint8(float64(c.GetG()) * aa),
		B: uint8(float64(c.GetB()) * aa),
		A: 255,
	}
}

func setcolor(c uint32, n uint8, off uint8) uint32 {
	var val uint32 = uint32(n) << off
	var mask uint32 = 0xFF << off
	return (c & (^mask)) | val
}

func getcolor(c uint32, off uint8) uint8 {
	var mask uint32 = 0xFF << off
	return uint8((c & mask) >> off)
}

func (c *ColorVal) SetR(r uint8) { c.val = setcolor(c.val, r, redOffset) }
func (c *ColorVal) SetG(g uint8) { c.val = setcolor(c.val, g, greenOffset) }
func (c *ColorVal) SetB(b uint8) { c.val = setcolor(c.val, b, blueOffset) }
func (c *ColorVal) SetA(a uint8) { c.val = setcolor(c.val, a, alphaOffset) }

func (c ColorVal) GetR() uint8 { return getcolor(c.val, redOffset) }
func (c ColorVal) GetG() uint8 { return getcolor(c.val, greenOffset) }
func (c ColorVal) GetB() uint8 { return getcolor(c.val, blueOffset) }
func (c ColorVal) GetA() uint8 { return getcolor(c.val, alphaOffset) }
