package layout

type Dim struct{ X, Y int }

// Serpentine describes how a strip snakes through the panel.
type Serpentine struct {
	XFlipEveryRow bool
}

type Layout struct {
	Dim   Dim
	Order Serpentine
}

// Matrix5x5 is the text panel wired in plain raster order.
var Matrix5x5 = Layout{Dim: Dim{X: 5, Y: 5}}

// Index maps x,y -> linear LED index (0..N-1) on the wire.
func (l Layout) Index(x, y int) int {
	xx := x
	if (y%2 == 1) && l.Order.XFlipEveryRow {
		xx = l.Dim.X - 1 - x
	}
	return y*l.Dim.X + xx
}

// Wire converts a row-major matrix index (0 upper-left) to its wire index.
func (l Layout) Wire(i int) int {
	if l.Dim.X <= 0 {
		return i
	}
	return l.Index(i%l.Dim.X, i/l.Dim.X)
}

func (l Layout) Count() int {
	return l.Dim.X * l.Dim.Y
}
