package layout

import "testing"

func TestRasterOrderIsIdentity(t *testing.T) {
	for i := 0; i < Matrix5x5.Count(); i++ {
		if got := Matrix5x5.Wire(i); got != i {
			t.Fatalf("Wire(%d) = %d, want %d", i, got, i)
		}
	}
}

func TestSerpentineFlipsOddRows(t *testing.T) {
	l := Layout{Dim: Dim{X: 5, Y: 5}, Order: Serpentine{XFlipEveryRow: true}}
	tests := []struct {
		matrix, wire int
	}{
		{0, 0}, {4, 4}, // row 0 left to right
		{5, 9}, {9, 5}, // row 1 right to left
		{10, 10}, {14, 14},
		{15, 19}, {24, 24},
	}
	for _, tt := range tests {
		if got := l.Wire(tt.matrix); got != tt.wire {
			t.Errorf("Wire(%d) = %d, want %d", tt.matrix, got, tt.wire)
		}
	}
	seen := map[int]bool{}
	for i := 0; i < l.Count(); i++ {
		w := l.Wire(i)
		if seen[w] {
			t.Fatalf("wire index %d used twice", w)
		}
		seen[w] = true
	}
}
