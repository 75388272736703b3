// Package scroll holds the text being cycled across the display.
package scroll

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned by Advance when there is nothing to show.
	ErrEmpty = errors.New("scroll: buffer empty")
	// ErrOutOfRange means the cursor points past the storage. It only
	// happens if the buffer's bookkeeping is corrupt.
	ErrOutOfRange = errors.New("scroll: cursor out of range")
)

// DefaultCapacity matches the storage size of the reference board.
const DefaultCapacity = 50

// Buffer is a fixed-capacity byte store with a wrapping cursor.
// Not safe for concurrent use.
type Buffer struct {
	storage []byte
	cursor  int
	valid   int
}

func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{storage: make([]byte, capacity)}
}

// Load copies as much of src as fits over the start of the storage. Text
// already beyond the copied region is kept, so the valid length only grows,
// and the cursor stays where it was unless the buffer was empty.
func (b *Buffer) Load(src []byte) int {
	prev := b.valid
	n := copy(b.storage, src)
	if n > b.valid {
		b.valid = n
	}
	if prev == 0 {
		b.cursor = 0
	}
	return n
}

// Replace discards the current text and starts over from src.
func (b *Buffer) Replace(src []byte) int {
	n := copy(b.storage, src)
	b.valid = n
	b.cursor = 0
	return n
}

// Advance returns the byte under the cursor and moves on, wrapping to the
// start once the end of the valid text is reached.
func (b *Buffer) Advance() (byte, error) {
	if b.cursor >= b.valid {
		b.cursor = 0
	}
	if b.valid == 0 {
		return 0, ErrEmpty
	}
	if b.cursor >= len(b.storage) {
		return 0, fmt.Errorf("%w: %d >= %d", ErrOutOfRange, b.cursor, len(b.storage))
	}
	c := b.storage[b.cursor]
	b.cursor++
	return c, nil
}

func (b *Buffer) Reset() {
	b.cursor = 0
	b.valid = 0
}

func (b *Buffer) Len() int    { return b.valid }
func (b *Buffer) Cursor() int { return b.cursor }
func (b *Buffer) Cap() int    { return len(b.storage) }

// Bytes returns a copy of the valid text.
func (b *Buffer) Bytes() []byte {
	return append([]byte(nil), b.storage[:b.valid]...)
}
