package led

// Output abstracts one binary LED.
type Output interface {
	// On lights the LED.
	On() error
	// Off darkens the LED.
	Off() error
}

// Flusher is implemented by banks that latch all outputs at once
// (strips, terminal previews). Flush pushes the staged states out.
type Flusher interface {
	Flush() error
}
