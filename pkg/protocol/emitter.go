package protocol

import (
	"io"
)

// Emitter writes protocol lines to the serial transport.
// Write errors are dropped: the host is trusted to keep up and nothing is retried.
type Emitter struct {
	w   io.Writer
	buf []byte
}

// NewEmitter creates an emitter writing to w.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{
		w:   w,
		buf: make([]byte, 0, 128),
	}
}

// Emit writes a single newline terminated line.
func (e *Emitter) Emit(l Line) {
	e.buf = append(e.buf[:0], l.String()...)
	e.buf = append(e.buf, '\n')
	_, _ = e.w.Write(e.buf)
}

// Log writes a LOG line.
func (e *Emitter) Log(msg string) {
	e.Emit(Log(msg))
}
