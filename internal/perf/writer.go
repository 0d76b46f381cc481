package perf

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned when a write would exceed the declared capacity.
var ErrShortBuffer = errors.New("perf: short buffer")

// Writer is a bounds-checked little-endian writer over a fixed window of bytes.
// Sequential writes advance the write offset; the *At variants do not.
type Writer struct {
	buf []byte
	off int
}

// NewWriter returns a writer over buf. The capacity of the writer is len(buf).
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Len returns the number of bytes written sequentially so far.
func (w *Writer) Len() int { return w.off }

// Cap returns the window size.
func (w *Writer) Cap() int { return len(w.buf) }

// Available returns how many sequential bytes can still be written.
func (w *Writer) Available() int { return len(w.buf) - w.off }

// Bytes returns the whole window.
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) next(n int) ([]byte, error) {
	if n > w.Available() {
		return nil, ErrShortBuffer
	}
	b := w.buf[w.off : w.off+n]
	w.off += n
	return b, nil
}

func (w *Writer) at(off, n int) ([]byte, error) {
	if off < 0 || n > len(w.buf) || off > len(w.buf)-n {
		return nil, ErrShortBuffer
	}
	return w.buf[off : off+n], nil
}

// Write implements io.Writer. It writes nothing when p does not fit.
func (w *Writer) Write(p []byte) (int, error) {
	b, err := w.next(len(p))
	if err != nil {
		return 0, err
	}
	return copy(b, p), nil
}

// WriteAt implements io.WriterAt relative to the start of the window.
func (w *Writer) WriteAt(p []byte, off int64) (int, error) {
	b, err := w.at(int(off), len(p))
	if err != nil {
		return 0, err
	}
	return copy(b, p), nil
}

// PutUint32 appends v.
func (w *Writer) PutUint32(v uint32) error {
	b, err := w.next(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

// PutInt32 appends v.
func (w *Writer) PutInt32(v int32) error {
	return w.PutUint32(uint32(v))
}

// PutInt64 appends v.
func (w *Writer) PutInt64(v int64) error {
	b, err := w.next(8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, uint64(v))
	return nil
}

// PutUint32At stores v at off without moving the write offset.
func (w *Writer) PutUint32At(off int, v uint32) error {
	b, err := w.at(off, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

// Skip advances the write offset by n bytes, leaving them as they are.
func (w *Writer) Skip(n int) error {
	_, err := w.next(n)
	return err
}

// Cursor is a caller-owned output buffer with an advancing position. A host hands the
// same cursor to several providers; each one reserves and then advances past its data.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Offset returns the current position.
func (c *Cursor) Offset() int { return c.off }

// Available returns the capacity left after the current position.
func (c *Cursor) Available() int { return len(c.buf) - c.off }

// Bytes returns everything before the current position.
func (c *Cursor) Bytes() []byte { return c.buf[:c.off] }

// Remaining returns the buffer from the current position on. Writes through it are
// not counted until Advance.
func (c *Cursor) Remaining() []byte { return c.buf[c.off:] }

// Reserve returns a zeroed writer over the next n bytes without advancing the cursor.
// It fails with ErrShortBuffer, touching nothing, when fewer than n bytes are available.
func (c *Cursor) Reserve(n int) (*Writer, error) {
	if n < 0 || n > c.Available() {
		return nil, ErrShortBuffer
	}
	window := c.buf[c.off : c.off+n]
	clear(window)
	return NewWriter(window), nil
}

// Advance moves the position forward by n bytes.
func (c *Cursor) Advance(n int) error {
	if n < 0 || n > c.Available() {
		return ErrShortBuffer
	}
	c.off += n
	return nil
}
