// Package stream reads fixed-width fields from a forward-only byte source.
//
// The Reader never seeks and never buffers ahead: every read pulls exactly the
// bytes requested, accumulating short reads until the request is satisfied or
// the source reports end of input.
package stream

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/arloliu/minlog/endian"
	"github.com/arloliu/minlog/errs"
)

const (
	// maxConsecutiveEmptyReads bounds reads that return neither data nor an error.
	maxConsecutiveEmptyReads = 100

	// directAllocLimit is the largest request allocated up front. Larger
	// requests grow with the data that actually arrives, so a corrupt length
	// cannot force a huge allocation on a truncated stream.
	directAllocLimit = 64 * 1024
)

// ShortReadError reports a fixed-width read that hit end of input.
type ShortReadError struct {
	Want int // Want is the number of bytes requested.
	Got  int // Got is the number of bytes available before end of input.
}

func (e *ShortReadError) Error() string {
	if e.Got == 0 {
		return fmt.Sprintf("reached end of stream while reading %d bytes", e.Want)
	}

	return fmt.Sprintf("reached end of stream while reading %d bytes (%d bytes read)", e.Want, e.Got)
}

// Unwrap makes every short read an errs.ErrEndOfStream.
func (e *ShortReadError) Unwrap() error {
	return errs.ErrEndOfStream
}

// Reader reads fixed-width fields from src using one byte order.
//
// Note: Reader is NOT thread-safe.
type Reader struct {
	src     io.Reader
	engine  endian.EndianEngine
	offset  int64
	scratch [8]byte
}

// NewReader creates a Reader over src. A nil engine selects little-endian.
func NewReader(src io.Reader, engine endian.EndianEngine) *Reader {
	if engine == nil {
		engine = endian.GetLittleEndianEngine()
	}

	return &Reader{src: src, engine: engine}
}

// Engine returns the byte order used for integer fields.
func (r *Reader) Engine() endian.EndianEngine {
	return r.engine
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// ReadFixed returns exactly n bytes in a newly allocated slice.
//
// Returns:
//   - *ShortReadError (wrapping errs.ErrEndOfStream) if input ends first
//   - the source error for any other read failure
func (r *Reader) ReadFixed(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read length %d", n)
	}
	if n == 0 {
		return []byte{}, nil
	}

	if n <= directAllocLimit {
		buf := make([]byte, n)
		if err := r.fill(buf); err != nil {
			return nil, err
		}

		return buf, nil
	}

	buf := make([]byte, 0, directAllocLimit)
	for len(buf) < n {
		if len(buf) == cap(buf) {
			buf = slices.Grow(buf, min(n, 2*cap(buf))-len(buf))
		}

		start := len(buf)
		buf = buf[:min(n, cap(buf))]
		if err := r.fill(buf[start:]); err != nil {
			var short *ShortReadError
			if errors.As(err, &short) {
				short.Got += start
				short.Want = n
			}

			return nil, err
		}
	}

	return buf, nil
}

// ReadUint32 reads a 4-byte unsigned integer.
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.fill(r.scratch[:4]); err != nil {
		return 0, err
	}

	return r.engine.Uint32(r.scratch[:4]), nil
}

// ReadString reads n bytes as text and strips one trailing NUL if present.
//
// When requireNUL is set and the NUL is absent, the full text is returned
// together with a non-nil warning wrapping errs.ErrMissingNUL; err stays nil.
func (r *Reader) ReadString(n int, requireNUL bool) (s string, warning error, err error) {
	start := r.offset

	b, err := r.ReadFixed(n)
	if err != nil {
		return "", nil, err
	}

	if len(b) > 0 && b[len(b)-1] == 0 {
		return string(b[:len(b)-1]), nil, nil
	}

	if requireNUL {
		warning = fmt.Errorf("%w: %d-byte string ending at offset %d", errs.ErrMissingNUL, n, start+int64(n))
	}

	return string(b), warning, nil
}

// fill reads len(buf) bytes, accumulating partial reads.
func (r *Reader) fill(buf []byte) error {
	got := 0
	empty := 0
	for got < len(buf) {
		n, err := r.src.Read(buf[got:])
		got += n
		r.offset += int64(n)

		if got == len(buf) {
			return nil
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return &ShortReadError{Want: len(buf), Got: got}
			}

			return err
		}

		if n == 0 {
			empty++
			if empty >= maxConsecutiveEmptyReads {
				return io.ErrNoProgress
			}
		} else {
			empty = 0
		}
	}

	return nil
}
