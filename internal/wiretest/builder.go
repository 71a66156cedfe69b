// Package wiretest builds compressed log streams for tests.
//
// The Builder writes the same layout the native producer writes: the magic
// header, then per record the format id, the format metadata on first use of
// the id (length including the trailing NUL, text, argument count) and one
// length-prefixed value per argument.
package wiretest

import (
	"math"

	"github.com/arloliu/minlog/endian"
	"github.com/arloliu/minlog/format"
	"github.com/arloliu/minlog/internal/pool"
)

// Arg encodes one argument value as (declared length, bytes).
type Arg func(engine endian.EndianEngine) (uint32, []byte)

// Builder accumulates a stream. It is not safe for concurrent use.
type Builder struct {
	engine endian.EndianEngine
	buf    *pool.ByteBuffer
	seen   map[uint32]bool
}

// New starts a stream with the magic header. A nil engine selects little-endian.
func New(engine endian.EndianEngine) *Builder {
	b := NewRaw(engine)
	b.buf.WriteString(format.Magic)

	return b
}

// NewRaw starts a stream without a header.
func NewRaw(engine endian.EndianEngine) *Builder {
	if engine == nil {
		engine = endian.GetLittleEndianEngine()
	}

	return &Builder{
		engine: engine,
		buf:    pool.NewByteBuffer(256),
		seen:   make(map[uint32]bool),
	}
}

// Record writes one record. Metadata is written the first time id is used,
// declaring len(args) arguments.
func (b *Builder) Record(id uint32, fmtText string, args ...Arg) *Builder {
	b.Uint32(id)
	if !b.seen[id] {
		b.Define(fmtText, uint32(len(args))) //nolint:gosec
		b.seen[id] = true
	}

	for _, a := range args {
		b.Arg(a)
	}

	return b
}

// Define writes format metadata with an explicit declared argument count.
func (b *Builder) Define(fmtText string, declared uint32) *Builder {
	b.Uint32(uint32(len(fmtText) + 1)) //nolint:gosec
	b.buf.WriteString(fmtText)
	b.buf.MustWrite([]byte{0})
	b.Uint32(declared)

	return b
}

// MarkSeen records that id has been defined by hand-written bytes.
func (b *Builder) MarkSeen(id uint32) *Builder {
	b.seen[id] = true
	return b
}

// Arg writes one length-prefixed argument.
func (b *Builder) Arg(a Arg) *Builder {
	n, data := a(b.engine)
	b.Uint32(n)
	b.buf.MustWrite(data)

	return b
}

// Uint32 writes a raw 4-byte integer.
func (b *Builder) Uint32(v uint32) *Builder {
	b.buf.B = b.engine.AppendUint32(b.buf.B, v)
	return b
}

// Raw writes bytes verbatim.
func (b *Builder) Raw(p []byte) *Builder {
	b.buf.MustWrite(p)
	return b
}

// Bytes returns the stream built so far.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

// Int8 encodes a 1-byte signed integer.
func Int8(v int8) Arg {
	return func(endian.EndianEngine) (uint32, []byte) { return 1, []byte{byte(v)} }
}

// Int16 encodes a 2-byte signed integer.
func Int16(v int16) Arg {
	return func(e endian.EndianEngine) (uint32, []byte) { return 2, e.AppendUint16(nil, uint16(v)) } //nolint:gosec
}

// Int32 encodes a 4-byte signed integer.
func Int32(v int32) Arg {
	return func(e endian.EndianEngine) (uint32, []byte) { return 4, e.AppendUint32(nil, uint32(v)) } //nolint:gosec
}

// Int64 encodes an 8-byte signed integer.
func Int64(v int64) Arg {
	return func(e endian.EndianEngine) (uint32, []byte) { return 8, e.AppendUint64(nil, uint64(v)) } //nolint:gosec
}

// Uint8 encodes a 1-byte unsigned integer.
func Uint8(v uint8) Arg {
	return func(endian.EndianEngine) (uint32, []byte) { return 1, []byte{v} }
}

// Uint16 encodes a 2-byte unsigned integer.
func Uint16(v uint16) Arg {
	return func(e endian.EndianEngine) (uint32, []byte) { return 2, e.AppendUint16(nil, v) }
}

// Uint32 encodes a 4-byte unsigned integer.
func Uint32(v uint32) Arg {
	return func(e endian.EndianEngine) (uint32, []byte) { return 4, e.AppendUint32(nil, v) }
}

// Uint64 encodes an 8-byte unsigned integer.
func Uint64(v uint64) Arg {
	return func(e endian.EndianEngine) (uint32, []byte) { return 8, e.AppendUint64(nil, v) }
}

// Float32 encodes an IEEE754 single.
func Float32(v float32) Arg {
	return func(e endian.EndianEngine) (uint32, []byte) { return 4, e.AppendUint32(nil, math.Float32bits(v)) }
}

// Float64 encodes an IEEE754 double.
func Float64(v float64) Arg {
	return func(e endian.EndianEngine) (uint32, []byte) { return 8, e.AppendUint64(nil, math.Float64bits(v)) }
}

// Char encodes a single character.
func Char(c byte) Arg {
	return func(endian.EndianEngine) (uint32, []byte) { return 1, []byte{c} }
}

// String encodes text with its trailing NUL, as the producer does.
func String(s string) Arg {
	return func(endian.EndianEngine) (uint32, []byte) {
		return uint32(len(s) + 1), append([]byte(s), 0) //nolint:gosec
	}
}

// Bytes encodes p verbatim with its real length.
func Bytes(p []byte) Arg {
	return func(endian.EndianEngine) (uint32, []byte) { return uint32(len(p)), p } //nolint:gosec
}

// Declared writes a length prefix that disagrees with the bytes that follow.
func Declared(length uint32, p []byte) Arg {
	return func(endian.EndianEngine) (uint32, []byte) { return length, p }
}
