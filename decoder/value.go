package decoder

import (
	"math"
	"strconv"

	"github.com/arloliu/minlog/format"
)

// Value is one decoded argument.
//
// The active field is selected by Type: ArgInt uses the signed view, ArgUint
// and ArgChar the unsigned view, ArgFloat the float view and ArgString the
// text. Width is the on-wire width the value was interpreted with.
type Value struct {
	Type  format.ArgType
	Width int
	bits  uint64
	text  string
}

// IntValue builds a signed integer value of the given width.
func IntValue(v int64, width int) Value {
	return Value{Type: format.ArgInt, Width: width, bits: uint64(v)} //nolint:gosec
}

// UintValue builds an unsigned integer value of the given width.
func UintValue(v uint64, width int) Value {
	return Value{Type: format.ArgUint, Width: width, bits: v}
}

// FloatValue builds a float value of the given width (4 or 8).
func FloatValue(v float64, width int) Value {
	return Value{Type: format.ArgFloat, Width: width, bits: math.Float64bits(v)}
}

// CharValue builds a single character value.
func CharValue(c byte) Value {
	return Value{Type: format.ArgChar, Width: 1, bits: uint64(c)}
}

// StringValue builds a text value.
func StringValue(s string) Value {
	return Value{Type: format.ArgString, Width: len(s), text: s}
}

// Int returns the signed view of an ArgInt value.
func (v Value) Int() int64 {
	return int64(v.bits) //nolint:gosec
}

// Uint returns the unsigned view of an ArgUint or ArgChar value.
func (v Value) Uint() uint64 {
	return v.bits
}

// Float returns the float view of an ArgFloat value.
func (v Value) Float() float64 {
	return math.Float64frombits(v.bits)
}

// Char returns the byte of an ArgChar value.
func (v Value) Char() byte {
	return byte(v.bits)
}

// Text returns the text of an ArgString value.
func (v Value) Text() string {
	return v.text
}

// String renders the value for diagnostics.
func (v Value) String() string {
	switch v.Type {
	case format.ArgChar:
		return strconv.QuoteRune(rune(v.Char()))
	case format.ArgInt:
		return strconv.FormatInt(v.Int(), 10)
	case format.ArgUint:
		return strconv.FormatUint(v.Uint(), 10)
	case format.ArgFloat:
		bitSize := 64
		if v.Width == 4 {
			bitSize = 32
		}

		return strconv.FormatFloat(v.Float(), 'g', -1, bitSize)
	case format.ArgString:
		return strconv.Quote(v.text)
	default:
		return "<invalid>"
	}
}
