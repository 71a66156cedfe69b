// Package decoder turns length-prefixed argument bytes into typed values.
//
// Each argument type has a set of acceptable on-wire widths (see
// format.ArgType.Widths). The declared length read from the stream is
// validated against that set before interpretation:
//
//   - String accepts any length; one trailing NUL is stripped.
//   - Char has a single width. A different declared length is recovered: the
//     declared bytes are consumed and the least-significant byte (under the
//     stream byte order) is taken as the character.
//   - Int, UInt and Float have several widths. A length outside the set leaves
//     the decoder unable to know how the value was laid out, so it fails with
//     errs.ErrAmbiguousArgLength and the stream must be abandoned.
package decoder

import (
	"fmt"
	"math"

	"github.com/arloliu/minlog/endian"
	"github.com/arloliu/minlog/errs"
	"github.com/arloliu/minlog/format"
	"github.com/arloliu/minlog/stream"
)

// Decode reads one argument of type t whose declared length is length.
//
// Returns:
//   - Value: the decoded value (zero Value when err is non-nil)
//   - warning: non-nil for recovered conditions (errs.ErrSingleWidthArgLength, errs.ErrMissingNUL)
//   - err: errs.ErrAmbiguousArgLength, an end of stream, or a source failure
func Decode(r *stream.Reader, t format.ArgType, length uint32) (v Value, warning error, err error) {
	n := int(length)

	switch t {
	case format.ArgString:
		s, warn, err := r.ReadString(n, true)
		if err != nil {
			return Value{}, nil, err
		}

		return StringValue(s), warn, nil

	case format.ArgChar:
		if !t.AcceptsWidth(n) {
			warning = fmt.Errorf("%w: %s should be 1 byte, was %d; assuming 1 byte",
				errs.ErrSingleWidthArgLength, t, n)
		}

		b, err := r.ReadFixed(n)
		if err != nil {
			return Value{}, nil, err
		}

		return CharValue(leastSignificantByte(b, r.Engine())), warning, nil

	case format.ArgInt, format.ArgUint, format.ArgFloat:
		if !t.AcceptsWidth(n) {
			return Value{}, nil, fmt.Errorf("%w: %s must have a length of %s, was %d",
				errs.ErrAmbiguousArgLength, t, widthList(t.Widths()), n)
		}

		b, err := r.ReadFixed(n)
		if err != nil {
			return Value{}, nil, err
		}

		return decodeFixed(t, b, r.Engine()), nil, nil

	default:
		return Value{}, nil, fmt.Errorf("unknown argument type %d", uint8(t))
	}
}

// decodeFixed interprets b, whose length is already validated for t.
func decodeFixed(t format.ArgType, b []byte, engine endian.EndianEngine) Value {
	width := len(b)

	if t == format.ArgFloat {
		if width == 4 {
			return FloatValue(float64(math.Float32frombits(engine.Uint32(b))), width)
		}

		return FloatValue(math.Float64frombits(engine.Uint64(b)), width)
	}

	var u uint64
	switch width {
	case 1:
		u = uint64(b[0])
	case 2:
		u = uint64(engine.Uint16(b))
	case 4:
		u = uint64(engine.Uint32(b))
	case 8:
		u = engine.Uint64(b)
	}

	if t == format.ArgUint {
		return UintValue(u, width)
	}

	return IntValue(signExtend(u, width), width)
}

func signExtend(u uint64, width int) int64 {
	switch width {
	case 1:
		return int64(int8(u)) //nolint:gosec
	case 2:
		return int64(int16(u)) //nolint:gosec
	case 4:
		return int64(int32(u)) //nolint:gosec
	default:
		return int64(u) //nolint:gosec
	}
}

func leastSignificantByte(b []byte, engine endian.EndianEngine) byte {
	if len(b) == 0 {
		return 0
	}
	if endian.IsLittleEndian(engine) {
		return b[0]
	}

	return b[len(b)-1]
}

// widthList renders widths as "1, 2, 4 or 8".
func widthList(widths []int) string {
	s := ""
	for i, w := range widths {
		switch {
		case i == 0:
		case i == len(widths)-1:
			s += " or "
		default:
			s += ", "
		}
		s += fmt.Sprint(w)
	}

	return s
}
