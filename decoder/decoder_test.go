package decoder

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/minlog/endian"
	"github.com/arloliu/minlog/errs"
	"github.com/arloliu/minlog/format"
	"github.com/arloliu/minlog/internal/wiretest"
	"github.com/arloliu/minlog/stream"
)

// decodeArg encodes a into a header-less stream and decodes it back as t.
func decodeArg(t *testing.T, engine endian.EndianEngine, typ format.ArgType, a wiretest.Arg) (Value, error, error, *stream.Reader) {
	t.Helper()

	raw := wiretest.NewRaw(engine).Arg(a).Bytes()
	r := stream.NewReader(bytes.NewReader(raw), engine)

	length, err := r.ReadUint32()
	require.NoError(t, err)

	v, warn, err := Decode(r, typ, length)

	return v, warn, err, r
}

func TestDecodeIntegers(t *testing.T) {
	for _, engine := range []endian.EndianEngine{endian.GetLittleEndianEngine(), endian.GetBigEndianEngine()} {
		t.Run(endian.Name(engine), func(t *testing.T) {
			tests := []struct {
				name  string
				typ   format.ArgType
				arg   wiretest.Arg
				int   int64
				uint  uint64
				width int
			}{
				{"int8", format.ArgInt, wiretest.Int8(-5), -5, 0, 1},
				{"int16", format.ArgInt, wiretest.Int16(-300), -300, 0, 2},
				{"int32", format.ArgInt, wiretest.Int32(42), 42, 0, 4},
				{"int64", format.ArgInt, wiretest.Int64(math.MinInt64), math.MinInt64, 0, 8},
				{"uint8", format.ArgUint, wiretest.Uint8(250), 0, 250, 1},
				{"uint16", format.ArgUint, wiretest.Uint16(65535), 0, 65535, 2},
				{"uint32", format.ArgUint, wiretest.Uint32(0xDEADBEEF), 0, 0xDEADBEEF, 4},
				{"uint64", format.ArgUint, wiretest.Uint64(math.MaxUint64), 0, math.MaxUint64, 8},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					v, warn, err, _ := decodeArg(t, engine, tt.typ, tt.arg)
					require.NoError(t, err)
					require.NoError(t, warn)
					require.Equal(t, tt.typ, v.Type)
					require.Equal(t, tt.width, v.Width)
					if tt.typ == format.ArgInt {
						require.Equal(t, tt.int, v.Int())
					} else {
						require.Equal(t, tt.uint, v.Uint())
					}
				})
			}
		})
	}
}

func TestDecodeFloats(t *testing.T) {
	v, warn, err, _ := decodeArg(t, nil, format.ArgFloat, wiretest.Float32(1.5))
	require.NoError(t, err)
	require.NoError(t, warn)
	require.Equal(t, 4, v.Width)
	require.InDelta(t, 1.5, v.Float(), 0)

	v, _, err, _ = decodeArg(t, endian.GetBigEndianEngine(), format.ArgFloat, wiretest.Float64(-2.25e10))
	require.NoError(t, err)
	require.Equal(t, 8, v.Width)
	require.InDelta(t, -2.25e10, v.Float(), 0)
}

func TestDecodeString(t *testing.T) {
	v, warn, err, _ := decodeArg(t, nil, format.ArgString, wiretest.String("eth0"))
	require.NoError(t, err)
	require.NoError(t, warn)
	require.Equal(t, "eth0", v.Text())

	v, warn, err, _ = decodeArg(t, nil, format.ArgString, wiretest.Bytes([]byte("raw")))
	require.NoError(t, err)
	require.ErrorIs(t, warn, errs.ErrMissingNUL)
	require.Equal(t, "raw", v.Text())

	v, warn, err, _ = decodeArg(t, nil, format.ArgString, wiretest.Bytes(nil))
	require.NoError(t, err)
	require.ErrorIs(t, warn, errs.ErrMissingNUL)
	require.Empty(t, v.Text())
}

func TestDecodeCharSingleWidthRecovery(t *testing.T) {
	t.Run("exact width", func(t *testing.T) {
		v, warn, err, _ := decodeArg(t, nil, format.ArgChar, wiretest.Char('x'))
		require.NoError(t, err)
		require.NoError(t, warn)
		require.Equal(t, byte('x'), v.Char())
	})

	t.Run("declared 2 bytes little-endian", func(t *testing.T) {
		v, warn, err, r := decodeArg(t, nil, format.ArgChar, wiretest.Declared(2, []byte{'A', 0}))
		require.NoError(t, err)
		require.ErrorIs(t, warn, errs.ErrSingleWidthArgLength)
		require.Equal(t, byte('A'), v.Char())
		require.Equal(t, int64(4+2), r.Offset(), "declared bytes must be consumed")
	})

	t.Run("declared 4 bytes big-endian", func(t *testing.T) {
		engine := endian.GetBigEndianEngine()
		v, warn, err, r := decodeArg(t, engine, format.ArgChar, wiretest.Declared(4, []byte{0, 0, 0, 'Z'}))
		require.NoError(t, err)
		require.ErrorIs(t, warn, errs.ErrSingleWidthArgLength)
		require.Equal(t, byte('Z'), v.Char())
		require.Equal(t, int64(8), r.Offset())
	})

	t.Run("declared zero", func(t *testing.T) {
		v, warn, err, _ := decodeArg(t, nil, format.ArgChar, wiretest.Declared(0, nil))
		require.NoError(t, err)
		require.ErrorIs(t, warn, errs.ErrSingleWidthArgLength)
		require.Equal(t, byte(0), v.Char())
	})
}

func TestDecodeAmbiguousLength(t *testing.T) {
	tests := []struct {
		typ    format.ArgType
		length uint32
	}{
		{format.ArgInt, 3},
		{format.ArgUint, 0},
		{format.ArgUint, 16},
		{format.ArgFloat, 2},
	}

	for _, tt := range tests {
		_, _, err, r := decodeArg(t, nil, tt.typ, wiretest.Declared(tt.length, make([]byte, tt.length)))
		require.ErrorIs(t, err, errs.ErrAmbiguousArgLength, "%s/%d", tt.typ, tt.length)
		require.Equal(t, int64(4), r.Offset(), "no value bytes are consumed")
	}

	_, _, err, _ := decodeArg(t, nil, format.ArgInt, wiretest.Declared(3, []byte{1, 2, 3}))
	require.ErrorContains(t, err, "1, 2, 4 or 8")
}

func TestDecodeTruncatedValue(t *testing.T) {
	_, _, err, _ := decodeArg(t, nil, format.ArgInt, wiretest.Declared(8, []byte{1, 2}))
	require.ErrorIs(t, err, errs.ErrEndOfStream)

	_, _, err, _ = decodeArg(t, nil, format.ArgString, wiretest.Declared(10, []byte("abc")))
	require.ErrorIs(t, err, errs.ErrEndOfStream)
}

func TestValueString(t *testing.T) {
	require.Equal(t, "-7", IntValue(-7, 4).String())
	require.Equal(t, "7", UintValue(7, 4).String())
	require.Equal(t, "1.5", FloatValue(1.5, 8).String())
	require.Equal(t, "'a'", CharValue('a').String())
	require.Equal(t, `"hi"`, StringValue("hi").String())
	require.Equal(t, "<invalid>", Value{}.String())
}
