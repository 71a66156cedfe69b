// Package format holds the wire-level constants and type tags of the compressed log format.
//
// A compressed log stream is the literal Magic header followed by records:
//
//	format_id          uint32
//	[first use only]
//	format_len         uint32
//	format_bytes       format_len bytes, ASCII, trailing NUL
//	declared_arg_count uint32
//	[per argument of the resolved format]
//	arg_len            uint32
//	arg_bytes          arg_len bytes
//
// All integers are tightly packed and share one byte order (little-endian unless
// configured otherwise, see the endian package).
package format

type (
	ArgType         uint8
	CompressionType uint8
)

// Magic is the literal header at the start of every compressed log stream.
const Magic = "IRON COMPRESSED LOG"

// Format ids the producer reserves for its own records.
const (
	StartTimeFormatID    uint32 = 0 // StartTimeFormatID is the "Logging Started at" banner.
	PrefixFormatID       uint32 = 1 // PrefixFormatID is the per-line timestamp/level/class prefix.
	DestroyFormatID      uint32 = 2 // DestroyFormatID is the application shutdown banner.
	FirstRegularFormatID uint32 = 100
)

// IsReservedFormatID reports whether id belongs to the producer's internal records.
func IsReservedFormatID(id uint32) bool {
	return id < FirstRegularFormatID
}

const (
	ArgChar   ArgType = 0x1 // ArgChar is a single character, 1 byte.
	ArgInt    ArgType = 0x2 // ArgInt is a signed integer of 1, 2, 4 or 8 bytes.
	ArgUint   ArgType = 0x3 // ArgUint is an unsigned integer of 1, 2, 4 or 8 bytes.
	ArgFloat  ArgType = 0x4 // ArgFloat is an IEEE754 single or double.
	ArgString ArgType = 0x5 // ArgString is text of any length with an optional trailing NUL.
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents a plain stream.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents a Zstandard frame stream.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents an S2/Snappy framed stream.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents an LZ4 frame stream.
	CompressionGzip CompressionType = 0x5 // CompressionGzip represents a gzip stream.
)

var (
	charWidths  = []int{1}
	intWidths   = []int{1, 2, 4, 8}
	floatWidths = []int{4, 8}
)

// Widths returns the acceptable on-wire byte widths of t.
// ArgString accepts any width and returns nil.
func (t ArgType) Widths() []int {
	switch t {
	case ArgChar:
		return charWidths
	case ArgInt, ArgUint:
		return intWidths
	case ArgFloat:
		return floatWidths
	case ArgString:
		return nil
	default:
		return nil
	}
}

// AcceptsWidth reports whether n is a valid on-wire width for t.
func (t ArgType) AcceptsWidth(n int) bool {
	if t == ArgString {
		return true
	}

	for _, w := range t.Widths() {
		if w == n {
			return true
		}
	}

	return false
}

// SingleWidth reports whether t has exactly one acceptable width.
func (t ArgType) SingleWidth() bool {
	return len(t.Widths()) == 1
}

// Valid reports whether t is one of the defined argument types.
func (t ArgType) Valid() bool {
	return t >= ArgChar && t <= ArgString
}

func (t ArgType) String() string {
	switch t {
	case ArgChar:
		return "Char"
	case ArgInt:
		return "Int"
	case ArgUint:
		return "UInt"
	case ArgFloat:
		return "Float"
	case ArgString:
		return "String"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionGzip:
		return "Gzip"
	default:
		return "Unknown"
	}
}

// ParseCompressionType converts a configuration name ("none", "zstd", "s2",
// "lz4", "gzip") to a CompressionType. The empty string means none.
func ParseCompressionType(name string) (CompressionType, bool) {
	switch name {
	case "", "none", "None":
		return CompressionNone, true
	case "zstd", "Zstd":
		return CompressionZstd, true
	case "s2", "S2":
		return CompressionS2, true
	case "lz4", "LZ4":
		return CompressionLZ4, true
	case "gzip", "Gzip", "gz":
		return CompressionGzip, true
	default:
		return 0, false
	}
}

// Extension returns the conventional file suffix for c, empty for none.
func (c CompressionType) Extension() string {
	switch c {
	case CompressionZstd:
		return ".zst"
	case CompressionS2:
		return ".s2"
	case CompressionLZ4:
		return ".lz4"
	case CompressionGzip:
		return ".gz"
	default:
		return ""
	}
}
