package compress

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/minlog/format"
)

// sniffSize is the number of leading bytes inspected by Detect.
const sniffSize = 10

var (
	zstdMagic   = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic    = []byte{0x04, 0x22, 0x4D, 0x18}
	gzipMagic   = []byte{0x1F, 0x8B}
	s2Magic     = []byte("\xff\x06\x00\x00S2sTwO")
	snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")
)

// Codec creates streaming readers and writers for one container format.
type Codec interface {
	// Type returns the container format handled by the codec.
	Type() format.CompressionType
	// NewReader returns a reader yielding the decompressed content of src.
	// Closing it releases codec resources but never closes src.
	NewReader(src io.Reader) (io.ReadCloser, error)
	// NewWriter returns a writer compressing into dst. Close flushes the
	// final frame but never closes dst.
	NewWriter(dst io.Writer) (io.WriteCloser, error)
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NoOpCodec{},
	format.CompressionZstd: ZstdCodec{},
	format.CompressionS2:   S2Codec{},
	format.CompressionLZ4:  LZ4Codec{},
	format.CompressionGzip: GzipCodec{},
}

// GetCodec returns the built-in Codec for the given compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}

// Detect identifies the container format from the leading bytes of a stream.
// Unknown prefixes, including a plain compressed log header, are CompressionNone.
func Detect(prefix []byte) format.CompressionType {
	switch {
	case bytes.HasPrefix(prefix, zstdMagic):
		return format.CompressionZstd
	case bytes.HasPrefix(prefix, lz4Magic):
		return format.CompressionLZ4
	case bytes.HasPrefix(prefix, gzipMagic):
		return format.CompressionGzip
	case bytes.HasPrefix(prefix, s2Magic), bytes.HasPrefix(prefix, snappyMagic):
		return format.CompressionS2
	default:
		return format.CompressionNone
	}
}

// NewDetectingReader peeks at the first bytes of src and wraps it with the
// matching decompressor. The returned reader must be closed; closing it does
// not close src.
func NewDetectingReader(src io.Reader) (io.ReadCloser, format.CompressionType, error) {
	br := bufio.NewReader(src)

	prefix, err := br.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, format.CompressionNone, err
	}

	typ := Detect(prefix)
	codec, err := GetCodec(typ)
	if err != nil {
		return nil, typ, err
	}

	rc, err := codec.NewReader(br)
	if err != nil {
		return nil, typ, fmt.Errorf("open %s stream: %w", typ, err)
	}

	return rc, typ, nil
}

// NewWriter wraps dst with the compressor for compressionType.
func NewWriter(compressionType format.CompressionType, dst io.Writer) (io.WriteCloser, error) {
	codec, err := GetCodec(compressionType)
	if err != nil {
		return nil, err
	}

	return codec.NewWriter(dst)
}
