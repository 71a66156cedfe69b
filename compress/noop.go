package compress

import (
	"io"

	"github.com/arloliu/minlog/format"
)

// NoOpCodec passes data through unchanged.
type NoOpCodec struct{}

var _ Codec = NoOpCodec{}

// Type implements Codec.
func (NoOpCodec) Type() format.CompressionType { return format.CompressionNone }

// NewReader returns src with a no-op Close.
func (NoOpCodec) NewReader(src io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(src), nil
}

// NewWriter returns dst with a no-op Close.
func (NoOpCodec) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{dst}, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
