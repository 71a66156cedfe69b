package compress

import (
	"io"

	"github.com/klauspost/compress/s2"

	"github.com/arloliu/minlog/format"
)

// S2Codec reads S2 and Snappy framed streams and writes S2 framed streams.
type S2Codec struct{}

var _ Codec = S2Codec{}

// Type implements Codec.
func (S2Codec) Type() format.CompressionType { return format.CompressionS2 }

// NewReader implements Codec.
func (S2Codec) NewReader(src io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(s2.NewReader(src)), nil
}

// NewWriter implements Codec.
func (S2Codec) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return s2.NewWriter(dst, s2.WriterConcurrency(1)), nil
}
