package compress

import (
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/arloliu/minlog/format"
)

// GzipCodec reads and writes gzip streams, including concatenated members.
type GzipCodec struct{}

var _ Codec = GzipCodec{}

// Type implements Codec.
func (GzipCodec) Type() format.CompressionType { return format.CompressionGzip }

// NewReader implements Codec.
func (GzipCodec) NewReader(src io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(src)
}

// NewWriter implements Codec.
func (GzipCodec) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(dst), nil
}
