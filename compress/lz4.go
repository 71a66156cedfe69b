package compress

import (
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/minlog/format"
)

// LZ4Codec reads and writes LZ4 frame streams.
type LZ4Codec struct{}

var _ Codec = LZ4Codec{}

// Type implements Codec.
func (LZ4Codec) Type() format.CompressionType { return format.CompressionLZ4 }

// NewReader implements Codec.
func (LZ4Codec) NewReader(src io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(src)), nil
}

// NewWriter implements Codec.
func (LZ4Codec) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	w := lz4.NewWriter(dst)
	if err := w.Apply(lz4.ConcurrencyOption(1)); err != nil {
		return nil, err
	}

	return w, nil
}
