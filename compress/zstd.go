package compress

import (
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/arloliu/minlog/format"
)

// zstdDecoderPool pools streaming decoders. A decoder is reset onto each new
// source and returned on Close.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(true),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}

		return decoder
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
		}

		return encoder
	},
}

// ZstdCodec reads and writes Zstandard frame streams.
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}

// Type implements Codec.
func (ZstdCodec) Type() format.CompressionType { return format.CompressionZstd }

// NewReader implements Codec using a pooled decoder.
func (ZstdCodec) NewReader(src io.Reader) (io.ReadCloser, error) {
	decoder, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	if err := decoder.Reset(src); err != nil {
		zstdDecoderPool.Put(decoder)
		return nil, err
	}

	return &zstdReader{decoder: decoder}, nil
}

// NewWriter implements Codec using a pooled encoder.
func (ZstdCodec) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	encoder, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	encoder.Reset(dst)

	return &zstdWriter{encoder: encoder}, nil
}

type zstdReader struct {
	decoder *zstd.Decoder
}

func (r *zstdReader) Read(p []byte) (int, error) {
	if r.decoder == nil {
		return 0, io.ErrClosedPipe
	}

	return r.decoder.Read(p)
}

func (r *zstdReader) Close() error {
	if r.decoder == nil {
		return nil
	}
	zstdDecoderPool.Put(r.decoder)
	r.decoder = nil

	return nil
}

type zstdWriter struct {
	encoder *zstd.Encoder
}

func (w *zstdWriter) Write(p []byte) (int, error) {
	if w.encoder == nil {
		return 0, io.ErrClosedPipe
	}

	return w.encoder.Write(p)
}

func (w *zstdWriter) Close() error {
	if w.encoder == nil {
		return nil
	}
	err := w.encoder.Close()
	zstdEncoderPool.Put(w.encoder)
	w.encoder = nil

	return err
}
