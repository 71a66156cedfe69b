// Package compress wraps compressed log streams in streaming codecs.
//
// Compressed logs are often rotated and archived in a general purpose
// container. The decoder never needs the whole file in memory, so every codec
// here is a streaming io.Reader / io.WriteCloser pair rather than a block
// compressor:
//   - None: plain passthrough
//   - Zstd: Zstandard frames (klauspost/compress/zstd)
//   - S2: S2 or Snappy framed streams (klauspost/compress/s2)
//   - LZ4: LZ4 frames (pierrec/lz4/v4)
//   - Gzip: gzip members (klauspost/compress/gzip)
//
// NewDetectingReader sniffs the first bytes of an input and picks the codec
// by its frame magic, so callers can hand it any file:
//
//	rc, typ, err := compress.NewDetectingReader(f)
//	if err != nil {
//	    return err
//	}
//	defer rc.Close()
//
// A plain compressed log starts with its own ASCII header, which none of the
// container magics collide with.
package compress
