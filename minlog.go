// Package minlog expands compressed binary logs back into text.
//
// A compressed log is written by a native producer that stores every distinct
// printf format string once and afterwards only its id and the raw argument
// bytes. Expanding replays the stream: format metadata is cached the first
// time an id appears and each record is rendered with C printf rules.
//
// # Basic Usage
//
//	summary, err := minlog.ExpandFile("app.log.bin", "app.log.bin.txt", format.CompressionNone)
//	if err != nil {
//	    // err is an *errs.Error; the output holds every record decoded before it.
//	}
//	fmt.Println(summary.Records, "records")
//
// Inputs wrapped in zstd, gzip, lz4 or s2 containers are detected and
// decompressed transparently.
//
// # Package Structure
//
// This package provides convenient top-level wrappers. For fine-grained
// control use the expand package (session driver), registry (format cache),
// decoder (argument values), printf (format analysis and rendering) and
// stream (fixed-width reads) directly.
package minlog

import (
	"errors"
	"io"
	"os"

	"github.com/arloliu/minlog/compress"
	"github.com/arloliu/minlog/errs"
	"github.com/arloliu/minlog/expand"
	"github.com/arloliu/minlog/format"
	"github.com/arloliu/minlog/internal/hash"
	"github.com/arloliu/minlog/registry"
)

// Expand decodes src into dst. src may be a plain or container-compressed
// stream. Neither src nor dst is closed.
func Expand(src io.Reader, dst io.Writer, opts ...expand.Option) (expand.Summary, error) {
	e, err := expand.NewExpander(opts...)
	if err != nil {
		return expand.Summary{}, err
	}

	rc, _, err := compress.NewDetectingReader(src)
	if err != nil {
		return expand.Summary{State: expand.StateAborted}, ioError(expand.PieceHeader, err)
	}
	defer rc.Close()

	return e.Expand(rc, dst)
}

// ExpandFile decodes the file at inPath into a new file at outPath,
// compressing the output with outputCompression. Both files are closed on
// every path; an aborted session leaves the records decoded so far in outPath.
func ExpandFile(inPath, outPath string, outputCompression format.CompressionType, opts ...expand.Option) (summary expand.Summary, err error) {
	in, err := os.Open(inPath)
	if err != nil {
		return expand.Summary{State: expand.StateAborted}, err
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return expand.Summary{State: expand.StateAborted}, err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			err = errors.Join(err, ioError(expand.PieceWriteOutput, closeErr))
		}
	}()

	w, err := compress.NewWriter(outputCompression, out)
	if err != nil {
		return expand.Summary{State: expand.StateAborted}, err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil {
			err = errors.Join(err, ioError(expand.PieceWriteOutput, closeErr))
		}
	}()

	return Expand(in, w, opts...)
}

// Catalog decodes src without keeping the text and returns the formats it
// registers, ordered by id. On abort the formats registered so far are
// returned together with the error.
func Catalog(src io.Reader, opts ...expand.Option) ([]*registry.Record, error) {
	summary, err := Expand(src, io.Discard, opts...)
	return summary.Catalog, err
}

// OutputPath returns the conventional output name for input: the input path
// followed by ext and the compression suffix.
func OutputPath(input, ext string, outputCompression format.CompressionType) string {
	return input + ext + outputCompression.Extension()
}

// Fingerprint returns the 64-bit fingerprint of a raw format string, as
// reported in registry.Record.Fingerprint.
func Fingerprint(formatText string) uint64 {
	return hash.Fingerprint(formatText)
}

func ioError(piece string, err error) error {
	return &errs.Error{Kind: errs.ErrIO, Piece: piece, Err: err}
}
