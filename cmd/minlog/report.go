package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/arloliu/minlog/expand"
)

// reporter prints one line per expanded file and a closing total.
type reporter struct {
	stdout io.Writer
	stderr io.Writer
	quiet  bool

	ok   *color.Color
	fail *color.Color
	warn *color.Color
	bold *color.Color
}

func newReporter(stdout, stderr io.Writer, quiet bool) *reporter {
	return &reporter{
		stdout: stdout,
		stderr: stderr,
		quiet:  quiet,
		ok:     color.New(color.FgGreen),
		fail:   color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow),
		bold:   color.New(color.Bold),
	}
}

func (r *reporter) file(in, out string, s expand.Summary, err error) {
	if err != nil {
		r.fail.Fprint(r.stderr, "FAIL ")
		fmt.Fprintf(r.stderr, "%s: %v\n", in, err)
		if s.Records > 0 {
			fmt.Fprintf(r.stderr, "     %s records kept in %s\n", humanize.Comma(int64(s.Records)), out)
		}

		return
	}

	if r.quiet {
		return
	}

	r.ok.Fprint(r.stdout, "ok   ")
	fmt.Fprintf(r.stdout, "%s -> %s: %s records, %d formats, %s read, %s written",
		in, out,
		humanize.Comma(int64(s.Records)),
		s.Formats(),
		humanize.Bytes(uint64(max(s.BytesRead, 0))),
		humanize.Bytes(uint64(max(s.BytesWritten, 0))),
	)
	if s.Skipped > 0 {
		fmt.Fprintf(r.stdout, ", %d skipped", s.Skipped)
	}
	if n := len(s.Warnings); n > 0 {
		r.warn.Fprintf(r.stdout, ", %d warnings", n)
	}
	fmt.Fprintln(r.stdout)
}

func (r *reporter) total(files, failed int) {
	if r.quiet && failed == 0 {
		return
	}

	w := r.stdout
	if failed > 0 {
		w = r.stderr
	}
	r.bold.Fprintf(w, "%d files, %d failed\n", files, failed)
}
