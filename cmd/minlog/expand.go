package main

import (
	"fmt"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arloliu/minlog"
	"github.com/arloliu/minlog/expand"
	"github.com/arloliu/minlog/internal/metrics"
)

type expandFlags struct {
	extension         string
	outputCompression string
	metricsTextfile   string
}

func newExpandCmd(a *app) *cobra.Command {
	flags := &expandFlags{}

	cmd := &cobra.Command{
		Use:   "expand PATTERN...",
		Short: "Expand compressed logs into text files",
		Long: `Expand every file matching the given patterns. Patterns may use ** to
match across directories. Each input INPUT is written to INPUT<extension>,
plus the output compression suffix when one is selected.

A file that cannot be expanded is reported and the next file is processed;
the exit status is non-zero when any file failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()

			if cmd.Flags().Changed("extension") {
				a.cfg.Extension = flags.extension
			}
			if cmd.Flags().Changed("output-compression") {
				a.cfg.OutputCompression = flags.outputCompression
			}
			if cmd.Flags().Changed("metrics-textfile") {
				a.cfg.Metrics.Textfile = flags.metricsTextfile
			}

			return a.runExpand(args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.extension, "extension", "e", ".txt", "suffix appended to each input path to name its output")
	f.StringVar(&flags.outputCompression, "output-compression", "none", "compress outputs with none, zstd, s2, lz4 or gzip")
	f.StringVar(&flags.metricsTextfile, "metrics-textfile", "", "write Prometheus counters to this file when done")

	return cmd
}

func (a *app) runExpand(patterns []string) error {
	compression, err := a.cfg.Compression()
	if err != nil {
		return err
	}

	files, err := resolveInputs(patterns)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	report := newReporter(a.stdout, a.stderr, a.quiet)

	failed := 0
	for _, in := range files {
		out := minlog.OutputPath(in, a.cfg.Extension, compression)

		opts, err := a.expandOptions(in)
		if err != nil {
			return err
		}
		sessionRan := false
		opts = append(opts,
			expand.WithObserver(collector),
			expand.WithObserver(expand.ObserverFunc(func(expand.Summary, error) { sessionRan = true })),
		)

		summary, err := minlog.ExpandFile(in, out, compression, opts...)
		if err != nil {
			failed++
			if !sessionRan {
				collector.InputFailed()
			}
			a.logger.Error("expansion failed", zap.String("file", in), zap.Error(err))
		}
		report.file(in, out, summary, err)
	}

	if a.cfg.Metrics.Textfile != "" {
		if err := collector.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			a.logger.Error("write metrics textfile", zap.String("path", a.cfg.Metrics.Textfile), zap.Error(err))
		}
	}

	report.total(len(files), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}

	return nil
}

// resolveInputs expands patterns with ** support. A pattern without matches
// is kept as a literal path so the missing file is reported per file.
func resolveInputs(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expand pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}

		for _, m := range matches {
			if !slices.Contains(files, m) {
				files = append(files, m)
			}
		}
	}

	return files, nil
}
