package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arloliu/minlog/expand"
	"github.com/arloliu/minlog/internal/config"
	"github.com/arloliu/minlog/internal/logging"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	byteOrder  string
	logLevel   string
	quiet      bool
}

// app is the state a subcommand runs with, built in PersistentPreRunE.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	closeLog func() error
	stdout   io.Writer
	stderr   io.Writer
	quiet    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "minlog",
		Short: "Expand compressed binary logs into text",
		Long: `minlog decodes logs written by the native compressed logger.

Each input is a stream of format ids and raw argument bytes; minlog replays
the format strings with C printf rules and writes one text file per input.
Inputs wrapped in zstd, gzip, lz4 or s2 containers are detected automatically.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, flags)
		},
	}

	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to a YAML configuration file")
	pf.StringVar(&flags.byteOrder, "byte-order", "", "byte order of fixed-width fields: little, big or native (default little)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "only report errors")

	root.AddCommand(newExpandCmd(a), newFormatsCmd(a))

	return root
}

// setup loads the configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, flags *globalFlags) error {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("byte-order") {
		cfg.ByteOrder = flags.byteOrder
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.quiet {
		cfg.Logging.Level = "error"
	}
	a.quiet = flags.quiet

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := logging.New(cfg.Logging, a.stderr)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.closeLog = closeLog

	return nil
}

// close releases the log file. Subcommands defer it so it also runs when
// they fail.
func (a *app) close() {
	if a.closeLog != nil {
		_ = a.closeLog()
		a.closeLog = nil
	}
}

// expandOptions returns the session options shared by all subcommands.
func (a *app) expandOptions(file string) ([]expand.Option, error) {
	engine, err := a.cfg.Engine()
	if err != nil {
		return nil, err
	}

	return []expand.Option{
		expand.WithByteOrder(engine),
		expand.WithLogger(a.logger.With(zap.String("file", file))),
	}, nil
}
