package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arloliu/minlog"
	"github.com/arloliu/minlog/registry"
)

func newFormatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "formats FILE",
		Short: "List the format strings registered in a compressed log",
		Long: `Print every format id defined in FILE with its fingerprint, analyzed and
declared argument counts and the raw format text. A stream that aborts still
lists the formats seen before the failure. Reserved ids are marked with *.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			defer a.close()

			return a.runFormats(args[0])
		},
	}
}

func (a *app) runFormats(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	opts, err := a.expandOptions(path)
	if err != nil {
		return err
	}

	recs, catalogErr := minlog.Catalog(f, opts...)
	printCatalog(a, recs)

	if catalogErr != nil {
		return fmt.Errorf("%s: %w", path, catalogErr)
	}

	return nil
}

func printCatalog(a *app, recs []*registry.Record) {
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFINGERPRINT\tARGS\tDECLARED\tFORMAT")
	for _, rec := range recs {
		id := strconv.FormatUint(uint64(rec.ID), 10)
		if rec.Reserved() {
			id += "*"
		}
		fmt.Fprintf(tw, "%s\t%016x\t%s\t%d\t%s\n",
			id, rec.Fingerprint, argTypeList(rec), rec.DeclaredArgs, strconv.Quote(rec.Raw))
	}
	_ = tw.Flush()
}

func argTypeList(rec *registry.Record) string {
	if len(rec.ArgTypes) == 0 {
		return "-"
	}

	names := make([]string, len(rec.ArgTypes))
	for i, t := range rec.ArgTypes {
		names[i] = t.String()
	}

	return strings.Join(names, ",")
}
