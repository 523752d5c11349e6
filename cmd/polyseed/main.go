package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tordrt/polyseed"
	"github.com/tordrt/polyseed/internal/formatter"
	"github.com/tordrt/polyseed/internal/sink"
)

var (
	configPath  string
	sinkName    string
	newTable    bool
	clearRows   bool
	dialectName string
	seedValue   uint64
	verbose     bool
	describe    bool
	format      string
)

var (
	successFmt = color.New(color.FgGreen).SprintfFunc()
	errorFmt   = color.New(color.FgRed, color.Bold).SprintfFunc()
)

var rootCmd = &cobra.Command{
	Use:   "polyseed",
	Short: "Generate random points inside a polygon region",
	Long: `Polyseed samples uniformly distributed points inside the polygons of a GeoJSON file,
attaches optional random text, integer and timestamp attributes, and writes the rows
to a PostgreSQL/PostGIS, SQLite or MySQL table or to a SQL script.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file (.ini or .yaml)")
	rootCmd.Flags().StringVar(&sinkName, "sink", string(sink.KindDatabase), "Destination: db or script")
	rootCmd.Flags().BoolVar(&newTable, "new-table", false, "Create the table, replacing an existing one (db sink)")
	rootCmd.Flags().BoolVar(&clearRows, "clear", false, "Delete existing rows of a reused table (db sink)")
	rootCmd.Flags().StringVar(&dialectName, "dialect", "", "Script dialect: postgres, sqlite or mysql (default: from config)")
	rootCmd.Flags().Uint64Var(&seedValue, "seed", 0, "Random seed for a reproducible run")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every step")
	rootCmd.Flags().BoolVar(&describe, "describe", false, "Print the table layout and statements without running")
	rootCmd.Flags().StringVarP(&format, "format", "f", "text", "Describe output format: text or markdown")
	_ = rootCmd.MarkFlagRequired("config")
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := polyseed.LoadConfig(configPath)
	if err != nil {
		return err
	}

	opts := polyseed.Options{
		Sink:     sink.Kind(sinkName),
		NewTable: newTable,
		Clear:    clearRows,
		Dialect:  dialectName,
		Logger:   newLogger(cmd.ErrOrStderr(), verbose),
	}
	if cmd.Flags().Changed("seed") {
		seed := seedValue
		opts.Seed = &seed
	}

	if describe {
		f, err := formatter.New(format, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		d, err := polyseed.Describe(cfg, opts)
		if err != nil {
			return err
		}
		return f.Format(d)
	}

	res, err := polyseed.Run(ctx, cfg, opts)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), summary(res))
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func summary(res *polyseed.Result) string {
	rows := humanize.Comma(int64(res.Rows))
	if res.Sink == sink.KindScript {
		return successFmt("Wrote %s rows for table %s to %s", rows, res.Table, res.ScriptPath)
	}
	return successFmt("Committed %s rows to table %s", rows, res.Table)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorFmt("Error: %v", err))
		os.Exit(1)
	}
}
