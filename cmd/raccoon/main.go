// Package main provides the raccoon command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string
	logger    = zap.NewNop()
)

// usageError marks errors caused by bad arguments or flags.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// exactArgs is cobra.ExactArgs reporting failures as usage errors.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return ExitSuccess
	}

	var uerr *usageError
	if errors.As(err, &uerr) || strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		fmt.Fprint(os.Stderr, cmd.UsageString())
		return ExitUsage
	}

	logger.Error("command failed", zap.Error(err))
	_ = logger.Sync()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return ExitError
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "raccoon",
		Short: "Iterative assembly error correction from variant calls",
		Long: `raccoon corrects a reference assembly with variant calls made from reads
aligned back to it, then re-checks every edit against a fresh alignment and
reverts the ones that lost read support.`,
		Example: `  # Fold variants into the reference
  raccoon integrate ref.fa calls.vcf.gz reads.bam out/

  # Re-check edits after re-aligning reads to out/reference.varcall.integrated.fa
  raccoon sanitize out/reference.varcall.integrated.fa remapped.bam out/varTrack.tsv out/`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			return initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.raccoon.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log encoding: json or console")

	root.AddCommand(newIntegrateCmd())
	root.AddCommand(newSanitizeCmd())
	root.AddCommand(newPartitionCmd())
	root.AddCommand(newCheckHeadersCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func initLogger() error {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	switch logFormat {
	case "json":
	case "console":
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return &usageError{fmt.Errorf("unknown log format %q (want json or console)", logFormat)}
	}

	l, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  exactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "raccoon version %s (%s) built %s\n", version, commit, date)
		},
	}
}
