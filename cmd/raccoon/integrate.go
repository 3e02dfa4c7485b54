package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/raccoon/internal/coverage"
	"github.com/inodb/raccoon/internal/duckdb"
	"github.com/inodb/raccoon/internal/filter"
	"github.com/inodb/raccoon/internal/genome"
	"github.com/inodb/raccoon/internal/integrate"
	"github.com/inodb/raccoon/internal/ledger"
	"github.com/inodb/raccoon/internal/output"
	"github.com/inodb/raccoon/internal/vcf"
)

// Output file names.
const (
	IntegratedFasta = "reference.varcall.integrated.fa"
	LedgerFile      = "varTrack.tsv"
	SanitizedFasta  = "reference.sanitizedVariants.fa"
	SanitizedLedger = "varTrack.sanitized.tsv"
	DecisionsFile   = "sanitize.decisions.tsv"
)

// commonFlagKeys maps config keys to the flags shared by integrate and sanitize.
var commonFlagKeys = map[string]string{
	"coverage.mode":           "coverage-mode",
	"coverage.max_mismatches": "max-mismatches",
	"workers":                 "workers",
	"archive":                 "archive",
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("coverage-mode", coverage.ModeSpan.String(), "coverage counting: span or overlap")
	cmd.Flags().Int("max-mismatches", coverage.DefaultMaxMismatches, "largest NM of a perfect alignment")
	cmd.Flags().Int("workers", 0, "contigs processed concurrently (0 = number of CPUs)")
	cmd.Flags().String("archive", "", "DuckDB file to archive the run in")
}

func newIntegrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integrate <reference.fa> <variants.vcf[,more.vcf...]> <alignments.bam> <outdir>",
		Short: "Fold filtered variant calls into a reference",
		Long: `Apply high-quality homozygous or haploid variant calls to the reference and
record every edit, with the perfect-match read coverage at the time of the edit,
in a ledger (varTrack.tsv).

Calls split across several files (one per chunk of contigs) are given as a
comma-separated list and read in the order listed. Each contig must still
appear as one contiguous run across the combined stream.`,
		Example: `  raccoon integrate ref.fa calls.vcf.gz reads.bam out/
  raccoon integrate --min-qual 50 --workers 8 ref.fa calls.vcf reads.sam out/
  raccoon integrate ref.fa chunk1.vcf.gz,chunk2.vcf.gz reads.bam out/`,
		Args: exactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := map[string]string{
				"filter.min_qual":          "min-qual",
				"filter.min_qd":            "min-qd",
				"filter.max_allele_length": "max-allele-length",
			}
			for k, v := range commonFlagKeys {
				keys[k] = v
			}
			if err := bindFlags(cmd.Flags(), keys); err != nil {
				return err
			}
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			vcfPaths := splitList(args[1])
			if len(vcfPaths) == 0 {
				return &usageError{fmt.Errorf("no variant files in %q", args[1])}
			}
			return runIntegrate(cmd, cfg, args[0], vcfPaths, args[2], args[3])
		},
	}

	cmd.Flags().Float64("min-qual", filter.DefaultMinQual, "minimum QUAL of an accepted variant")
	cmd.Flags().Float64("min-qd", filter.DefaultMinQD, "minimum QD of an accepted variant")
	cmd.Flags().Int("max-allele-length", filter.DefaultMaxAlleleLength, "longest accepted indel allele, anchor base included")
	addCommonFlags(cmd)

	return cmd
}

// splitList splits a comma-separated argument, dropping blank items.
func splitList(arg string) []string {
	var out []string
	for _, item := range strings.Split(arg, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func runIntegrate(cmd *cobra.Command, cfg settings, refPath string, vcfPaths []string, alnPath, outDir string) error {
	ref, err := genome.Load(refPath, logger)
	if err != nil {
		return fmt.Errorf("load reference: %w", err)
	}
	logger.Info("loaded reference",
		zap.String("path", refPath),
		zap.Int("contigs", ref.Len()),
		zap.Int("length", ref.TotalLength()))

	idx, err := coverage.LoadIndex(alnPath, coverage.LoadOptions{
		Mode:          cfg.CoverageMode,
		MaxMismatches: cfg.MaxMismatches,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	parser, err := vcf.NewMultiParser(vcfPaths...)
	if err != nil {
		return err
	}
	defer parser.Close()
	logger.Debug("reading variants", zap.Strings("paths", vcfPaths))

	in := integrate.NewIntegrator(idx)
	in.SetThresholds(cfg.Thresholds)
	in.SetWorkers(cfg.Workers)
	in.SetLogger(logger)

	res, err := in.Integrate(cmd.Context(), ref, parser)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := genome.WriteFile(filepath.Join(outDir, IntegratedFasta), res.Corrected); err != nil {
		return err
	}
	if err := ledger.WriteFile(filepath.Join(outDir, LedgerFile), res.Ledger); err != nil {
		return err
	}

	counters := output.IntegrateCounters(res.Stats)
	if err := output.WriteSummary(cmd.ErrOrStderr(), "Integration", counters); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return archiveRun(cfg.Archive, duckdb.PhaseIntegrate, strings.Join(vcfPaths, ","), func(s *duckdb.Store, runID string) error {
		if err := s.WriteLedger(runID, res.Ledger); err != nil {
			return err
		}
		return s.WriteCounters(runID, counters)
	})
}

// archiveRun records a run in the DuckDB archive when one is configured.
func archiveRun(path string, phase duckdb.Phase, input string, write func(*duckdb.Store, string) error) error {
	if path == "" {
		return nil
	}

	store, err := duckdb.Open(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer store.Close()

	runID, err := store.BeginRun(phase, input)
	if err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	if err := write(store, runID); err != nil {
		return fmt.Errorf("archive run %s: %w", runID, err)
	}

	logger.Info("archived run",
		zap.String("archive", path),
		zap.String("run_id", runID),
		zap.String("phase", string(phase)))
	return nil
}
