package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/inodb/raccoon/internal/coverage"
	"github.com/inodb/raccoon/internal/duckdb"
	"github.com/inodb/raccoon/internal/genome"
	"github.com/inodb/raccoon/internal/ledger"
	"github.com/inodb/raccoon/internal/output"
	"github.com/inodb/raccoon/internal/sanitize"
)

func newSanitizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanitize <corrected.fa> <alignments.bam> <varTrack.tsv> <outdir>",
		Short: "Revert edits that lost read support",
		Long: `Re-measure perfect-match coverage of every ledger entry on reads re-aligned
to the corrected assembly. Edits whose coverage dropped, or that had no
coverage before and after, are reverted to the original allele.`,
		Example: `  raccoon sanitize out/reference.varcall.integrated.fa remapped.bam out/varTrack.tsv out/`,
		Args:    exactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd.Flags(), commonFlagKeys); err != nil {
				return err
			}
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			return runSanitize(cmd, cfg, args[0], args[1], args[2], args[3])
		},
	}

	addCommonFlags(cmd)
	return cmd
}

func runSanitize(cmd *cobra.Command, cfg settings, correctedPath, alnPath, ledgerPath, outDir string) error {
	corrected, err := genome.Load(correctedPath, logger)
	if err != nil {
		return fmt.Errorf("load corrected sequences: %w", err)
	}

	l, err := ledger.Load(ledgerPath)
	if err != nil {
		return err
	}

	idx, err := coverage.LoadIndex(alnPath, coverage.LoadOptions{
		Mode:          cfg.CoverageMode,
		MaxMismatches: cfg.MaxMismatches,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	s := sanitize.NewSanitizer(idx)
	s.SetWorkers(cfg.Workers)
	s.SetLogger(logger)

	res, err := s.Sanitize(cmd.Context(), corrected, l)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := genome.WriteFile(filepath.Join(outDir, SanitizedFasta), res.Final); err != nil {
		return err
	}
	if err := ledger.WriteFile(filepath.Join(outDir, SanitizedLedger), res.Kept); err != nil {
		return err
	}
	if err := writeDecisionsFile(filepath.Join(outDir, DecisionsFile), res.Decisions); err != nil {
		return err
	}

	counters := output.SanitizeCounters(res.Stats)
	if err := output.WriteSummary(cmd.ErrOrStderr(), "Sanitize", counters); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return archiveRun(cfg.Archive, duckdb.PhaseSanitize, ledgerPath, func(st *duckdb.Store, runID string) error {
		if err := st.WriteDecisions(runID, res.Decisions); err != nil {
			return err
		}
		if err := st.WriteLedger(runID, res.Kept); err != nil {
			return err
		}
		return st.WriteCounters(runID, counters)
	})
}

func writeDecisionsFile(path string, decisions []sanitize.Decision) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create decisions file: %w", err)
	}
	if err := output.WriteDecisions(f, decisions); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
