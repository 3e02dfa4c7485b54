package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/raccoon/internal/genome"
)

func newPartitionCmd() *cobra.Command {
	var (
		chunks int
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "partition <reference.fa>",
		Short: "Split contigs into length-balanced chunks",
		Long: `Assign contigs to N chunks of roughly equal total length, for running
alignment and variant calling in parallel. Prints one "chunk<TAB>contig" line
per contig; with --outdir also writes chunk_<i>.fa files.`,
		Example: `  raccoon partition ref.fa --chunks 8
  raccoon partition ref.fa --chunks 8 --outdir chunks/`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if chunks <= 0 {
				return &usageError{fmt.Errorf("--chunks must be positive, got %d", chunks)}
			}
			return runPartition(cmd, args[0], chunks, outDir)
		},
	}

	cmd.Flags().IntVarP(&chunks, "chunks", "n", 1, "number of chunks")
	cmd.Flags().StringVarP(&outDir, "outdir", "o", "", "write each chunk as a FASTA file in this directory")

	return cmd
}

func runPartition(cmd *cobra.Command, refPath string, chunks int, outDir string) error {
	ref, err := genome.Load(refPath, logger)
	if err != nil {
		return fmt.Errorf("load reference: %w", err)
	}

	groups, err := genome.Partition(ref, chunks)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, ids := range groups {
		for _, id := range ids {
			fmt.Fprintf(out, "%d\t%s\n", i, id)
		}
	}

	if outDir == "" {
		return nil
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for i, ids := range groups {
		chunk := genome.NewCollection()
		for _, id := range ids {
			s, _ := ref.Get(id)
			if err := chunk.Add(s); err != nil {
				return err
			}
		}
		path := filepath.Join(outDir, fmt.Sprintf("chunk_%d.fa", i))
		if err := genome.WriteFile(path, chunk); err != nil {
			return err
		}
		logger.Debug("wrote chunk",
			zap.String("path", path),
			zap.Int("contigs", chunk.Len()),
			zap.Int("length", chunk.TotalLength()))
	}
	return nil
}

func newCheckHeadersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-headers <reference.fa>",
		Short: "Check that sequence identifiers are safe for downstream tools",
		Long: `Fail if any sequence identifier contains characters other than
a-z A-Z 0-9 _ . - ! ? = + ( ) : #.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := genome.Load(args[0], logger)
			if err != nil {
				return fmt.Errorf("load reference: %w", err)
			}
			if err := genome.CheckIdentifiers(ref); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d identifiers ok\n", ref.Len())
			return nil
		},
	}
}
