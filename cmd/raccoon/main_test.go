package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/raccoon/internal/duckdb"
	"github.com/inodb/raccoon/internal/genome"
	"github.com/inodb/raccoon/internal/integrate"
	"github.com/inodb/raccoon/internal/ledger"
)

const samHeader = "@HD\tVN:1.6\tSO:coordinate\n@SQ\tSN:chr1\tLN:15\n"

// execute runs the root command with a fresh config file.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	cfgFile, verbose, logFormat = "", false, "json"

	cfg := writeFile(t, t.TempDir(), "raccoon.yaml", "")

	root := newRootCmd()
	root.SetArgs(append([]string{"--config", cfg}, args...))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIntegrateThenSanitize(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	archive := filepath.Join(dir, "runs.duckdb")

	ref := writeFile(t, dir, "ref.fa", ">chr1\nAAAAACCCCC\nGGGGG\n")
	calls := writeFile(t, dir, "calls.vcf", "##fileformat=VCFv4.2\n"+
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n"+
		"chr1\t6\t.\tC\tT\t50\tPASS\tQD=5\tGT:AD\t1/1:0,12\n"+
		"chr1\t9\t.\tC\tG\t12\tPASS\tQD=5\tGT:AD\t1/1:0,12\n")
	reads := writeFile(t, dir, "reads.sam", samHeader+
		"r1\t0\tchr1\t4\t60\t6M\t*\t0\t0\tAACCCC\t*\tNM:i:0\n"+
		"r2\t0\tchr1\t5\t60\t6M\t*\t0\t0\tACCCCC\t*\tNM:i:1\n")

	out, err := execute(t, "integrate", "--archive", archive, ref, calls, reads, outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "integrated_snv      1")
	assert.Contains(t, out, "filtered            1")

	corrected, err := genome.Load(filepath.Join(outDir, IntegratedFasta), nil)
	require.NoError(t, err)
	s, _ := corrected.Get("chr1")
	assert.Equal(t, "AAAAATCCCCGGGGG", s.Residues())

	l, err := ledger.Load(filepath.Join(outDir, LedgerFile))
	require.NoError(t, err)
	assert.Equal(t, []ledger.Entry{
		{Contig: "chr1", Start: 5, End: 6, Inserted: "T", Original: "C", Coverage: 2},
	}, l.Entries())

	// No reads support the edit after re-alignment.
	remapped := writeFile(t, dir, "remapped.sam", samHeader)
	out, err = execute(t, "sanitize", "--archive", archive,
		filepath.Join(outDir, IntegratedFasta), remapped, filepath.Join(outDir, LedgerFile), outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "reverted            1")

	final, err := genome.Load(filepath.Join(outDir, SanitizedFasta), nil)
	require.NoError(t, err)
	s, _ = final.Get("chr1")
	assert.Equal(t, "AAAAACCCCCGGGGG", s.Residues())

	kept, err := ledger.Load(filepath.Join(outDir, SanitizedLedger))
	require.NoError(t, err)
	assert.Equal(t, 0, kept.Len())

	decisions, err := os.ReadFile(filepath.Join(outDir, DecisionsFile))
	require.NoError(t, err)
	assert.Contains(t, string(decisions), "chr1\t5\t6\tT\tC\t2\t0\treverted")

	store, err := duckdb.Open(archive)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, duckdb.PhaseIntegrate, runs[0].Phase)
	assert.Equal(t, duckdb.PhaseSanitize, runs[1].Phase)

	reverted, err := store.RevertedEntries(runs[1].ID)
	require.NoError(t, err)
	require.Len(t, reverted, 1)
	assert.Equal(t, "T", reverted[0].Inserted)
}

func TestIntegrate_MinQualFlag(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.fa", ">chr1\nAAAAACCCCCGGGGG\n")
	calls := writeFile(t, dir, "calls.vcf", "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n"+
		"chr1\t6\t.\tC\tT\t50\tPASS\tQD=5\tGT\t1/1\n")
	reads := writeFile(t, dir, "reads.sam", samHeader)

	out, err := execute(t, "integrate", "--min-qual", "60", ref, calls, reads, filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Contains(t, out, "filtered            1")
}

func TestIntegrate_UnknownContig(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.fa", ">chr1\nAAAAACCCCCGGGGG\n")
	calls := writeFile(t, dir, "calls.vcf", "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n"+
		"chr9\t6\t.\tC\tT\t50\tPASS\tQD=5\tGT\t1/1\n")
	reads := writeFile(t, dir, "reads.sam", samHeader)

	_, err := execute(t, "integrate", ref, calls, reads, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chr9")
}

const vcfHeader = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n"

func TestIntegrate_ChunkedVariants(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	ref := writeFile(t, dir, "ref.fa", ">chr1\nAAAAACCCCCGGGGG\n>chr2\nTTTTGGGG\n")
	chunk1 := writeFile(t, dir, "chunk1.vcf", vcfHeader+
		"chr1\t6\t.\tCC\tTT\t50\tPASS\tQD=5\tGT\t1/1\n")
	chunk2 := writeFile(t, dir, "chunk2.vcf", vcfHeader+
		"chr2\t2\t.\tT\tA\t50\tPASS\tQD=5\tGT\t1/1\n")
	reads := writeFile(t, dir, "reads.sam", samHeader)

	out, err := execute(t, "integrate", ref, chunk1+","+chunk2, reads, outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "integrated_snv      1")
	assert.Contains(t, out, "integrated_indel    1")

	corrected, err := genome.Load(filepath.Join(outDir, IntegratedFasta), nil)
	require.NoError(t, err)
	s, _ := corrected.Get("chr1")
	assert.Equal(t, "AAAAATTCCCGGGGG", s.Residues())
	s, _ = corrected.Get("chr2")
	assert.Equal(t, "TATTGGGG", s.Residues())

	l, err := ledger.Load(filepath.Join(outDir, LedgerFile))
	require.NoError(t, err)
	assert.Equal(t, []ledger.Entry{
		{Contig: "chr1", Start: 5, End: 7, Inserted: "TT", Original: "CC"},
		{Contig: "chr2", Start: 1, End: 2, Inserted: "A", Original: "T"},
	}, l.Entries())
}

func TestIntegrate_ChunkedVariantsContigSplit(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.fa", ">chr1\nAAAAACCCCCGGGGG\n>chr2\nTTTTGGGG\n")
	chunk1 := writeFile(t, dir, "chunk1.vcf", vcfHeader+
		"chr1\t3\t.\tA\tT\t50\tPASS\tQD=5\tGT\t1/1\n"+
		"chr2\t2\t.\tT\tA\t50\tPASS\tQD=5\tGT\t1/1\n")
	chunk2 := writeFile(t, dir, "chunk2.vcf", vcfHeader+
		"chr1\t8\t.\tC\tT\t50\tPASS\tQD=5\tGT\t1/1\n")
	reads := writeFile(t, dir, "reads.sam", samHeader)

	_, err := execute(t, "integrate", ref, chunk1+","+chunk2, reads, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.ErrorIs(t, err, integrate.ErrUnsorted)
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a.vcf", []string{"a.vcf"}},
		{"a.vcf,b.vcf.gz", []string{"a.vcf", "b.vcf.gz"}},
		{" a.vcf , ,b.vcf,", []string{"a.vcf", "b.vcf"}},
		{",", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitList(tt.in), tt.in)
	}
}

func TestSanitize_MalformedLedger(t *testing.T) {
	dir := t.TempDir()
	fa := writeFile(t, dir, "c.fa", ">chr1\nAAAAATCCCCGGGGG\n")
	reads := writeFile(t, dir, "reads.sam", samHeader)
	track := writeFile(t, dir, "varTrack.tsv", "chr1\t5\tsix\tT\tC\t3\n")

	_, err := execute(t, "sanitize", fa, reads, track, filepath.Join(dir, "out"))
	var perr *ledger.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Line)
}

func TestPartitionCmd(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.fa", ">a\nAAAAAAAAAA\n>b\nCCCCCCCCCCCCCCCCCCCC\n>c\nGGGGGGGGGGGGGGGGGGGGGGGGGGGGGG\n")
	chunkDir := filepath.Join(dir, "chunks")

	out, err := execute(t, "partition", "--chunks", "2", "--outdir", chunkDir, ref)
	require.NoError(t, err)
	assert.Equal(t, "0\ta\n0\tc\n1\tb\n", out)

	c, err := genome.Load(filepath.Join(chunkDir, "chunk_0.fa"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, c.IDs())
}

func TestCheckHeadersCmd(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "check-headers", writeFile(t, dir, "ok.fa", ">chr1\nAC\n>scaf_2.1\nGG\n"))
	require.NoError(t, err)
	assert.Equal(t, "2 identifiers ok\n", out)

	_, err = execute(t, "check-headers", writeFile(t, dir, "bad.fa", ">chr1|x\nAC\n"))
	assert.Error(t, err)
}

func TestConfigSetGet(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "cfg.yaml", "")

	viper.Reset()
	root := newRootCmd()
	root.SetArgs([]string{"--config", cfg, "config", "set", "coverage.mode", "overlap"})
	root.SetOut(&bytes.Buffer{})
	require.NoError(t, root.Execute())

	viper.Reset()
	var out bytes.Buffer
	root = newRootCmd()
	root.SetArgs([]string{"--config", cfg, "config", "get", "coverage.mode"})
	root.SetOut(&out)
	require.NoError(t, root.Execute())
	assert.Equal(t, "overlap\n", out.String())

	data, err := os.ReadFile(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "overlap")
}

func TestConfigShowIncludesDefaults(t *testing.T) {
	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "min_qual: 30")
	assert.Contains(t, out, "mode: span")
}

func TestLoadSettings_BadMode(t *testing.T) {
	viper.Reset()
	setDefaults()
	viper.Set("coverage.mode", "sideways")

	_, err := loadSettings()
	var uerr *usageError
	assert.ErrorAs(t, err, &uerr)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "raccoon version dev"))
}

func TestRun_ExitCodes(t *testing.T) {
	viper.Reset()
	cfgFile, verbose, logFormat = "", false, "json"
	assert.Equal(t, ExitUsage, run([]string{"integrate", "only-one-arg"}))
	assert.Equal(t, ExitUsage, run([]string{"integrate", "ref.fa", ",", "reads.sam", "out"}))
	assert.Equal(t, ExitUsage, run([]string{"no-such-command"}))
	assert.Equal(t, ExitUsage, run([]string{"version", "--no-such-flag"}))

	cfg := writeFile(t, t.TempDir(), "cfg.yaml", "")
	viper.Reset()
	assert.Equal(t, ExitError, run([]string{"--config", cfg, "check-headers", filepath.Join(t.TempDir(), "missing.fa")}))
}
