package coverage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samLines = []string{
	"@HD\tVN:1.6\tSO:coordinate",
	"@SQ\tSN:chr1\tLN:15",
	"perfect\t0\tchr1\t1\t60\t10M\t*\t0\t0\tAAAAACCCCC\t*\tNM:i:0",
	"onemismatch\t0\tchr1\t3\t60\t10M\t*\t0\t0\tAAACCCCCGG\t*\tNM:i:1",
	"twomismatch\t0\tchr1\t3\t60\t10M\t*\t0\t0\tAAACCCCCGG\t*\tNM:i:2",
	"clipped\t0\tchr1\t4\t60\t5M5S\t*\t0\t0\tAACCCCCGGG\t*\tNM:i:0",
	"nonm\t0\tchr1\t6\t60\t10M\t*\t0\t0\tCCCCCGGGGG\t*",
	"unmapped\t4\t*\t0\t0\t*\t*\t0\t0\tACGT\t*",
}

func writeSAM(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapped.sam")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(samLines, "\n")+"\n"), 0o644))
	return path
}

func TestLoadIndex_SAM(t *testing.T) {
	idx, err := LoadIndex(writeSAM(t), DefaultLoadOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Alignments("chr1"), "only full-length matches with NM<2 are indexed")

	got, err := idx.Coverage("chr1", 5, 6)
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	got, err = idx.Coverage("chr1", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = idx.Coverage("chr1", 9, 12)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestLoadIndex_StrictMismatches(t *testing.T) {
	opts := DefaultLoadOptions()
	opts.MaxMismatches = 0

	idx, err := LoadIndex(writeSAM(t), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Alignments("chr1"))
}

func TestLoadIndex_MissingFile(t *testing.T) {
	_, err := LoadIndex(filepath.Join(t.TempDir(), "missing.bam"), DefaultLoadOptions())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverage.tsv")
	content := "# contig\tstart\tend\tcount\nchr1\t5\t6\t12\n\nchr1\t9\t12\t0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Len(t, table, 2)

	got, err := table.Coverage("chr1", 5, 6)
	require.NoError(t, err)
	assert.Equal(t, 12, got)

	got, err = table.Coverage("chr1", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestLoadTable_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverage.tsv")
	require.NoError(t, os.WriteFile(path, []byte("chr1\t5\t6\n"), 0o644))
	_, err := LoadTable(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("chr1\t5\t6\t-1\n"), 0o644))
	_, err = LoadTable(path)
	assert.Error(t, err)
}

func TestFunc(t *testing.T) {
	var o Oracle = Func(func(contig string, start, end int64) (int, error) {
		return int(end - start), nil
	})
	got, err := o.Coverage("chr1", 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}
