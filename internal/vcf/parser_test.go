package vcf

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVCF = `##fileformat=VCFv4.2
##INFO=<ID=QD,Number=1,Type=Float,Description="Variant Confidence/Quality by Depth">
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
##FORMAT=<ID=AD,Number=R,Type=Integer,Description="Allelic depths">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	sample1
chr1	6	.	C	T	50.5	PASS	QD=12.3;DP=40	GT:AD	1/1:0,40
chr1	10	.	CAT	C	35	PASS	QD=3	GT:AD	1/1:1,20
chr2	3	.	G	A,T	99	PASS	DB;QD=7.5	GT:AD	1/2:2,10,30
`

func TestParser_Records(t *testing.T) {
	parser, err := NewParserFromReader(strings.NewReader(sampleVCF))
	require.NoError(t, err)
	defer parser.Close()

	assert.Equal(t, []string{"sample1"}, parser.SampleNames())
	assert.Len(t, parser.Header(), 5)

	r, err := parser.Next()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "chr1", r.Chrom)
	assert.Equal(t, int64(5), r.Start, "POS 6 is 0-based start 5")
	assert.Equal(t, int64(6), r.End)
	assert.Equal(t, "C", r.Ref)
	assert.Equal(t, []string{"T"}, r.Alts)
	assert.Equal(t, 50.5, r.Qual)
	assert.Equal(t, "1/1", r.Genotype)
	assert.Equal(t, []int{0, 40}, r.AlleleDepths)
	assert.Equal(t, 6, r.Line)
	qd, ok := r.QD()
	assert.True(t, ok)
	assert.Equal(t, 12.3, qd)

	r, err = parser.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(9), r.Start)
	assert.Equal(t, int64(12), r.End, "end - start equals reference allele length")
	assert.True(t, r.IsIndel())

	r, err = parser.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "T"}, r.Alts)
	assert.Equal(t, []int{2, 10, 30}, r.AlleleDepths)
	_, isFlag := r.Info["DB"]
	assert.True(t, isFlag)

	r, err = parser.Next()
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestParser_MissingQualAndInfoDepthFallback(t *testing.T) {
	content := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"chr1\t1\t.\tA\tG\t.\t.\tAD=3,4"
	parser, err := NewParserFromReader(strings.NewReader(content))
	require.NoError(t, err)

	r, err := parser.Next()
	require.NoError(t, err)
	require.NotNil(t, r, "last line without newline must still parse")
	assert.Equal(t, 0.0, r.Qual)
	assert.Equal(t, "", r.Genotype)
	assert.Equal(t, []int{3, 4}, r.AlleleDepths)
	_, ok := r.QD()
	assert.False(t, ok)
}

func TestParser_Errors(t *testing.T) {
	header := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"
	tests := []struct {
		name string
		line string
		msg  string
	}{
		{"too few columns", "chr1\t1\t.\tA\tG\n", "expected at least 8 columns, found 5"},
		{"bad position", "chr1\tx\t.\tA\tG\t30\t.\t.\n", "invalid position: x"},
		{"zero position", "chr1\t0\t.\tA\tG\t30\t.\t.\n", "invalid position: 0"},
		{"bad quality", "chr1\t1\t.\tA\tG\thigh\t.\t.\n", "invalid quality: high"},
		{"missing ref", "chr1\t1\t.\t.\tG\t30\t.\t.\n", "missing reference allele"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser, err := NewParserFromReader(strings.NewReader(header + tt.line))
			require.NoError(t, err)

			_, err = parser.Next()
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, 2, perr.Line)
			assert.Equal(t, tt.msg, perr.Message)
		})
	}
}

func TestParser_NoHeader(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader("chr1\t1\t.\tA\tG\t30\t.\t.\n"))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "expected #CHROM header line", perr.Message)

	_, err = NewParserFromReader(strings.NewReader(""))
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "no #CHROM header line found", perr.Message)
}

func TestNewParser_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(sampleVCF))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "calls.vcf.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	parser, err := NewParser(path)
	require.NoError(t, err)
	defer parser.Close()

	count := 0
	for {
		r, err := parser.Next()
		require.NoError(t, err)
		if r == nil {
			break
		}
		count++
	}
	assert.Equal(t, 3, count)
}

func TestParseError(t *testing.T) {
	err := &ParseError{
		Line:    42,
		Message: "expected 8 columns, found 7",
	}

	expected := "vcf parse error at line 42: expected 8 columns, found 7"
	assert.Equal(t, expected, err.Error())
}
