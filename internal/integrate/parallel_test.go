package integrate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/inodb/raccoon/internal/coverage"
	"github.com/inodb/raccoon/internal/genome"
	"github.com/inodb/raccoon/internal/vcf"
)

func makeItems(t *testing.T, n int) (*genome.Collection, <-chan WorkItem) {
	t.Helper()
	ref := genome.NewCollection()
	ch := make(chan WorkItem, n)
	for i := range n {
		id := fmt.Sprintf("ctg%d", i)
		s, err := genome.NewSequence(id, "ACGTACGTAC")
		require.NoError(t, err)
		require.NoError(t, ref.Add(s))
		ch <- WorkItem{
			Seq:     i,
			Contig:  id,
			Records: []*vcf.Record{call(id, 2, "C", "T", "1/1")},
		}
	}
	close(ch)
	return ref, ch
}

func TestParallelIntegrate_OrderPreservation(t *testing.T) {
	defer goleak.VerifyNone(t)

	ref, items := makeItems(t, 200)
	results := NewIntegrator(coverage.Table{}).ParallelIntegrate(ref, items, 8)

	var collected []int
	err := OrderedCollect(results, func(r WorkResult) error {
		require.NoError(t, r.Err)
		assert.Equal(t, "ATGTACGTAC", r.Result.Sequence.Residues())
		collected = append(collected, r.Seq)
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, collected, 200)
	for i, seq := range collected {
		assert.Equal(t, i, seq, "result %d out of order", i)
	}
}

func TestParallelIntegrate_DefaultWorkers(t *testing.T) {
	defer goleak.VerifyNone(t)

	ref, items := makeItems(t, 20)
	results := NewIntegrator(coverage.Table{}).ParallelIntegrate(ref, items, 0)

	count := 0
	require.NoError(t, OrderedCollect(results, func(WorkResult) error {
		count++
		return nil
	}))
	assert.Equal(t, 20, count)
}

func TestParallelIntegrate_UnknownContig(t *testing.T) {
	items := make(chan WorkItem, 1)
	items <- WorkItem{Seq: 0, Contig: "missing"}
	close(items)

	results := NewIntegrator(coverage.Table{}).ParallelIntegrate(genome.NewCollection(), items, 2)
	err := OrderedCollect(results, func(r WorkResult) error { return r.Err })
	assert.ErrorIs(t, err, ErrUnknownContig)
}

func TestOrderedCollect_StopsOnError(t *testing.T) {
	defer goleak.VerifyNone(t)

	ref, items := makeItems(t, 50)
	results := NewIntegrator(coverage.Table{}).ParallelIntegrate(ref, items, 4)

	stop := errors.New("stop")
	calls := 0
	err := OrderedCollect(results, func(r WorkResult) error {
		calls++
		if r.Seq == 10 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 11, calls)
}
