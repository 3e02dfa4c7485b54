package integrate

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/inodb/raccoon/internal/genome"
	"github.com/inodb/raccoon/internal/vcf"
)

// WorkItem holds the records of one contig ready for integration.
type WorkItem struct {
	Seq     int
	Contig  string
	Records []*vcf.Record
}

// WorkResult holds the integration output for a single contig.
type WorkResult struct {
	Seq    int
	Result ContigResult
	Err    error
}

// ParallelIntegrate corrects each contig batch on one of workers goroutines.
// A contig is finished by a single worker, so edits within it stay in
// position order. Results arrive as contigs complete; OrderedCollect
// restores stream order. Non-positive workers means runtime.NumCPU().
func (in *Integrator) ParallelIntegrate(ref *genome.Collection, items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				seq, ok := ref.Get(item.Contig)
				if !ok {
					results <- WorkResult{
						Seq: item.Seq,
						Err: fmt.Errorf("%w: %s", ErrUnknownContig, item.Contig),
					}
					continue
				}
				res, err := in.IntegrateContig(seq, item.Records)
				results <- WorkResult{Seq: item.Seq, Result: res, Err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect hands corrected contigs to fn in the order their batches
// were read from the variant stream, holding back contigs that finish early.
// An error from fn stops delivery; the remaining results are drained so
// workers can exit. Returns once results is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
