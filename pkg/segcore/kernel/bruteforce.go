// Package kernel provides the concrete segcore.Kernel implementations:
// an exact linear-scan kernel and a quantized (ADC) kernel. Either can
// drive a segcore.Chunk; pkg/hnsw additionally exposes its own
// kernel_adapter.go for callers that want an approximate graph index in
// the loop instead.
package kernel

import "github.com/obsidian-labs/segcore/pkg/segcore"

// BruteForceKernel is the reference segcore.Kernel: an exhaustive linear
// scan over a chunk's raw row-major vector data, scoring every row against
// every query with no pruning — the baseline every approximate index
// family trades accuracy for speed against.
type BruteForceKernel struct {
	Rows []float32 // chunk_rows vectors of Dim elements each, row-major
	Dim  int
}

// NewBruteForceKernel wraps a chunk's flat row data.
func NewBruteForceKernel(rows []float32, dim int) *BruteForceKernel {
	return &BruteForceKernel{Rows: rows, Dim: dim}
}

func (k *BruteForceKernel) numRows() int64 {
	if k.Dim == 0 {
		return 0
	}
	return int64(len(k.Rows) / k.Dim)
}

func (k *BruteForceKernel) row(id int64) []float32 {
	return k.Rows[int(id)*k.Dim : int(id+1)*k.Dim]
}

// Search implements segcore.Kernel.
func (k *BruteForceKernel) Search(dataset *segcore.SearchDataset, bitset segcore.BitsetView) ([][]int64, [][]float32, error) {
	n := k.numRows()
	ids := make([][]int64, dataset.NumQueries)
	dists := make([][]float32, dataset.NumQueries)

	for q := 0; q < dataset.NumQueries; q++ {
		query := dataset.Query(q)
		qIDs := make([]int64, 0, n)
		qDists := make([]float32, 0, n)

		for id := int64(0); id < n; id++ {
			if !bitset.Empty() && bitset.Test(id) {
				continue
			}
			qIDs = append(qIDs, id)
			qDists = append(qDists, segcore.Distance(dataset.Metric, query, k.row(id)))
		}

		ids[q] = qIDs
		dists[q] = qDists
	}

	return ids, dists, nil
}

// RangeSearch implements segcore.Kernel. It pre-filters by
// [LowBound, HighBound] itself; the range→top-K projector re-checks the
// same band, so a kernel that returns too much (or, via a future
// collaborator, too little) never corrupts the final result.
// dataset.Radius is not consulted here — LowBound/HighBound already carry
// the (squared, for L2) band this kernel needs. Radius is part of the
// dataset contract for adapters wrapping an index whose own search API
// takes a single native radius rather than a band.

func (k *BruteForceKernel) RangeSearch(dataset *segcore.RangeSearchDataset, bitset segcore.BitsetView) ([][]int64, [][]float32, error) {
	n := k.numRows()
	ids := make([][]int64, dataset.NumQueries)
	dists := make([][]float32, dataset.NumQueries)

	for q := 0; q < dataset.NumQueries; q++ {
		query := dataset.Query(q)
		var qIDs []int64
		var qDists []float32

		for id := int64(0); id < n; id++ {
			if !bitset.Empty() && bitset.Test(id) {
				continue
			}
			d := segcore.Distance(dataset.Metric, query, k.row(id))
			if float64(d) < dataset.LowBound || float64(d) > dataset.HighBound {
				continue
			}
			qIDs = append(qIDs, id)
			qDists = append(qDists, d)
		}

		ids[q] = qIDs
		dists[q] = qDists
	}

	return ids, dists, nil
}
