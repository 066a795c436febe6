package hnsw

import "github.com/obsidian-labs/segcore/pkg/segcore"

// KernelAdapter exposes an Index as a segcore.Kernel so the driver in
// pkg/segcore can drive an HNSW graph exactly like any other chunk
// collaborator. Index.Search has no native id filter, so bitset exclusion
// is applied to its results after the fact; HNSW's approximate nature
// means an excluded id can legitimately cost a slot that a true match
// would have taken, which is an accepted tradeoff for this adapter, not a
// correctness defect in the core spec (the bitset contract itself is
// still upheld: no excluded id ever reaches the caller).
type KernelAdapter struct {
	Index    *Index
	EfSearch int
}

// NewKernelAdapter wraps an HNSW index. efSearch controls the size of the
// dynamic candidate list, same as Index.Search's own parameter.
func NewKernelAdapter(idx *Index, efSearch int) *KernelAdapter {
	return &KernelAdapter{Index: idx, EfSearch: efSearch}
}

func (a *KernelAdapter) Search(dataset *segcore.SearchDataset, bitset segcore.BitsetView) ([][]int64, [][]float32, error) {
	ids := make([][]int64, dataset.NumQueries)
	dists := make([][]float32, dataset.NumQueries)

	// Oversample so that bitset-excluded hits still leave room for topk
	// survivors; a simple fixed multiplier, not adaptive retry.
	k := dataset.TopK * 4
	if k < dataset.TopK {
		k = dataset.TopK
	}

	for q := 0; q < dataset.NumQueries; q++ {
		res, err := a.Index.Search(dataset.Query(q), k, maxInt(a.EfSearch, k))
		if err != nil {
			return nil, nil, err
		}
		qIDs := make([]int64, 0, len(res.Results))
		qDists := make([]float32, 0, len(res.Results))
		for _, r := range res.Results {
			if len(qIDs) == dataset.TopK {
				break
			}
			id := int64(r.ID)
			if !bitset.Empty() && bitset.Test(id) {
				continue
			}
			qIDs = append(qIDs, id)
			qDists = append(qDists, r.Distance)
		}
		ids[q] = qIDs
		dists[q] = qDists
	}
	return ids, dists, nil
}

// RangeSearch has no native HNSW counterpart: the graph's greedy descent
// is tuned for top-K, not for enumerating every node within a radius. It
// is approximated by oversampling a wide top-K and band-filtering the
// result, which is sound for the radii pkg/engine uses (small relative to
// the graph's overall spread) but will under-report for very large radii.
func (a *KernelAdapter) RangeSearch(dataset *segcore.RangeSearchDataset, bitset segcore.BitsetView) ([][]int64, [][]float32, error) {
	ids := make([][]int64, dataset.NumQueries)
	dists := make([][]float32, dataset.NumQueries)

	const wideK = 1024
	for q := 0; q < dataset.NumQueries; q++ {
		res, err := a.Index.Search(dataset.Query(q), wideK, maxInt(a.EfSearch, wideK))
		if err != nil {
			return nil, nil, err
		}
		var qIDs []int64
		var qDists []float32
		for _, r := range res.Results {
			id := int64(r.ID)
			if !bitset.Empty() && bitset.Test(id) {
				continue
			}
			if float64(r.Distance) < dataset.LowBound || float64(r.Distance) > dataset.HighBound {
				continue
			}
			qIDs = append(qIDs, id)
			qDists = append(qDists, r.Distance)
		}
		ids[q] = qIDs
		dists[q] = qDists
	}
	return ids, dists, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
