package segcore

// ChunkSearcher drives one chunk's Kernel for a single query batch,
// implementing spec.md §4.4's dispatch rule between the kernel's native
// top-K path and the range-then-project path.
type ChunkSearcher struct {
	Kernel Kernel
}

// NewChunkSearcher wraps k in a ChunkSearcher.
func NewChunkSearcher(k Kernel) *ChunkSearcher {
	return &ChunkSearcher{Kernel: k}
}

// SearchChunk runs dataset against one chunk and always returns a
// TopKSubResult of width dataset.TopK, regardless of which path was
// taken, so a Driver never needs to know which mode produced a given
// chunk's result before merging it with the rest.
//
// Dispatch, per spec.md §4.4:
//   - radiusLow and radiusHigh both nil: native top-K search.
//   - both set: range search the [radiusLow, radiusHigh] band, then
//     project the hits down to dataset.TopK via ProjectToTopK.
//   - exactly one set: a CONFIG error, since a half-specified band is
//     not a meaningful request.
func (s *ChunkSearcher) SearchChunk(dataset *SearchDataset, radius float64, radiusLow, radiusHigh *float64, bitset BitsetView) (*TopKSubResult, error) {
	if err := dataset.Validate(); err != nil {
		return nil, err
	}

	hasLow := radiusLow != nil
	hasHigh := radiusHigh != nil
	if hasLow != hasHigh {
		return nil, configErr("RADIUS_LOW_BOUND and RADIUS_HIGH_BOUND must be set together")
	}

	if !hasLow {
		ids, dists, err := s.Kernel.Search(dataset, bitset)
		if err != nil {
			return nil, kernelErr(err, "native top-k search failed")
		}
		return assembleTopK(dataset, ids, dists), nil
	}

	low, high := dataset.Metric.SquareBoundsForL2(*radiusLow, *radiusHigh)
	rd := &RangeSearchDataset{
		NumQueries:   dataset.NumQueries,
		Dim:          dataset.Dim,
		Metric:       dataset.Metric,
		RoundDecimal: dataset.RoundDecimal,
		Radius:       radius,
		LowBound:     low,
		HighBound:    high,
		QueryData:    dataset.QueryData,
	}
	if err := rd.Validate(); err != nil {
		return nil, err
	}

	ids, dists, err := s.Kernel.RangeSearch(rd, bitset)
	if err != nil {
		return nil, kernelErr(err, "range search failed")
	}

	rangeResult := NewRangeSubResult(dataset.NumQueries, radius, dataset.Metric, dataset.RoundDecimal, ids, dists)
	topKResult, _, err := ProjectToTopK(rangeResult, dataset.TopK, low, high, bitset)
	if err != nil {
		return nil, err
	}
	return topKResult, nil
}

// RangeSearchChunk runs dataset's native range query against one chunk and
// returns a RangeSubResult copying the kernel's ids and distances verbatim,
// spec.md §4.4's second searcher entry point. Unlike SearchChunk, it never
// projects range hits down to a fixed top-K width; round_values is not
// invoked here either, matching §4.4's "rounding runs once, after merging".
func (s *ChunkSearcher) RangeSearchChunk(dataset *RangeSearchDataset, bitset BitsetView) (*RangeSubResult, error) {
	if err := dataset.Validate(); err != nil {
		return nil, err
	}

	ids, dists, err := s.Kernel.RangeSearch(dataset, bitset)
	if err != nil {
		return nil, kernelErr(err, "range search failed")
	}

	return NewRangeSubResult(dataset.NumQueries, dataset.Radius, dataset.Metric, dataset.RoundDecimal, ids, dists), nil
}

// assembleTopK packs a Kernel.Search's per-query hit lists into a
// TopKSubResult. It runs the hits through the same heap keep/reorder
// machinery the projector uses rather than assuming the kernel already
// returned exactly topk, metric-ordered candidates — a Kernel is only
// required to return correct distances, not to do its own retention.
func assembleTopK(dataset *SearchDataset, ids [][]int64, dists [][]float32) *TopKSubResult {
	order := dataset.Metric.Order()
	out := NewTopKSubResult(dataset.NumQueries, dataset.TopK, dataset.Metric, dataset.RoundDecimal)

	for q := 0; q < dataset.NumQueries; q++ {
		dSlice := out.distSlice(q)
		idSlice := out.idSlice(q)
		heapify(order, dSlice, idSlice)

		for i, id := range ids[q] {
			d := dists[q][i]
			topD, _ := top(dSlice, idSlice)
			if !worse(order, d, topD) {
				replaceTop(order, dSlice, idSlice, d, id)
			}
		}

		reorder(order, dataset.Metric, dSlice, idSlice)
	}

	return out
}
