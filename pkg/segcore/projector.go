package segcore

// ProjectToTopK implements spec.md §4.3's range-to-top-K projector: for
// each query it keeps the hits whose distance falls in the inclusive
// band [lowBound, highBound] (already transformed into kernel space by
// the caller via Metric.SquareBoundsForL2) and retains the topk best of
// those via the same heap machinery heap.go uses for the native top-K
// path, so both paths share one notion of "best".
//
// bitset is asserted against rather than applied here: by the time a
// RangeSubResult reaches the projector every hit should already have
// passed the searcher's bitset filter, so finding an excluded id here
// means the bitset contract was violated upstream (spec.md §7, INVARIANT
// class — a fatal, shouldn't-happen condition, not a normal filter step).
//
// Returns the resulting TopKSubResult and the total number of non-
// sentinel entries written across all queries.
func ProjectToTopK(r *RangeSubResult, topk int, lowBound, highBound float64, bitset BitsetView) (*TopKSubResult, int, error) {
	if topk <= 0 {
		return nil, 0, configErr("topk must be positive, got %d", topk)
	}

	order := r.Metric.Order()
	out := NewTopKSubResult(r.NumQueries, topk, r.Metric, r.RoundDecimal)
	total := 0

	for q := 0; q < r.NumQueries; q++ {
		ids, dists := r.Hits(q)
		dSlice := out.distSlice(q)
		idSlice := out.idSlice(q)
		heapify(order, dSlice, idSlice)

		for i, id := range ids {
			if !bitset.Empty() && bitset.Test(id) {
				return nil, 0, invariantErr("bitset excluded id %d present in range hit for query %d", id, q)
			}
			d := dists[i]
			if float64(d) < lowBound || float64(d) > highBound {
				continue
			}
			topD, _ := top(dSlice, idSlice)
			if !worse(order, d, topD) {
				replaceTop(order, dSlice, idSlice, d, id)
			}
		}

		total += reorder(order, r.Metric, dSlice, idSlice)
	}

	return out, total, nil
}
