package segcore

// TopKSubResult is the fixed-width top-K sub-result described in spec.md
// §3: nq*topk parallel arrays of ids and distances, sorted per query in
// metric-preferred order with sentinel padding.
type TopKSubResult struct {
	NumQueries   int
	TopK         int
	Metric       Metric
	RoundDecimal int

	SegOffsets []int64
	Distances  []float32
}

// NewTopKSubResult allocates a TopKSubResult filled entirely with
// sentinels, ready for heap-based population.
func NewTopKSubResult(nq, topk int, metric Metric, roundDecimal int) *TopKSubResult {
	r := &TopKSubResult{
		NumQueries:   nq,
		TopK:         topk,
		Metric:       metric,
		RoundDecimal: roundDecimal,
		SegOffsets:   make([]int64, nq*topk),
		Distances:    make([]float32, nq*topk),
	}
	sentinel := metric.Sentinel()
	for i := range r.SegOffsets {
		r.SegOffsets[i] = SentinelID
		r.Distances[i] = sentinel
	}
	return r
}

// slice returns the [q*topk, (q+1)*topk) window for query q.
func (r *TopKSubResult) idSlice(q int) []int64     { return r.SegOffsets[q*r.TopK : (q+1)*r.TopK] }
func (r *TopKSubResult) distSlice(q int) []float32 { return r.Distances[q*r.TopK : (q+1)*r.TopK] }

// checkMergeable enforces spec.md §4.2's merge preconditions.
func (r *TopKSubResult) checkMergeable(other *TopKSubResult) error {
	if r.NumQueries != other.NumQueries {
		return preconditionErr("nq mismatch: %d vs %d", r.NumQueries, other.NumQueries)
	}
	if r.TopK != other.TopK {
		return preconditionErr("topk mismatch: %d vs %d", r.TopK, other.TopK)
	}
	if r.Metric != other.Metric {
		return preconditionErr("metric mismatch: %v vs %v", r.Metric, other.Metric)
	}
	if r.RoundDecimal != other.RoundDecimal {
		return preconditionErr("round_decimal mismatch: %d vs %d", r.RoundDecimal, other.RoundDecimal)
	}
	return nil
}

// Merge combines r and other into a new TopKSubResult, retaining the
// metric-best K per query across both inputs (spec.md §4.2). It is a pure
// function: neither r nor other is mutated, so Merge is safe to use as the
// associative/commutative reduction step spec.md §8's law #4 requires.
func (r *TopKSubResult) Merge(other *TopKSubResult) (*TopKSubResult, error) {
	if err := r.checkMergeable(other); err != nil {
		return nil, err
	}

	order := r.Metric.Order()
	out := NewTopKSubResult(r.NumQueries, r.TopK, r.Metric, r.RoundDecimal)

	for q := 0; q < r.NumQueries; q++ {
		mergeQuery(order, r.distSlice(q), r.idSlice(q), other.distSlice(q), other.idSlice(q), out.distSlice(q), out.idSlice(q))
	}

	return out, nil
}

// mergeQuery performs the K-way merge of two already-ordered (metric-
// preferred) K-length slices described in spec.md §4.2, writing up to K
// entries into outDist/outID (trailing slots keep the sentinel values
// out was pre-filled with). Ties are broken by smaller id. A duplicate id
// appearing in both a and b is retained once, at its best distance: a
// seen-id set tracks every id emitted or skipped so far so that the
// duplicate is recognised even if the two copies sit at very different
// distances and are visited many steps apart by the two-pointer scan.
func mergeQuery(order Order, aDist []float32, aID []int64, bDist []float32, bID []int64, outDist []float32, outID []int64) {
	k := len(outDist)
	i, j := 0, 0
	seen := make(map[int64]struct{}, 2*k)
	w := 0

	for w < k {
		aValid := i < len(aID) && aID[i] != SentinelID
		bValid := j < len(bID) && bID[j] != SentinelID
		if !aValid && !bValid {
			break
		}

		if aValid && bValid && aID[i] == bID[j] {
			id := aID[i]
			d := aDist[i]
			if worse(order, d, bDist[j]) {
				d = bDist[j]
			}
			i++
			j++
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			outDist[w] = d
			outID[w] = id
			w++
			continue
		}

		var id int64
		var d float32
		if pickA(order, aDist, aID, i, aValid, bDist, bID, j, bValid) {
			id, d = aID[i], aDist[i]
			i++
		} else {
			id, d = bID[j], bDist[j]
			j++
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		outDist[w] = d
		outID[w] = id
		w++
	}
}

// pickA reports whether the next output element should come from a[i]
// rather than b[j]. An exhausted/sentinel run always loses.
func pickA(order Order, aDist []float32, aID []int64, i int, aValid bool, bDist []float32, bID []int64, j int, bValid bool) bool {
	if !aValid {
		return false
	}
	if !bValid {
		return true
	}
	ad, bd := aDist[i], bDist[j]
	if ad == bd {
		return aID[i] <= bID[j]
	}
	if order == DescendingBetter {
		return ad > bd
	}
	return ad < bd
}

// Round applies the rounding filter (spec.md §4.5) to every distance in
// place. It is idempotent and meant to run exactly once, after the final
// merge.
func (r *TopKSubResult) Round() {
	roundSlice(r.RoundDecimal, r.Distances)
}

// RangeSubResult is the variable-width range sub-result described in
// spec.md §3: a prefix-sum Lims array of length nq+1 plus parallel
// SegOffsets/Distances arrays of length Lims[nq].
type RangeSubResult struct {
	NumQueries   int
	Radius       float64
	Metric       Metric
	RoundDecimal int

	Lims       []int64
	SegOffsets []int64
	Distances  []float32
}

// NewRangeSubResult builds a RangeSubResult from already-computed per-query
// hit lists, constructing Lims as the prefix sum of each query's hit count.
func NewRangeSubResult(nq int, radius float64, metric Metric, roundDecimal int, perQueryIDs [][]int64, perQueryDists [][]float32) *RangeSubResult {
	lims := make([]int64, nq+1)
	total := int64(0)
	for q := 0; q < nq; q++ {
		lims[q] = total
		total += int64(len(perQueryIDs[q]))
	}
	lims[nq] = total

	ids := make([]int64, 0, total)
	dists := make([]float32, 0, total)
	for q := 0; q < nq; q++ {
		ids = append(ids, perQueryIDs[q]...)
		dists = append(dists, perQueryDists[q]...)
	}

	return &RangeSubResult{
		NumQueries:   nq,
		Radius:       radius,
		Metric:       metric,
		RoundDecimal: roundDecimal,
		Lims:         lims,
		SegOffsets:   ids,
		Distances:    dists,
	}
}

// EmptyRangeSubResult builds a RangeSubResult with zero hits for every
// query, the identity element for RangeSubResult.Merge.
func EmptyRangeSubResult(nq int, radius float64, metric Metric, roundDecimal int) *RangeSubResult {
	lims := make([]int64, nq+1)
	return &RangeSubResult{
		NumQueries:   nq,
		Radius:       radius,
		Metric:       metric,
		RoundDecimal: roundDecimal,
		Lims:         lims,
		SegOffsets:   []int64{},
		Distances:    []float32{},
	}
}

// Hits returns the hit slice for query q: ids and distances over
// [Lims[q], Lims[q+1]).
func (r *RangeSubResult) Hits(q int) ([]int64, []float32) {
	lo, hi := r.Lims[q], r.Lims[q+1]
	return r.SegOffsets[lo:hi], r.Distances[lo:hi]
}

// checkMergeable enforces spec.md §4.2's RangeSubResult merge precondition.
func (r *RangeSubResult) checkMergeable(other *RangeSubResult) error {
	if r.NumQueries != other.NumQueries {
		return preconditionErr("nq mismatch: %d vs %d", r.NumQueries, other.NumQueries)
	}
	if r.Radius != other.Radius {
		return preconditionErr("radius mismatch: %v vs %v", r.Radius, other.Radius)
	}
	if r.Metric != other.Metric {
		return preconditionErr("metric mismatch: %v vs %v", r.Metric, other.Metric)
	}
	return nil
}

// Merge concatenates other's per-query slice after r's for every query and
// rebuilds Lims as prefix sums (spec.md §4.2). Ordering within a query's
// slice is not preserved; duplicate ids across r and other are permitted
// at this layer, to be resolved later by the top-K projector.
func (r *RangeSubResult) Merge(other *RangeSubResult) (*RangeSubResult, error) {
	if err := r.checkMergeable(other); err != nil {
		return nil, err
	}

	nq := r.NumQueries
	lims := make([]int64, nq+1)
	total := r.Lims[nq] + other.Lims[nq]
	ids := make([]int64, 0, total)
	dists := make([]float32, 0, total)

	for q := 0; q < nq; q++ {
		lims[q] = int64(len(ids))
		rIDs, rDists := r.Hits(q)
		oIDs, oDists := other.Hits(q)
		ids = append(ids, rIDs...)
		ids = append(ids, oIDs...)
		dists = append(dists, rDists...)
		dists = append(dists, oDists...)
	}
	lims[nq] = int64(len(ids))

	return &RangeSubResult{
		NumQueries:   nq,
		Radius:       r.Radius,
		Metric:       r.Metric,
		RoundDecimal: r.RoundDecimal,
		Lims:         lims,
		SegOffsets:   ids,
		Distances:    dists,
	}, nil
}

// Round applies the rounding filter to every distance in place.
func (r *RangeSubResult) Round() {
	roundSlice(r.RoundDecimal, r.Distances)
}

// SortQuery sorts query q's hit slice into metric-preferred order, breaking
// ties on smaller id. spec.md §3 requires producers (the projector) to do
// this on emission; RangeSubResult.Merge deliberately does not re-sort,
// since ordering within a query's slice is not part of the container's
// contract once hits have been concatenated.
func (r *RangeSubResult) SortQuery(q int) {
	order := r.Metric.Order()
	lo, hi := r.Lims[q], r.Lims[q+1]
	ids := r.SegOffsets[lo:hi]
	dists := r.Distances[lo:hi]

	type pair struct {
		d float32
		i int64
	}
	n := len(ids)
	pairs := make([]pair, n)
	for i := range ids {
		pairs[i] = pair{dists[i], ids[i]}
	}
	insertionSort(pairs, func(a, b pair) bool {
		if a.d != b.d {
			if order == DescendingBetter {
				return a.d > b.d
			}
			return a.d < b.d
		}
		return a.i < b.i
	})
	for i, p := range pairs {
		dists[i] = p.d
		ids[i] = p.i
	}
}
