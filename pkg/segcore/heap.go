package segcore

// This file implements spec.md §4.1's heap primitives: metric-parameterised
// min/max heap routines over parallel (distance, id) arrays of fixed length
// k. The teacher's pkg/hnsw/search.go wraps container/heap around a slice
// of boxed heapItem values; here the arrays are the storage for a
// TopKSubResult query slice directly, so the heap operates in place on
// dist/id without any intermediate boxing, hand-rolling sift-down/up rather
// than reaching for container/heap's slice-of-interface model.
//
// Polarity: for ascending-better metrics this is a max-heap keyed by
// distance (root = current K-th best = worst retained; a new candidate is
// kept iff it is <= the root). For IP it is the dual min-heap (new
// candidate kept iff >= the root). "worse than root" in the comments below
// always means "worse under order".

// worse reports whether a is worse than b under order (i.e. b should stay
// closer to the root than a). Ties are not resolved here; reorder handles
// deterministic tie-breaking on id.
func worse(order Order, a, b float32) bool {
	if order == DescendingBetter {
		return a < b
	}
	return a > b
}

// heapify establishes the heap property described above over dist[0:k],
// id[0:k] in place.
func heapify(order Order, dist []float32, id []int64) {
	k := len(dist)
	for i := k/2 - 1; i >= 0; i-- {
		siftDown(order, dist, id, i, k)
	}
}

// replaceTop replaces the root with (newD, newID) and sifts down to
// restore the heap property. Callers must check the keep predicate
// (newD <= top for ascending-better, newD >= top for IP) before calling.
func replaceTop(order Order, dist []float32, id []int64, newD float32, newID int64) {
	dist[0] = newD
	id[0] = newID
	siftDown(order, dist, id, 0, len(dist))
}

// top returns the current root (the K-th best / worst retained).
func top(dist []float32, id []int64) (float32, int64) {
	return dist[0], id[0]
}

func siftDown(order Order, dist []float32, id []int64, i, n int) {
	for {
		worst := i
		l := 2*i + 1
		r := 2*i + 2

		if l < n && worseOf(order, dist, id, l, worst) {
			worst = l
		}
		if r < n && worseOf(order, dist, id, r, worst) {
			worst = r
		}
		if worst == i {
			return
		}
		dist[i], dist[worst] = dist[worst], dist[i]
		id[i], id[worst] = id[worst], id[i]
		i = worst
	}
}

// worseOf reports whether element a is "worse" than element b in the sense
// that a should sit further from the root than b — i.e. a is a better
// candidate for becoming/staying the new root. Ties on distance favour the
// larger id moving toward the root, so that the eventual reorder's
// smaller-id-wins rule is already respected by construction.
func worseOf(order Order, dist []float32, id []int64, a, b int) bool {
	if dist[a] == dist[b] {
		return id[a] > id[b]
	}
	return worse(order, dist[a], dist[b])
}

// reorder destructively sorts dist[0:k], id[0:k] into metric-preferred
// order (ascending for ascending-better metrics, descending for IP) and
// returns the count of non-sentinel entries. Ties on distance break on
// smaller id, matching spec.md §9's determinism requirement.
func reorder(order Order, metric Metric, dist []float32, id []int64) int {
	k := len(dist)
	type pair struct {
		d float32
		i int64
	}
	pairs := make([]pair, k)
	for i := range dist {
		pairs[i] = pair{dist[i], id[i]}
	}

	less := func(a, b pair) bool {
		if a.d != b.d {
			if order == DescendingBetter {
				return a.d > b.d
			}
			return a.d < b.d
		}
		return a.i < b.i
	}

	insertionSort(pairs, less)

	n := 0
	sentinel := metric.Sentinel()
	for i, p := range pairs {
		dist[i] = p.d
		id[i] = p.i
		if p.i != SentinelID && p.d != sentinel {
			n++
		}
	}
	return n
}

// insertionSort is used instead of sort.Slice to avoid the interface/
// reflection overhead on what is always a small (<= topk) fixed array on
// this hot path; topk is typically tens to low hundreds, where insertion
// sort's low constant factor wins out.
func insertionSort[T any](s []T, less func(a, b T) bool) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && less(s[j], s[j-1]); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
