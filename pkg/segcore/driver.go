package segcore

// Chunk describes one physical chunk of a segment: a half-open id range
// [Offset, Offset+Len) into the segment's global id space, plus the
// Kernel that searches this chunk's rows in chunk-local id space.
type Chunk struct {
	Offset int64
	Len    int64
	Kernel Kernel
}

// Request bundles a top-K query batch with an optional range band, the
// same shape ChunkSearcher.SearchChunk dispatches on.
type Request struct {
	Dataset    *SearchDataset
	Radius     float64
	RadiusLow  *float64
	RadiusHigh *float64
}

// RangeRequest bundles a native range query batch, the shape
// ChunkSearcher.RangeSearchChunk consumes.
type RangeRequest struct {
	Dataset *RangeSearchDataset
}

// Driver implements spec.md §4.6's pipeline: search every chunk, rewrite
// each chunk's ids into segment-global space, merge the per-chunk
// TopKSubResults into a single accumulator, and round exactly once at
// the end.
type Driver struct {
	Chunks []Chunk
}

// NewDriver wraps chunks in a Driver.
func NewDriver(chunks []Chunk) *Driver {
	return &Driver{Chunks: chunks}
}

// Run executes req across every chunk and returns the merged, rounded,
// segment-global result.
func (d *Driver) Run(req *Request, bitset *DenseBitset) (*TopKSubResult, error) {
	if err := req.Dataset.Validate(); err != nil {
		return nil, err
	}

	var acc *TopKSubResult
	for _, c := range d.Chunks {
		searcher := NewChunkSearcher(c.Kernel)
		scoped := chunkBitset(bitset, c)

		chunkResult, err := searcher.SearchChunk(req.Dataset, req.Radius, req.RadiusLow, req.RadiusHigh, scoped)
		if err != nil {
			return nil, err
		}
		globalizeIDs(chunkResult, c.Offset)

		if acc == nil {
			acc = chunkResult
			continue
		}
		merged, err := acc.Merge(chunkResult)
		if err != nil {
			return nil, err
		}
		acc = merged
	}

	if acc == nil {
		acc = NewTopKSubResult(req.Dataset.NumQueries, req.Dataset.TopK, req.Dataset.Metric, req.Dataset.RoundDecimal)
	}

	acc.Round()
	return acc, nil
}

// RunRange executes req's native range query across every chunk and returns
// the merged, rounded, segment-global RangeSubResult — spec.md §4.4's range
// entry point driven end to end, mirroring Run's chunk/globalize/merge/round
// structure but reducing with RangeSubResult.Merge instead of projecting to
// a fixed top-K width.
func (d *Driver) RunRange(req *RangeRequest, bitset *DenseBitset) (*RangeSubResult, error) {
	if err := req.Dataset.Validate(); err != nil {
		return nil, err
	}

	acc := EmptyRangeSubResult(req.Dataset.NumQueries, req.Dataset.Radius, req.Dataset.Metric, req.Dataset.RoundDecimal)
	for _, c := range d.Chunks {
		searcher := NewChunkSearcher(c.Kernel)
		scoped := chunkBitset(bitset, c)

		chunkResult, err := searcher.RangeSearchChunk(req.Dataset, scoped)
		if err != nil {
			return nil, err
		}
		globalizeRangeIDs(chunkResult, c.Offset)

		merged, err := acc.Merge(chunkResult)
		if err != nil {
			return nil, err
		}
		acc = merged
	}

	acc.Round()
	return acc, nil
}

// chunkBitset scopes a segment-wide deletion bitset down to one chunk's
// id range, or passes through an empty view when there is no bitset.
func chunkBitset(bitset *DenseBitset, c Chunk) BitsetView {
	if bitset == nil {
		return EmptyBitset()
	}
	return bitset.Slice(c.Offset, c.Len)
}

// globalizeIDs rewrites a chunk-local TopKSubResult's ids into segment-
// global space in place by adding offset to every non-sentinel id.
func globalizeIDs(r *TopKSubResult, offset int64) {
	if offset == 0 {
		return
	}
	for i, id := range r.SegOffsets {
		if id != SentinelID {
			r.SegOffsets[i] = id + offset
		}
	}
}

// globalizeRangeIDs rewrites a chunk-local RangeSubResult's ids into
// segment-global space in place. Unlike globalizeIDs, every entry is a real
// hit — a RangeSubResult carries no sentinel padding — so no per-id guard
// is needed.
func globalizeRangeIDs(r *RangeSubResult, offset int64) {
	if offset == 0 {
		return
	}
	for i, id := range r.SegOffsets {
		r.SegOffsets[i] = id + offset
	}
}
