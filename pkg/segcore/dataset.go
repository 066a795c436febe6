package segcore

// SearchDataset describes one top-K query batch against a chunk. It is
// immutable for the duration of a call: the searcher and driver only read
// from it.
type SearchDataset struct {
	NumQueries   int     // nq >= 1
	Dim          int     // dim >= 1
	TopK         int     // topk >= 1
	Metric       Metric
	RoundDecimal int // -1 => no rounding, else fractional digits >= 0

	// QueryData holds nq vectors of Dim elements each, laid out as a flat
	// nq*dim slice (query q occupies QueryData[q*Dim:(q+1)*Dim]). For
	// binary metrics each "element" is a packed byte cast to float32, the
	// same convention pkg/segcore.Distance uses.
	QueryData []float32
}

// Validate checks the structural preconditions spec.md §7 assigns to
// CONFIG errors: non-positive nq, dim, or topk, or an unrecognised metric.
func (d *SearchDataset) Validate() error {
	if d.NumQueries <= 0 {
		return configErr("num_queries must be positive, got %d", d.NumQueries)
	}
	if d.Dim <= 0 {
		return configErr("dim must be positive, got %d", d.Dim)
	}
	if d.TopK <= 0 {
		return configErr("topk must be positive, got %d", d.TopK)
	}
	if d.Metric < L2 || d.Metric > Tanimoto {
		return configErr("unknown metric %d", int(d.Metric))
	}
	if len(d.QueryData) != d.NumQueries*d.Dim {
		return configErr("query_data length %d does not match nq*dim=%d", len(d.QueryData), d.NumQueries*d.Dim)
	}
	return nil
}

// Query returns the q-th query vector as a sub-slice of QueryData.
func (d *SearchDataset) Query(q int) []float32 {
	return d.QueryData[q*d.Dim : (q+1)*d.Dim]
}

// RangeSearchDataset describes one range-band query batch against a chunk.
// It carries the same fields as SearchDataset except TopK is replaced by a
// radius and an inclusive [LowBound, HighBound] band in kernel distance
// space: squared for L2, since callers pass user-facing bounds through
// metric.go's SquareBoundsForL2 before filling it.
type RangeSearchDataset struct {
	NumQueries   int
	Dim          int
	Metric       Metric
	RoundDecimal int

	Radius    float64
	LowBound  float64
	HighBound float64

	QueryData []float32
}

// Validate mirrors SearchDataset.Validate for the range-search shape.
func (d *RangeSearchDataset) Validate() error {
	if d.NumQueries <= 0 {
		return configErr("num_queries must be positive, got %d", d.NumQueries)
	}
	if d.Dim <= 0 {
		return configErr("dim must be positive, got %d", d.Dim)
	}
	if d.Metric < L2 || d.Metric > Tanimoto {
		return configErr("unknown metric %d", int(d.Metric))
	}
	if len(d.QueryData) != d.NumQueries*d.Dim {
		return configErr("query_data length %d does not match nq*dim=%d", len(d.QueryData), d.NumQueries*d.Dim)
	}
	return nil
}

// Query returns the q-th query vector as a sub-slice of QueryData.
func (d *RangeSearchDataset) Query(q int) []float32 {
	return d.QueryData[q*d.Dim : (q+1)*d.Dim]
}
