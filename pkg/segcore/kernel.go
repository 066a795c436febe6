package segcore

// Kernel is the numeric collaborator a chunk searcher drives: something
// that can turn a batch of query vectors into raw distances against a
// chunk's rows. pkg/segcore/kernel holds the brute-force and ADC
// (quantized) implementations; pkg/hnsw adapts its own existing search
// entry point to this interface via a kernel_adapter.go, so the same
// searcher/driver pipeline in this package can drive an approximate graph
// index in place of the exact kernels, matching spec.md's REDESIGN FLAGS
// note that every index family should sit behind one brute-force contract.
//
// Both methods are synchronous and side-effect free with respect to the
// chunk: a Kernel never mutates its own state during a query, matching
// the read-only Search method on pkg/hnsw.Index.
type Kernel interface {
	// Search returns, for every query in dataset, the topk nearest chunk
	// rows under dataset.Metric, in no particular order (the searcher is
	// responsible for heap retention and final ordering). ids are chunk-
	// local offsets, not global segment ids.
	Search(dataset *SearchDataset, bitset BitsetView) (ids [][]int64, dists [][]float32, err error)

	// RangeSearch returns, for every query in dataset, every chunk row
	// whose distance under dataset.Metric falls within [LowBound,
	// HighBound] (already squared for L2 by the caller via
	// Metric.SquareBoundsForL2), in no particular order.
	RangeSearch(dataset *RangeSearchDataset, bitset BitsetView) (ids [][]int64, dists [][]float32, err error)
}

// The following are the config option keys a Kernel's configuration map
// is expected to recognise, mirroring spec.md §6's option surface. Core
// keys are interpreted by this package; the rest pass through untouched
// to whichever index family's adapter is in use.
const (
	OptMetricType      = "METRIC_TYPE"
	OptDim             = "DIM"
	OptTopK            = "TOPK"
	OptRadius          = "RADIUS"
	OptRadiusLowBound  = "RADIUS_LOW_BOUND"
	OptRadiusHighBound = "RADIUS_HIGH_BOUND"
	OptRoundDecimal    = "round_decimal"

	// Pass-through keys: this package never reads these itself, but
	// carries them so a Kernel's own config parsing can find them on the
	// same map the searcher was given.
	OptNList          = "NLIST"
	OptNProbe         = "NPROBE"
	OptHNSWM          = "HNSW_M"
	OptEFConstruction = "EFCONSTRUCTION"
	OptEF             = "EF"
	OptPQM            = "M"
	OptPQNBits        = "NBITS"
	OptRangeK         = "range_k"
)
