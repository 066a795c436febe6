package kernel

import (
	"github.com/obsidian-labs/segcore/internal/quantization"
	"github.com/obsidian-labs/segcore/pkg/segcore"
)

// ADCKernel drives asymmetric distance computation against a chunk of
// product-quantized codes. It is grounded directly on
// internal/quantization.ProductQuantizer's ComputeDistanceTable /
// AsymmetricDistance pair — the standard PQ search shortcut that scores
// a query against compressed codes without ever decoding them back to
// float32, reused here instead of reimplemented.
type ADCKernel struct {
	Quantizer quantization.AsymmetricQuantizer
	Codes     [][]byte // one PQ code per chunk row, in chunk-local id order
}

// NewADCKernel wraps a trained quantizer and a chunk's codes.
func NewADCKernel(q quantization.AsymmetricQuantizer, codes [][]byte) *ADCKernel {
	return &ADCKernel{Quantizer: q, Codes: codes}
}

// Search implements segcore.Kernel.
func (k *ADCKernel) Search(dataset *segcore.SearchDataset, bitset segcore.BitsetView) ([][]int64, [][]float32, error) {
	ids := make([][]int64, dataset.NumQueries)
	dists := make([][]float32, dataset.NumQueries)

	for q := 0; q < dataset.NumQueries; q++ {
		table := k.Quantizer.ComputeDistanceTable(dataset.Query(q))
		qIDs := make([]int64, 0, len(k.Codes))
		qDists := make([]float32, 0, len(k.Codes))

		for i, code := range k.Codes {
			id := int64(i)
			if !bitset.Empty() && bitset.Test(id) {
				continue
			}
			qIDs = append(qIDs, id)
			qDists = append(qDists, k.Quantizer.AsymmetricDistance(table, code))
		}

		ids[q] = qIDs
		dists[q] = qDists
	}

	return ids, dists, nil
}

// RangeSearch implements segcore.Kernel, pre-filtering by
// [LowBound, HighBound] the same way BruteForceKernel does.
func (k *ADCKernel) RangeSearch(dataset *segcore.RangeSearchDataset, bitset segcore.BitsetView) ([][]int64, [][]float32, error) {
	ids := make([][]int64, dataset.NumQueries)
	dists := make([][]float32, dataset.NumQueries)

	for q := 0; q < dataset.NumQueries; q++ {
		table := k.Quantizer.ComputeDistanceTable(dataset.Query(q))
		var qIDs []int64
		var qDists []float32

		for i, code := range k.Codes {
			id := int64(i)
			if !bitset.Empty() && bitset.Test(id) {
				continue
			}
			d := k.Quantizer.AsymmetricDistance(table, code)
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
