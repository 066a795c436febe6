package hnsw

import (
	"testing"

	"github.com/obsidian-labs/segcore/pkg/segcore"
)

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	idx := New(IndexConfig{
		M:              16,
		efConstruction: 200,
		DistanceFunc:   EuclideanDistance,
	})

	vectors := [][]float32{
		{0, 0},
		{1, 0},
		{3, 4},
	}
	for _, v := range vectors {
		if _, err := idx.Insert(v); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
	return idx
}

func TestKernelAdapterSearch(t *testing.T) {
	idx := buildTestIndex(t)
	adapter := NewKernelAdapter(idx, 50)

	dataset := &segcore.SearchDataset{
		NumQueries: 1,
		Dim:        2,
		TopK:       2,
		Metric:     segcore.L2,
		QueryData:  []float32{0, 0},
	}

	ids, dists, err := adapter.Search(dataset, segcore.EmptyBitset())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(ids) != 1 || len(ids[0]) != 2 {
		t.Fatalf("ids = %v, want 1 query with 2 results", ids)
	}
	if len(dists[0]) != len(ids[0]) {
		t.Fatalf("mismatched ids/dists lengths: %d vs %d", len(ids[0]), len(dists[0]))
	}
}

func TestKernelAdapterSearchRespectsBitset(t *testing.T) {
	idx := buildTestIndex(t)
	adapter := NewKernelAdapter(idx, 50)

	bitset := segcore.NewDenseBitset(3)
	bitset.Set(0) // exclude id 0, the closest point to the query

	dataset := &segcore.SearchDataset{
		NumQueries: 1,
		Dim:        2,
		TopK:       1,
		Metric:     segcore.L2,
		QueryData:  []float32{0, 0},
	}

	ids, _, err := adapter.Search(dataset, bitset)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, id := range ids[0] {
		if id == 0 {
			t.Fatal("excluded id 0 leaked into search result")
		}
	}
}

func TestKernelAdapterRangeSearch(t *testing.T) {
	idx := buildTestIndex(t)
	adapter := NewKernelAdapter(idx, 50)

	dataset := &segcore.RangeSearchDataset{
		NumQueries: 1,
		Dim:        2,
		Metric:     segcore.L2,
		LowBound:   0.5,
		HighBound:  1.5,
		QueryData:  []float32{0, 0},
	}

	ids, dists, err := adapter.RangeSearch(dataset, segcore.EmptyBitset())
	if err != nil {
		t.Fatalf("RangeSearch() error = %v", err)
	}
	if len(ids[0]) != 1 || ids[0][0] != 1 {
		t.Fatalf("ids[0] = %v, want [1] (the only point within [0.5, 1.5])", ids[0])
	}
	if len(dists[0]) != 1 {
		t.Fatalf("dists[0] = %v, want 1 distance", dists[0])
	}
}

var _ segcore.Kernel = (*KernelAdapter)(nil)
