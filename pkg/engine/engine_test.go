package engine

import (
	"testing"

	"github.com/obsidian-labs/segcore/pkg/config"
	"github.com/obsidian-labs/segcore/pkg/observability"
	"github.com/obsidian-labs/segcore/pkg/search"
	"github.com/obsidian-labs/segcore/pkg/segcore"
	"github.com/obsidian-labs/segcore/pkg/segcore/kernel"
	"github.com/obsidian-labs/segcore/pkg/tenant"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.Default()
	tm := tenant.NewManager()
	cache := search.NewQueryCache(16, 0)
	return New(cfg.Segcore, cfg.HNSW, tm, cache, nil, observability.NewDefaultLogger())
}

func TestEngineSearchTopK(t *testing.T) {
	e := newTestEngine(t)

	rows := []float32{0, 0, 1, 0, 3, 4}
	k := kernel.NewBruteForceKernel(rows, 2)
	if err := e.RegisterChunk("default", 0, 3, k); err != nil {
		t.Fatalf("RegisterChunk() error = %v", err)
	}

	result, err := e.Search(&SearchRequest{
		Namespace:    "default",
		QueryData:    []float32{0, 0},
		NumQueries:   1,
		Dim:          2,
		TopK:         2,
		Metric:       segcore.L2,
		RoundDecimal: -1,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.SegOffsets) != 2 {
		t.Fatalf("len(SegOffsets) = %d, want 2", len(result.SegOffsets))
	}
	if result.SegOffsets[0] != 0 {
		t.Errorf("closest id = %d, want 0 (the query itself)", result.SegOffsets[0])
	}
}

func TestEngineSearchRespectsDeletion(t *testing.T) {
	e := newTestEngine(t)

	rows := []float32{0, 0, 1, 0, 3, 4}
	k := kernel.NewBruteForceKernel(rows, 2)
	if err := e.RegisterChunk("default", 0, 3, k); err != nil {
		t.Fatalf("RegisterChunk() error = %v", err)
	}
	if err := e.Delete("default", 0); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	result, err := e.Search(&SearchRequest{
		Namespace:  "default",
		QueryData:  []float32{0, 0},
		NumQueries: 1,
		Dim:        2,
		TopK:       3,
		Metric:     segcore.L2,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, id := range result.SegOffsets {
		if id == 0 {
			t.Fatal("deleted id 0 leaked into search result")
		}
	}
}

func TestEngineSearchUnknownNamespace(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Search(&SearchRequest{Namespace: "missing", NumQueries: 1, Dim: 1, TopK: 1, QueryData: []float32{0}})
	if err == nil {
		t.Fatal("Search() on unknown namespace should error")
	}
}

func TestEngineStats(t *testing.T) {
	e := newTestEngine(t)
	rows := []float32{0, 0, 1, 0}
	k := kernel.NewBruteForceKernel(rows, 2)
	if err := e.RegisterChunk("default", 0, 2, k); err != nil {
		t.Fatalf("RegisterChunk() error = %v", err)
	}

	stats, err := e.Stats("default")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.ChunkCount != 1 || stats.VectorLen != 2 {
		t.Errorf("stats = %+v, want ChunkCount=1 VectorLen=2", stats)
	}
}

func TestEngineIngestBuildsAnHNSWChunk(t *testing.T) {
	e := newTestEngine(t)

	vectors := [][]float32{{0, 0}, {1, 0}, {3, 4}, {10, 10}}
	result, err := e.Ingest("default", vectors, segcore.L2)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if result.Inserted != len(vectors) {
		t.Fatalf("Inserted = %d, want %d", result.Inserted, len(vectors))
	}
	if result.Offset != 0 {
		t.Fatalf("Offset = %d, want 0 for a namespace's first ingest", result.Offset)
	}

	stats, err := e.Stats("default")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.ChunkCount != 1 || stats.VectorLen != int64(len(vectors)) {
		t.Errorf("stats = %+v, want ChunkCount=1 VectorLen=%d", stats, len(vectors))
	}

	out, err := e.Search(&SearchRequest{
		Namespace:    "default",
		QueryData:    []float32{0, 0},
		NumQueries:   1,
		Dim:          2,
		TopK:         1,
		Metric:       segcore.L2,
		RoundDecimal: -1,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(out.SegOffsets) != 1 {
		t.Fatalf("len(SegOffsets) = %d, want 1", len(out.SegOffsets))
	}
}

func TestEngineIngestAppendsASecondChunkAtAnOffset(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.Ingest("default", [][]float32{{0, 0}, {1, 1}}, segcore.L2); err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}
	second, err := e.Ingest("default", [][]float32{{5, 5}}, segcore.L2)
	if err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}
	if second.Offset != 2 {
		t.Fatalf("second Offset = %d, want 2", second.Offset)
	}

	stats, err := e.Stats("default")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.ChunkCount != 2 || stats.VectorLen != 3 {
		t.Errorf("stats = %+v, want ChunkCount=2 VectorLen=3", stats)
	}
}

func TestEngineRangeSearchReturnsRangeSubResult(t *testing.T) {
	e := newTestEngine(t)
	rows := []float32{0, 0, 1, 0, 3, 4}
	k := kernel.NewBruteForceKernel(rows, 2)
	if err := e.RegisterChunk("default", 0, 3, k); err != nil {
		t.Fatalf("RegisterChunk() error = %v", err)
	}

	result, err := e.RangeSearch(&RangeSearchRequest{
		Namespace:    "default",
		QueryData:    []float32{0, 0},
		NumQueries:   1,
		Dim:          2,
		Metric:       segcore.L2,
		RoundDecimal: -1,
		Radius:       2.0,
		LowBound:     0,
		HighBound:    2.0,
	})
	if err != nil {
		t.Fatalf("RangeSearch() error = %v", err)
	}
	ids, _ := result.Hits(0)
	found := false
	for _, id := range ids {
		if id == 0 {
			found = true
		}
		if id == 2 {
			t.Errorf("id 2 (distance 5) should fall outside the [0,2] band, ids = %v", ids)
		}
	}
	if !found {
		t.Errorf("expected id 0 (the query itself, distance 0) in range hits, ids = %v", ids)
	}
}

func TestEngineRangeSearchUnknownNamespace(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.RangeSearch(&RangeSearchRequest{Namespace: "missing", NumQueries: 1, Dim: 1, QueryData: []float32{0}, HighBound: 1})
	if err == nil {
		t.Fatal("RangeSearch() on unknown namespace should error")
	}
}

func TestEngineSearchCaching(t *testing.T) {
	e := newTestEngine(t)
	rows := []float32{0, 0, 1, 0}
	k := kernel.NewBruteForceKernel(rows, 2)
	if err := e.RegisterChunk("default", 0, 2, k); err != nil {
		t.Fatalf("RegisterChunk() error = %v", err)
	}

	req := &SearchRequest{
		Namespace:  "default",
		QueryData:  []float32{0, 0},
		NumQueries: 1,
		Dim:        2,
		TopK:       1,
		Metric:     segcore.L2,
	}

	first, err := e.Search(req)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	second, err := e.Search(req)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if first.SegOffsets[0] != second.SegOffsets[0] {
		t.Errorf("cached result mismatch: %v vs %v", first.SegOffsets, second.SegOffsets)
	}
}
