// Package engine wires a namespace's chunks, its tenant's deletion
// bitset, and the segcore driver together behind a single in-process
// Search/RangeSearch call, the way pkg/api/rest's handlers expect to
// drive the core: no network hop, no separate storage service.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/obsidian-labs/segcore/pkg/config"
	"github.com/obsidian-labs/segcore/pkg/hnsw"
	"github.com/obsidian-labs/segcore/pkg/observability"
	"github.com/obsidian-labs/segcore/pkg/search"
	"github.com/obsidian-labs/segcore/pkg/segcore"
	"github.com/obsidian-labs/segcore/pkg/tenant"
)

// namespaceState holds everything the engine needs to run a query
// against one namespace: its chunk set and its tenant record (for the
// deletion bitset and quota checks).
type namespaceState struct {
	chunks []segcore.Chunk
	tenant *tenant.Tenant
}

// Engine is the in-process entry point pkg/api/rest calls into. Chunks and
// their kernels reach it either through Ingest (building and registering an
// HNSW-backed chunk) or directly through RegisterChunk (a test harness
// wiring in a reference kernel); it is the single place search requests,
// caching, metrics and logging meet, mirroring how pkg/search.CachedHybridSearch
// wraps HybridSearch with caching and pkg/observability with metrics.
type Engine struct {
	mu         sync.RWMutex
	namespaces map[string]*namespaceState

	tenants *tenant.Manager
	cache   *search.QueryCache
	metrics *observability.Metrics
	logger  *observability.Logger

	cfg     config.SegcoreConfig
	hnswCfg config.HNSWConfig
}

// New builds an Engine. cache may be nil to disable result caching.
func New(cfg config.SegcoreConfig, hnswCfg config.HNSWConfig, tenants *tenant.Manager, cache *search.QueryCache, metrics *observability.Metrics, logger *observability.Logger) *Engine {
	if logger == nil {
		logger = observability.NewDefaultLogger()
	}
	return &Engine{
		namespaces: make(map[string]*namespaceState),
		tenants:    tenants,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		hnswCfg:    hnswCfg,
	}
}

// RegisterChunk adds a chunk to a namespace, creating the tenant and
// namespace state on first use. offset/length are the chunk's global id
// range, matching segcore.Chunk's fields.
func (e *Engine) RegisterChunk(namespace string, offset, length int64, kernel segcore.Kernel) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns, exists := e.namespaces[namespace]
	if !exists {
		t, err := e.tenants.CreateTenant(namespace, tenant.DefaultQuota())
		if err != nil {
			t, err = e.tenants.GetTenant(namespace)
			if err != nil {
				return fmt.Errorf("engine: register chunk: %w", err)
			}
		}
		ns = &namespaceState{tenant: t}
		e.namespaces[namespace] = ns
	}

	ns.chunks = append(ns.chunks, segcore.Chunk{Offset: offset, Len: length, Kernel: kernel})
	if e.cache != nil {
		e.cache.InvalidateAll()
	}
	return nil
}

// IngestResult reports the outcome of an Ingest call.
type IngestResult struct {
	Inserted int
	Failed   int
	Offset   int64 // global id of the first inserted vector
}

// Ingest builds an HNSW graph over vectors and registers it as a new chunk
// in namespace, appended after whatever chunks already exist there. This is
// the one genuinely wired index family spec.md's kernel contract allows a
// caller to plug in behind the exact reference kernels: pkg/hnsw.Index via
// pkg/hnsw.KernelAdapter, the same collaborator RegisterChunk has always
// accepted.
func (e *Engine) Ingest(namespace string, vectors [][]float32, metric segcore.Metric) (*IngestResult, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("engine: ingest: no vectors given")
	}

	e.mu.RLock()
	var offset int64
	if ns, exists := e.namespaces[namespace]; exists {
		offset = totalLen(ns.chunks)
	}
	e.mu.RUnlock()

	idx := hnsw.New(hnsw.IndexConfig{
		M:            e.hnswCfg.M,
		DistanceFunc: hnswDistanceFunc(metric),
	})
	batch := idx.BatchInsert(vectors, nil)
	adapter := hnsw.NewKernelAdapter(idx, e.hnswCfg.DefaultEfSearch)

	if err := e.RegisterChunk(namespace, offset, int64(len(vectors)), adapter); err != nil {
		return nil, fmt.Errorf("engine: ingest: %w", err)
	}

	e.logger.Info("ingest completed", map[string]interface{}{
		"namespace": namespace,
		"inserted":  batch.SuccessCount,
		"failed":    batch.FailureCount,
		"offset":    offset,
	})

	return &IngestResult{Inserted: batch.SuccessCount, Failed: batch.FailureCount, Offset: offset}, nil
}

// hnswDistanceFunc maps a segcore.Metric to the pkg/hnsw.DistanceFunc that
// scores chunk rows the same way. hnsw's dense float32 model has no native
// Hamming/Jaccard/Tanimoto support, so binary metrics fall back to cosine,
// matching pkg/hnsw's own DefaultConfig.
func hnswDistanceFunc(metric segcore.Metric) hnsw.DistanceFunc {
	switch metric {
	case segcore.L2:
		return hnsw.SquaredEuclideanDistance
	case segcore.IP:
		return hnsw.DotProduct
	default:
		return hnsw.CosineSimilarity
	}
}

// Delete soft-deletes a global id within a namespace.
func (e *Engine) Delete(namespace string, id int64) error {
	ns, err := e.namespace(namespace)
	if err != nil {
		return err
	}
	ns.tenant.MarkDeleted(id)
	if e.cache != nil {
		e.cache.InvalidateAll()
	}
	if e.metrics != nil {
		e.metrics.UpdateDeletedIDs(namespace, 1)
	}
	return nil
}

func (e *Engine) namespace(name string) (*namespaceState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ns, exists := e.namespaces[name]
	if !exists {
		return nil, fmt.Errorf("engine: namespace %q not found", name)
	}
	return ns, nil
}

// SearchRequest is the engine-level request shape pkg/api/rest decodes
// into: a plain top-K query when RadiusLow/RadiusHigh are both nil, an
// asymmetric range-to-topK query otherwise, matching segcore.Driver.Run's
// own dispatch rule one layer up.
type SearchRequest struct {
	Namespace    string
	QueryData    []float32
	NumQueries   int
	Dim          int
	TopK         int
	Metric       segcore.Metric
	RoundDecimal int
	Radius       float64
	RadiusLow    *float64
	RadiusHigh   *float64
}

// Search runs a (possibly cached) query against a namespace's chunks,
// applying the tenant's deletion bitset and recording metrics/logs the
// way pkg/observability's patterns elsewhere in this repo do.
func (e *Engine) Search(req *SearchRequest) (*segcore.TopKSubResult, error) {
	ns, err := e.namespace(req.Namespace)
	if err != nil {
		return nil, err
	}

	if err := ns.tenant.CheckRateLimit(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	metric := req.Metric
	roundDecimal := req.RoundDecimal

	mode := "topk"
	hasRange := req.RadiusLow != nil && req.RadiusHigh != nil
	if hasRange {
		mode = "range"
	}

	var cacheKey search.CacheKey
	if e.cache != nil {
		cacheKey = search.GenerateTopKQueryKey(req.Namespace, metric, req.QueryData, req.TopK, req.Radius, hasRange)
		cacheKey += search.CacheKey(fmt.Sprintf(":rd=%d", roundDecimal))
		if hasRange {
			cacheKey += search.CacheKey(fmt.Sprintf(":band=%v,%v", *req.RadiusLow, *req.RadiusHigh))
		}
		if cached, found := e.cache.GetTopKResult(cacheKey); found {
			if e.metrics != nil {
				e.metrics.RecordCacheHit()
			}
			e.logger.Debug("search cache hit", map[string]interface{}{"namespace": req.Namespace, "mode": mode})
			return cached, nil
		}
		if e.metrics != nil {
			e.metrics.RecordCacheMiss()
		}
	}

	dataset := &segcore.SearchDataset{
		NumQueries:   req.NumQueries,
		Dim:          req.Dim,
		TopK:         req.TopK,
		Metric:       metric,
		RoundDecimal: roundDecimal,
		QueryData:    req.QueryData,
	}

	driverReq := &segcore.Request{
		Dataset:    dataset,
		Radius:     req.Radius,
		RadiusLow:  req.RadiusLow,
		RadiusHigh: req.RadiusHigh,
	}

	start := time.Now()
	driver := segcore.NewDriver(ns.chunks)
	bitset := ns.tenant.DeletionBitset(0, totalLen(ns.chunks))
	denseBitset, _ := bitset.(*segcore.DenseBitset)

	result, err := driver.Run(driverReq, denseBitset)
	elapsed := time.Since(start)

	if err != nil {
		if e.metrics != nil {
			if serr, ok := err.(*segcore.Error); ok {
				e.metrics.RecordError("Search", serr.Kind.String())
			}
		}
		e.logger.Error("search failed", map[string]interface{}{"namespace": req.Namespace, "error": err.Error()})
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.RecordSearch(req.Namespace, mode, len(ns.chunks), elapsed, sentinelRatio(result))
	}
	e.logger.Debug("search completed", map[string]interface{}{"namespace": req.Namespace, "mode": mode, "duration_ms": elapsed.Milliseconds()})

	if e.cache != nil {
		e.cache.PutTopKResult(cacheKey, result)
		if e.metrics != nil {
			e.metrics.UpdateCacheSize(e.cache.Size())
		}
	}

	return result, nil
}

// RangeSearchRequest is the engine-level request shape for spec.md §4.4's
// native range-search entry point: unlike SearchRequest, there is no topk —
// the result width is whatever each query's band contains.
type RangeSearchRequest struct {
	Namespace    string
	QueryData    []float32
	NumQueries   int
	Dim          int
	Metric       segcore.Metric
	RoundDecimal int
	Radius       float64
	LowBound     float64
	HighBound    float64
}

// RangeSearch runs a native range query against a namespace's chunks and
// returns a RangeSubResult copying ids/distances verbatim, with no top-K
// projection — the range half of the searcher/driver pipeline that Search's
// range-to-topK dispatch does not exercise.
func (e *Engine) RangeSearch(req *RangeSearchRequest) (*segcore.RangeSubResult, error) {
	ns, err := e.namespace(req.Namespace)
	if err != nil {
		return nil, err
	}

	if err := ns.tenant.CheckRateLimit(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	low, high := req.Metric.SquareBoundsForL2(req.LowBound, req.HighBound)
	dataset := &segcore.RangeSearchDataset{
		NumQueries:   req.NumQueries,
		Dim:          req.Dim,
		Metric:       req.Metric,
		RoundDecimal: req.RoundDecimal,
		Radius:       req.Radius,
		LowBound:     low,
		HighBound:    high,
		QueryData:    req.QueryData,
	}

	start := time.Now()
	driver := segcore.NewDriver(ns.chunks)
	bitset := ns.tenant.DeletionBitset(0, totalLen(ns.chunks))
	denseBitset, _ := bitset.(*segcore.DenseBitset)

	result, err := driver.RunRange(&segcore.RangeRequest{Dataset: dataset}, denseBitset)
	elapsed := time.Since(start)

	if err != nil {
		if e.metrics != nil {
			if serr, ok := err.(*segcore.Error); ok {
				e.metrics.RecordError("RangeSearch", serr.Kind.String())
			}
		}
		e.logger.Error("range search failed", map[string]interface{}{"namespace": req.Namespace, "error": err.Error()})
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.RecordSearch(req.Namespace, "range_native", len(ns.chunks), elapsed, 0)
	}
	e.logger.Debug("range search completed", map[string]interface{}{"namespace": req.Namespace, "duration_ms": elapsed.Milliseconds()})

	return result, nil
}

// Stats reports basic per-namespace facts for the REST /v1/stats endpoint.
type Stats struct {
	Namespace  string
	ChunkCount int
	VectorLen  int64
}

func (e *Engine) Stats(namespace string) (*Stats, error) {
	ns, err := e.namespace(namespace)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Namespace:  namespace,
		ChunkCount: len(ns.chunks),
		VectorLen:  totalLen(ns.chunks),
	}, nil
}

func totalLen(chunks []segcore.Chunk) int64 {
	var total int64
	for _, c := range chunks {
		if c.Offset+c.Len > total {
			total = c.Offset + c.Len
		}
	}
	return total
}

func sentinelRatio(r *segcore.TopKSubResult) float64 {
	if r == nil || len(r.SegOffsets) == 0 {
		return 0
	}
	empty := 0
	for _, id := range r.SegOffsets {
		if id == segcore.SentinelID {
			empty++
		}
	}
	return float64(empty) / float64(len(r.SegOffsets))
}
