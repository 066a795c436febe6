package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/obsidian-labs/segcore/pkg/engine"
	"github.com/obsidian-labs/segcore/pkg/segcore"
)

// Handler drives the in-process engine.Engine; no RPC hop, no client stub.
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a new REST API handler.
func NewHandler(e *engine.Engine) *Handler {
	return &Handler{engine: e}
}

// HealthCheck handles GET /v1/health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// GetStats handles GET /v1/stats and GET /v1/stats/{namespace}
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/stats")
	namespace := strings.TrimPrefix(path, "/")
	if namespace == "" {
		writeError(w, "namespace is required", http.StatusBadRequest)
		return
	}

	stats, err := h.engine.Stats(namespace)
	if err != nil {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, stats, http.StatusOK)
}

// searchRequestBody is the JSON shape the /v1/search and /v1/range-search
// endpoints decode, mapping directly onto engine.SearchRequest.
type searchRequestBody struct {
	Namespace    string    `json:"namespace"`
	Vector       []float32 `json:"vector"`
	TopK         int       `json:"top_k"`
	Metric       string    `json:"metric"`
	RoundDecimal int       `json:"round_decimal"`
	Radius       float64   `json:"radius"`
	RadiusLow    *float64  `json:"radius_low_bound"`
	RadiusHigh   *float64  `json:"radius_high_bound"`
}

// Search handles POST /v1/search, a single-query top-K request.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.handleSearch(w, r, false)
}

// RangeSearch handles POST /v1/range-search, the asymmetric range-to-topK
// request shape from spec.md §4.3.
func (h *Handler) RangeSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.handleSearch(w, r, true)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request, requireRange bool) {
	var body searchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	metric := segcore.L2
	if body.Metric != "" {
		parsed, ok := segcore.ParseMetric(body.Metric)
		if !ok {
			writeError(w, fmt.Sprintf("unrecognised metric %q", body.Metric), http.StatusBadRequest)
			return
		}
		metric = parsed
	}

	roundDecimal := body.RoundDecimal
	if roundDecimal == 0 {
		roundDecimal = -1
	}

	if requireRange && (body.RadiusLow == nil || body.RadiusHigh == nil) {
		writeError(w, "radius_low_bound and radius_high_bound are required for range search", http.StatusBadRequest)
		return
	}

	req := &engine.SearchRequest{
		Namespace:    body.Namespace,
		QueryData:    body.Vector,
		NumQueries:   1,
		Dim:          len(body.Vector),
		TopK:         body.TopK,
		Metric:       metric,
		RoundDecimal: roundDecimal,
		Radius:       body.Radius,
		RadiusLow:    body.RadiusLow,
		RadiusHigh:   body.RadiusHigh,
	}

	result, err := h.engine.Search(req)
	if err != nil {
		status := http.StatusInternalServerError
		if serr, ok := err.(*segcore.Error); ok && serr.Kind == segcore.ErrConfig {
			status = http.StatusBadRequest
		}
		writeError(w, err.Error(), status)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

// rangeSearchRequestBody is the JSON shape /v1/range-search/native decodes,
// mapping onto engine.RangeSearchRequest directly rather than onto
// searchRequestBody's top-K-shaped fields.
type rangeSearchRequestBody struct {
	Namespace    string    `json:"namespace"`
	Vector       []float32 `json:"vector"`
	Metric       string    `json:"metric"`
	RoundDecimal int       `json:"round_decimal"`
	Radius       float64   `json:"radius"`
	LowBound     float64   `json:"low_bound"`
	HighBound    float64   `json:"high_bound"`
}

// RangeSearchNative handles POST /v1/range-search/native: spec.md §4.4's
// native range entry point, returning a RangeSubResult verbatim rather than
// projecting hits down to a fixed top-K width the way /v1/range-search does.
func (h *Handler) RangeSearchNative(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body rangeSearchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	metric := segcore.L2
	if body.Metric != "" {
		parsed, ok := segcore.ParseMetric(body.Metric)
		if !ok {
			writeError(w, fmt.Sprintf("unrecognised metric %q", body.Metric), http.StatusBadRequest)
			return
		}
		metric = parsed
	}

	roundDecimal := body.RoundDecimal
	if roundDecimal == 0 {
		roundDecimal = -1
	}

	req := &engine.RangeSearchRequest{
		Namespace:    body.Namespace,
		QueryData:    body.Vector,
		NumQueries:   1,
		Dim:          len(body.Vector),
		Metric:       metric,
		RoundDecimal: roundDecimal,
		Radius:       body.Radius,
		LowBound:     body.LowBound,
		HighBound:    body.HighBound,
	}

	result, err := h.engine.RangeSearch(req)
	if err != nil {
		status := http.StatusInternalServerError
		if serr, ok := err.(*segcore.Error); ok && serr.Kind == segcore.ErrConfig {
			status = http.StatusBadRequest
		}
		writeError(w, err.Error(), status)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

// ingestRequestBody is the JSON shape POST /v1/vectors/{namespace} decodes.
type ingestRequestBody struct {
	Vectors [][]float32 `json:"vectors"`
	Metric  string      `json:"metric"`
}

// Ingest handles POST /v1/vectors/{namespace}: builds an HNSW chunk over the
// given vectors via engine.Engine.Ingest, the production entry point that
// actually populates a namespace's chunks.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	namespace := strings.TrimPrefix(r.URL.Path, "/v1/vectors/")
	if namespace == "" || strings.Contains(namespace, "/") {
		writeError(w, "Invalid URL format, expected POST /v1/vectors/{namespace}", http.StatusBadRequest)
		return
	}

	var body ingestRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(body.Vectors) == 0 {
		writeError(w, "vectors must be non-empty", http.StatusBadRequest)
		return
	}

	metric := segcore.L2
	if body.Metric != "" {
		parsed, ok := segcore.ParseMetric(body.Metric)
		if !ok {
			writeError(w, fmt.Sprintf("unrecognised metric %q", body.Metric), http.StatusBadRequest)
			return
		}
		metric = parsed
	}

	result, err := h.engine.Ingest(namespace, body.Vectors, metric)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

// Delete handles DELETE /v1/vectors/{namespace}/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/vectors/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		writeError(w, "Invalid URL format, expected /v1/vectors/{namespace}/{id}", http.StatusBadRequest)
		return
	}

	var id int64
	if _, err := fmt.Sscanf(parts[1], "%d", &id); err != nil {
		writeError(w, "id must be an integer", http.StatusBadRequest)
		return
	}

	if err := h.engine.Delete(parts[0], id); err != nil {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode response: %v", err), http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  message,
		"status": statusCode,
	})
}

// ServeDocs serves the OpenAPI/Swagger documentation
func ServeDocs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	content, err := os.ReadFile("docs/api/openapi.yaml")
	if err != nil {
		writeError(w, "OpenAPI spec not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// ServeSwaggerUI serves the Swagger UI HTML page
func ServeSwaggerUI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	html := `<!DOCTYPE html>
<html>
<head>
    <title>segcore API Documentation</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: "/docs/openapi.yaml",
                dom_id: '#swagger-ui',
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIBundle.SwaggerUIStandalonePreset
                ],
                layout: "BaseLayout"
            });
        };
    </script>
</body>
</html>`

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}
