package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const version = "1.0.0"

var (
	serverAddr string
	namespace  string
	timeout    time.Duration
)

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	flag.StringVar(&serverAddr, "server", "http://localhost:8080", "REST API base URL")
	flag.StringVar(&namespace, "namespace", "default", "namespace to use")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	command := os.Args[1]

	switch command {
	case "search":
		handleSearch(os.Args[2:])
	case "range-search":
		handleRangeSearch(os.Args[2:])
	case "range-search-native":
		handleRangeSearchNative(os.Args[2:])
	case "ingest":
		handleIngest(os.Args[2:])
	case "delete":
		handleDelete(os.Args[2:])
	case "stats":
		handleStats(os.Args[2:])
	case "health":
		handleHealth(os.Args[2:])
	case "version":
		fmt.Printf("segcore-cli version %s\n", version)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		showUsage()
		os.Exit(1)
	}
}

// searchResponse mirrors segcore.TopKSubResult's JSON shape closely
// enough for display purposes without importing the segcore package.
type searchResponse struct {
	SegOffsets []int64   `json:"SegOffsets"`
	Distances  []float32 `json:"Distances"`
}

func handleSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	var (
		queryVectorStr = fs.String("query", "", "query vector as JSON array (required)")
		k              = fs.Int("k", 10, "number of results to return")
		metric         = fs.String("metric", "L2", "distance metric (L2, IP, HAMMING, JACCARD, TANIMOTO)")
	)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.StringVar(&namespace, "namespace", namespace, "namespace")
	fs.Parse(args)

	if *queryVectorStr == "" {
		fmt.Println("Error: -query is required")
		fs.Usage()
		os.Exit(1)
	}

	vector, err := parseVector(*queryVectorStr)
	if err != nil {
		fmt.Printf("Error parsing query vector: %v\n", err)
		os.Exit(1)
	}

	body := map[string]interface{}{
		"namespace": namespace,
		"vector":    vector,
		"top_k":     *k,
		"metric":    *metric,
	}

	var resp searchResponse
	if err := postJSON("/v1/search", body, &resp); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	displaySearchResults(&resp)
}

func handleRangeSearch(args []string) {
	fs := flag.NewFlagSet("range-search", flag.ExitOnError)
	var (
		queryVectorStr = fs.String("query", "", "query vector as JSON array (required)")
		k              = fs.Int("k", 10, "number of results to return")
		metric         = fs.String("metric", "L2", "distance metric (L2, IP, HAMMING, JACCARD, TANIMOTO)")
		low            = fs.Float64("low", 0, "range low bound")
		high           = fs.Float64("high", 1, "range high bound")
	)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.StringVar(&namespace, "namespace", namespace, "namespace")
	fs.Parse(args)

	if *queryVectorStr == "" {
		fmt.Println("Error: -query is required")
		fs.Usage()
		os.Exit(1)
	}

	vector, err := parseVector(*queryVectorStr)
	if err != nil {
		fmt.Printf("Error parsing query vector: %v\n", err)
		os.Exit(1)
	}

	body := map[string]interface{}{
		"namespace":         namespace,
		"vector":            vector,
		"top_k":             *k,
		"metric":            *metric,
		"radius_low_bound":  *low,
		"radius_high_bound": *high,
	}

	var resp searchResponse
	if err := postJSON("/v1/range-search", body, &resp); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	displaySearchResults(&resp)
}

// rangeSearchNativeResponse mirrors segcore.RangeSubResult's JSON shape.
type rangeSearchNativeResponse struct {
	Lims       []int64   `json:"Lims"`
	SegOffsets []int64   `json:"SegOffsets"`
	Distances  []float32 `json:"Distances"`
}

func handleRangeSearchNative(args []string) {
	fs := flag.NewFlagSet("range-search-native", flag.ExitOnError)
	var (
		queryVectorStr = fs.String("query", "", "query vector as JSON array (required)")
		metric         = fs.String("metric", "L2", "distance metric (L2, IP, HAMMING, JACCARD, TANIMOTO)")
		radius         = fs.Float64("radius", 1, "search radius")
		low            = fs.Float64("low", 0, "range low bound")
		high           = fs.Float64("high", 1, "range high bound")
	)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.StringVar(&namespace, "namespace", namespace, "namespace")
	fs.Parse(args)

	if *queryVectorStr == "" {
		fmt.Println("Error: -query is required")
		fs.Usage()
		os.Exit(1)
	}

	vector, err := parseVector(*queryVectorStr)
	if err != nil {
		fmt.Printf("Error parsing query vector: %v\n", err)
		os.Exit(1)
	}

	body := map[string]interface{}{
		"namespace":  namespace,
		"vector":     vector,
		"metric":     *metric,
		"radius":     *radius,
		"low_bound":  *low,
		"high_bound": *high,
	}

	var resp rangeSearchNativeResponse
	if err := postJSON("/v1/range-search/native", body, &resp); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	nq := len(resp.Lims) - 1
	if nq < 1 {
		fmt.Println("No results found")
		return
	}
	lo, hi := resp.Lims[0], resp.Lims[1]
	fmt.Printf("Found %d results within radius\n\n", hi-lo)
	for i := lo; i < hi; i++ {
		fmt.Printf("Result %d:\n", i-lo+1)
		fmt.Printf("  ID:       %d\n", resp.SegOffsets[i])
		fmt.Printf("  Distance: %.6f\n", resp.Distances[i])
		fmt.Println()
	}
}

func handleIngest(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	var (
		vectorsStr = fs.String("vectors", "", "vectors as a JSON array of arrays (required)")
		metric     = fs.String("metric", "L2", "distance metric (L2, IP, HAMMING, JACCARD, TANIMOTO)")
	)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.StringVar(&namespace, "namespace", namespace, "namespace")
	fs.Parse(args)

	if *vectorsStr == "" {
		fmt.Println("Error: -vectors is required")
		fs.Usage()
		os.Exit(1)
	}

	var raw [][]float64
	if err := json.Unmarshal([]byte(*vectorsStr), &raw); err != nil {
		fmt.Printf("Error parsing vectors: %v\n", err)
		os.Exit(1)
	}
	vectors := make([][]float32, len(raw))
	for i, row := range raw {
		v := make([]float32, len(row))
		for j, x := range row {
			v[j] = float32(x)
		}
		vectors[i] = v
	}

	body := map[string]interface{}{
		"vectors": vectors,
		"metric":  *metric,
	}

	var result struct {
		Inserted int
		Failed   int
		Offset   int64
	}
	if err := postJSON("/v1/vectors/"+namespace, body, &result); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Ingested %d vectors into namespace %s (offset %d, %d failed)\n", result.Inserted, namespace, result.Offset, result.Failed)
}

func handleDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	var id = fs.Int64("id", -1, "global id of the vector to delete (required)")
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.StringVar(&namespace, "namespace", namespace, "namespace")
	fs.Parse(args)

	if *id < 0 {
		fmt.Println("Error: -id is required")
		fs.Usage()
		os.Exit(1)
	}

	url := fmt.Sprintf("%s/v1/vectors/%s/%d", serverAddr, namespace, *id)
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		fmt.Printf("Delete failed: %s\n", string(data))
		os.Exit(1)
	}

	fmt.Printf("✓ Deleted id %d from namespace %s\n", *id, namespace)
}

func handleStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.StringVar(&namespace, "namespace", namespace, "namespace")
	fs.Parse(args)

	var stats struct {
		Namespace  string
		ChunkCount int
		VectorLen  int64
	}
	if err := getJSON("/v1/stats/"+namespace, &stats); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Namespace Statistics ===")
	fmt.Printf("Namespace:   %s\n", stats.Namespace)
	fmt.Printf("Chunks:      %d\n", stats.ChunkCount)
	fmt.Printf("Vector Len:  %d\n", stats.VectorLen)
}

func handleHealth(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.Parse(args)

	var status struct {
		Status string `json:"status"`
	}
	if err := getJSON("/v1/health", &status); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Status: %s\n", status.Status)
	if status.Status != "ok" {
		os.Exit(1)
	}
}

func postJSON(path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(serverAddr+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(data))
	}
	return json.Unmarshal(data, out)
}

func getJSON(path string, out interface{}) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(serverAddr + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(data))
	}
	return json.Unmarshal(data, out)
}

func parseVector(s string) ([]float32, error) {
	var raw []float64
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, err
	}
	vector := make([]float32, len(raw))
	for i, v := range raw {
		vector[i] = float32(v)
	}
	return vector, nil
}

func displaySearchResults(resp *searchResponse) {
	if len(resp.SegOffsets) == 0 {
		fmt.Println("No results found")
		return
	}

	fmt.Printf("Found %d results\n\n", len(resp.SegOffsets))
	for i, id := range resp.SegOffsets {
		dist := float32(0)
		if i < len(resp.Distances) {
			dist = resp.Distances[i]
		}
		fmt.Printf("Result %d:\n", i+1)
		fmt.Printf("  ID:       %d\n", id)
		fmt.Printf("  Distance: %.6f\n", dist)
		fmt.Println()
	}
}

func showUsage() {
	fmt.Println(`segcore CLI - Client for the segcore REST API

Usage:
  segcore-cli <command> [options]

Commands:
  search                Search for the top-K nearest vectors
  range-search          Search within a distance band, ranked to top-K
  range-search-native   Search within a distance band, raw hits (no top-K)
  ingest                Build an HNSW chunk from a batch of vectors
  delete                Soft-delete a vector by global id
  stats                 Get namespace statistics
  health                Check server health
  version               Show version
  help                  Show this help message

Global Options:
  -server ADDRESS   REST API base URL (default: http://localhost:8080)
  -namespace NAME   Namespace to use (default: default)
  (Requests time out after 30s; the timeout cannot be set from the command line.)

Examples:

  # Search for similar vectors
  segcore-cli search \
    -query '[0.15, 0.25, 0.35]' \
    -k 10

  # Range search
  segcore-cli range-search \
    -query '[0.15, 0.25, 0.35]' \
    -k 10 -low 0.1 -high 0.5

  # Native range search (raw hits, no top-K projection)
  segcore-cli range-search-native \
    -query '[0.15, 0.25, 0.35]' \
    -radius 0.5 -low 0 -high 0.5

  # Ingest a batch of vectors (builds a new HNSW chunk)
  segcore-cli ingest -vectors '[[0.1,0.2],[0.3,0.4]]'

  # Delete a vector
  segcore-cli delete -id 12345

  # Get namespace statistics
  segcore-cli stats -namespace production

  # Check server health
  segcore-cli health

For more information, visit: https://github.com/obsidian-labs/segcore`)
}
