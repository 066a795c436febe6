package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/obsidian-labs/segcore/pkg/api/rest"
	"github.com/obsidian-labs/segcore/pkg/api/rest/middleware"
	"github.com/obsidian-labs/segcore/pkg/config"
	"github.com/obsidian-labs/segcore/pkg/engine"
	"github.com/obsidian-labs/segcore/pkg/observability"
	"github.com/obsidian-labs/segcore/pkg/search"
	"github.com/obsidian-labs/segcore/pkg/tenant"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	// Parse command-line flags
	var (
		showVersion = flag.Bool("version", false, "show version and exit")
		showHelp    = flag.Bool("help", false, "show help and exit")
		configFile  = flag.String("config", "", "path to configuration file (optional)")
		host        = flag.String("host", "", "server host (overrides config/env)")
		port        = flag.Int("port", 0, "server port (overrides config/env)")
	)
	flag.Parse()

	// Show version
	if *showVersion {
		fmt.Printf("segcore server v%s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	// Show help
	if *showHelp {
		showUsage()
		os.Exit(0)
	}

	// Print banner
	printBanner()

	// Load configuration
	cfg := loadConfig(*configFile)

	// Override with command-line flags
	if *host != "" {
		cfg.REST.Host = *host
	}
	if *port > 0 {
		cfg.REST.Port = *port
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Println("Initializing segcore engine...")
	logger := observability.NewDefaultLogger()
	metrics := observability.NewMetrics()
	tenants := tenant.NewManager()
	var cache *search.QueryCache
	if cfg.Cache.Enabled {
		cache = search.NewQueryCache(cfg.Cache.Capacity, cfg.Cache.TTL)
	}
	eng := engine.New(cfg.Segcore, cfg.HNSW, tenants, cache, metrics, logger)

	// Print startup info
	printStartupInfo(cfg)

	errChan := make(chan error, 1)

	var restServer *rest.Server
	if cfg.REST.Enabled {
		restConfig := rest.Config{
			Host:        cfg.REST.Host,
			Port:        cfg.REST.Port,
			CORSEnabled: cfg.REST.CORSEnabled,
			CORSOrigins: cfg.REST.CORSOrigins,
			Auth: middleware.AuthConfig{
				Enabled:     cfg.REST.AuthEnabled,
				JWTSecret:   cfg.REST.JWTSecret,
				PublicPaths: cfg.REST.PublicPaths,
				AdminPaths:  cfg.REST.AdminPaths,
			},
			RateLimit: middleware.RateLimitConfig{
				Enabled:        cfg.REST.RateLimitEnabled,
				RequestsPerSec: cfg.REST.RateLimitPerSec,
				Burst:          cfg.REST.RateLimitBurst,
				PerIP:          cfg.REST.RateLimitPerIP,
				PerUser:        cfg.REST.RateLimitPerUser,
				GlobalLimit:    cfg.REST.RateLimitGlobal,
			},
		}

		var err error
		restServer, err = rest.NewServer(restConfig, eng)
		if err != nil {
			log.Fatalf("Failed to create REST server: %v", err)
		}

		go func() {
			log.Println("Starting REST API server...")
			if err := restServer.Start(); err != nil {
				errChan <- fmt.Errorf("REST server error: %w", err)
			}
		}()
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	log.Println("Server is ready. Press Ctrl+C to stop.")
	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-errChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if restServer != nil {
		if err := restServer.Stop(ctx); err != nil {
			log.Printf("Error stopping REST server: %v", err)
		}
	}

	log.Println("Server stopped. Goodbye!")
}

func loadConfig(configFile string) *config.Config {
	// TODO: support loading from YAML/JSON config file
	if configFile != "" {
		log.Printf("Warning: config file support not yet implemented, using environment variables")
	}

	return config.LoadFromEnv()
}

func printBanner() {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                           ║
║   ____  _____ ____    ____ ___  ____  _____               ║
║  / ___|| ____/ ___|  / ___/ _ \|  _ \| ____|              ║
║  \___ \|  _|| |  _  | |  | | | | |_) |  _|                ║
║   ___) | |__| |_| | | |__| |_| |  _ <| |___               ║
║  |____/|_____\____|  \____\___/|_| \_\_____|              ║
║                                                           ║
║   Embedded vector search core — brute-force, HNSW,       ║
║   and PQ (ADC) kernels behind one driver                  ║
║                                                           ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
	fmt.Printf("Version: %s (commit: %s)\n\n", version, commit)
}

func printStartupInfo(cfg *config.Config) {
	fmt.Println("\n╔════════════════════════════════════════════════════════╗")
	fmt.Println("║            REST API Configuration                      ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Enabled:          %-35v ║\n", cfg.REST.Enabled)
	if cfg.REST.Enabled {
		fmt.Printf("║ Address:          %-35s ║\n", fmt.Sprintf("%s:%d", cfg.REST.Host, cfg.REST.Port))
		fmt.Printf("║ Auth Enabled:     %-35v ║\n", cfg.REST.AuthEnabled)
		fmt.Printf("║ CORS Enabled:     %-35v ║\n", cfg.REST.CORSEnabled)
		fmt.Printf("║ Rate Limiting:    %-35v ║\n", cfg.REST.RateLimitEnabled)
		if cfg.REST.RateLimitEnabled {
			fmt.Printf("║ Rate:             %-35s ║\n", fmt.Sprintf("%.1f req/s (burst: %d)", cfg.REST.RateLimitPerSec, cfg.REST.RateLimitBurst))
		}
		fmt.Printf("║ API Docs:         %-35s ║\n", fmt.Sprintf("http://%s:%d/docs", cfg.REST.Host, cfg.REST.Port))
	}
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║               segcore Configuration                    ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Chunk size:       %-35d ║\n", cfg.Segcore.ChunkSize)
	fmt.Printf("║ Default metric:   %-35s ║\n", cfg.Segcore.DefaultMetric)
	fmt.Printf("║ Round decimal:    %-35d ║\n", cfg.Segcore.DefaultRoundDecimal)
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║               Cache Configuration                      ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Enabled:          %-35v ║\n", cfg.Cache.Enabled)
	fmt.Printf("║ Capacity:         %-35d ║\n", cfg.Cache.Capacity)
	fmt.Printf("║ TTL:              %-35s ║\n", cfg.Cache.TTL)
	fmt.Println("╚════════════════════════════════════════════════════════╝")
	fmt.Println()
}

func showUsage() {
	fmt.Println("segcore server - embedded vector search core")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  segcore-server [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -help             Show this help message")
	fmt.Println("  -version          Show version information")
	fmt.Println("  -config PATH      Accepted but ignored; configuration is read from the environment")
	fmt.Println("  -host HOST        REST API host (default: 0.0.0.0)")
	fmt.Println("  -port PORT        REST API port (default: 8080)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  VECTOR_REST_ENABLED        Enable the REST API (true/false)")
	fmt.Println("  VECTOR_REST_HOST           REST API host")
	fmt.Println("  VECTOR_REST_PORT           REST API port")
	fmt.Println("  VECTOR_REST_AUTH_ENABLED   Require JWT auth (true/false)")
	fmt.Println("  VECTOR_REST_JWT_SECRET     JWT signing secret")
	fmt.Println("  VECTOR_CACHE_ENABLED       Enable query cache (true/false)")
	fmt.Println("  VECTOR_CACHE_CAPACITY      Cache capacity")
	fmt.Println("  VECTOR_CACHE_TTL           Cache TTL (e.g., 5m)")
	fmt.Println("  SEGCORE_CHUNK_SIZE            Rows per chunk")
	fmt.Println("  SEGCORE_DEFAULT_ROUND_DECIMAL Default round_decimal")
	fmt.Println("  SEGCORE_DEFAULT_METRIC        Default metric (L2, IP, HAMMING, JACCARD, TANIMOTO)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Start with default configuration")
	fmt.Println("  segcore-server")
	fmt.Println()
	fmt.Println("  # Start on a custom port")
	fmt.Println("  segcore-server -port 9090")
	fmt.Println()
	fmt.Println("  # Start with environment variables")
	fmt.Println("  VECTOR_REST_PORT=9090 SEGCORE_DEFAULT_METRIC=IP segcore-server")
	fmt.Println()
}
