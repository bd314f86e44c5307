package tools

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultSiteURL  = "https://jbisits.github.io/OceanRasterConversions.jl/stable"
	defaultCacheTTL = 7 * 24 * time.Hour // 7 days

	envDataDir  = "DOCSEARCH_DATA_DIR"
	envSiteURL  = "DOCSEARCH_SITE_URL"
	envIndexURL = "DOCSEARCH_INDEX_URL"
	envCacheTTL = "DOCSEARCH_CACHE_TTL"
)

// Config holds the runtime settings of the documentation tools.
type Config struct {
	DataDir  string        // Where docs, index and lock live
	SiteURL  string        // Root of the rendered documentation site
	IndexURL string        // search_index.js to download on refresh
	CacheTTL time.Duration // Age after which local docs are considered stale
}

// ConfigFromEnv reads the DOCSEARCH_* variables. Unset values keep defaults.
func ConfigFromEnv() Config {
	cfg := Config{
		DataDir:  os.Getenv(envDataDir),
		SiteURL:  strings.TrimSuffix(os.Getenv(envSiteURL), "/"),
		IndexURL: os.Getenv(envIndexURL),
		CacheTTL: defaultCacheTTL,
	}

	if cfg.SiteURL == "" {
		cfg.SiteURL = defaultSiteURL
	}
	if cfg.IndexURL == "" {
		cfg.IndexURL = cfg.SiteURL + "/search_index.js"
	}
	if raw := os.Getenv(envCacheTTL); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			log.Printf("Warning: Ignoring invalid %s=%q, using %v", envCacheTTL, raw, defaultCacheTTL)
		} else {
			cfg.CacheTTL = ttl
		}
	}

	return cfg
}

var (
	dataDir  string // Data directory for documentation and search index
	siteURL  = defaultSiteURL
	indexURL = defaultSiteURL + "/search_index.js"
	cacheTTL = defaultCacheTTL
)

// Configure applies cfg to the package. Empty fields leave the current value.
func Configure(cfg Config) {
	if cfg.DataDir != "" {
		dataDir = cfg.DataDir
		os.MkdirAll(filepath.Join(dataDir, "docs"), 0755)
		os.MkdirAll(filepath.Join(dataDir, "search"), 0755)
		log.Printf("✓ Data directory: %s (%s)", dataDir, envDataDir)
	}
	if cfg.SiteURL != "" {
		siteURL = cfg.SiteURL
	}
	if cfg.IndexURL != "" {
		indexURL = cfg.IndexURL
	}
	if cfg.CacheTTL > 0 {
		cacheTTL = cfg.CacheTTL
	}
}

func init() {
	// Strategy 1: Try user home directory first (standalone installation)
	homeDir, err := os.UserHomeDir()
	if err == nil {
		userDataDir := filepath.Join(homeDir, ".docsearch-mcp")

		if info, err := os.Stat(userDataDir); err == nil && info.IsDir() {
			dataDir = userDataDir
			return
		}

		if err := os.MkdirAll(userDataDir, 0755); err == nil {
			dataDir = userDataDir
			os.MkdirAll(filepath.Join(dataDir, "docs"), 0755)
			os.MkdirAll(filepath.Join(dataDir, "search"), 0755)
			return
		}

		log.Printf("Warning: Could not create user data directory at %s: %v", userDataDir, err)
	} else {
		log.Printf("Warning: Could not determine user home directory: %v", err)
	}

	// Strategy 2: Try relative to executable (bundled installation)
	// Binary at: <root>/bin/docsearch-mcp-server
	// Data at:   <root>/data/
	execPath, err := os.Executable()
	if err == nil {
		relativeDataDir := filepath.Join(filepath.Dir(execPath), "..", "data")
		if info, err := os.Stat(relativeDataDir); err == nil && info.IsDir() {
			dataDir, _ = filepath.Abs(relativeDataDir)
			return
		}
	}

	// Strategy 3: Last resort fallback to current working directory
	dataDir = filepath.Join(".", "data")
	log.Printf("⚠️  Data directory (fallback): %s", dataDir)

	os.MkdirAll(filepath.Join(dataDir, "docs"), 0755)
	os.MkdirAll(filepath.Join(dataDir, "search"), 0755)
}
