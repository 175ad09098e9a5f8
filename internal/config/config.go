package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// DefaultLabels is the entity label set sent to the NER model.
var DefaultLabels = []string{
	"person", "organization", "location",
	"email", "phone number", "credit card number",
	"internal project name",
	"ip address", "passport number",
}

// Cfg holds all runtime configuration loaded from environment variables.
type Cfg struct {
	// Server
	ListenAddr string // HOST:PORT, e.g. 0.0.0.0:8000

	// Embedding (Ollama)
	OllamaBaseURL  string        // OLLAMA_BASE_URL=http://localhost:11434
	EmbedModel     string        // EMBED_MODEL=nomic-embed-text
	EmbedDimension int           // EMBED_DIMENSION=768, length of the fallback vector
	EmbedTimeout   time.Duration // EMBED_TIMEOUT=300s

	// NER sidecar
	NEREnabled   bool     // NER_ENABLED=true
	NERURLs      []string // NER_URL=http://ner-a:8001,http://ner-b:8001
	NERLabels    []string // NER_LABELS=person,organization,...
	NERThreshold float64  // NER_THRESHOLD=0.3
	NERCacheSize int      // NER_CACHE_SIZE=1024, 0 disables the cache
	NERTimeout   time.Duration

	// Chunking, in words
	ChunkSize    int // SCANNER_CHUNK_SIZE=300
	ChunkOverlap int // SCANNER_CHUNK_OVERLAP=50

	// Extra regex rules (YAML)
	RulesFile string // RULES_FILE=rules.yaml

	// LLM secret auditor
	SecretAuditor bool          // SECRET_AUDITOR=true
	LLMModel      string        // LLM_MODEL=qwen2.5-coder
	LLMTimeout    time.Duration // LLM_TIMEOUT=120s

	// Privacy
	DefaultEpsilon  float64 // DEFAULT_EPSILON=1.0
	L1Sensitivity   float64 // L1_SENSITIVITY=0.1
	MinEpsilon      float64 // MIN_EPSILON=0.0001
	BudgetThreshold float64 // PRIVACY_BUDGET_THRESHOLD=0.5

	LogLevel slog.Level // LOG_LEVEL=info
}

// Load reads .env (if present) then environment variables and returns Cfg.
func Load() (*Cfg, error) {
	// Best-effort: load .env from current directory
	_ = godotenv.Load()

	host := envOr("HOST", "0.0.0.0")
	port := envOr("PORT", "8000")

	cfg := &Cfg{
		ListenAddr:    host + ":" + port,
		OllamaBaseURL: strings.TrimRight(envOr("OLLAMA_BASE_URL", "http://localhost:11434"), "/"),
		EmbedModel:    envOr("EMBED_MODEL", "nomic-embed-text"),
		NEREnabled:    envBool("NER_ENABLED", true),
		NERURLs:       splitURLs(envOr("NER_URL", "http://localhost:8001")),
		NERLabels:     ParseLabels(os.Getenv("NER_LABELS")),
		RulesFile:     strings.TrimSpace(os.Getenv("RULES_FILE")),
		SecretAuditor: envBool("SECRET_AUDITOR", false),
		LLMModel:      envOr("LLM_MODEL", "qwen2.5-coder"),
	}

	var err error
	if cfg.EmbedDimension, err = envInt("EMBED_DIMENSION", 768); err != nil {
		return nil, err
	}
	if cfg.EmbedTimeout, err = envDuration("EMBED_TIMEOUT", 300*time.Second); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = envDuration("LLM_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.NERTimeout, err = envDuration("NER_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.NERThreshold, err = envFloat("NER_THRESHOLD", 0.3); err != nil {
		return nil, err
	}
	if cfg.NERCacheSize, err = envInt("NER_CACHE_SIZE", 1024); err != nil {
		return nil, err
	}
	if cfg.ChunkSize, err = envInt("SCANNER_CHUNK_SIZE", 300); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = envInt("SCANNER_CHUNK_OVERLAP", 50); err != nil {
		return nil, err
	}
	if cfg.DefaultEpsilon, err = envFloat("DEFAULT_EPSILON", 1.0); err != nil {
		return nil, err
	}
	if cfg.L1Sensitivity, err = envFloat("L1_SENSITIVITY", 0.1); err != nil {
		return nil, err
	}
	if cfg.MinEpsilon, err = envFloat("MIN_EPSILON", 0.0001); err != nil {
		return nil, err
	}
	if cfg.BudgetThreshold, err = envFloat("PRIVACY_BUDGET_THRESHOLD", 0.5); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = parseLevel(os.Getenv("LOG_LEVEL")); err != nil {
		return nil, err
	}

	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("SCANNER_CHUNK_SIZE must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("SCANNER_CHUNK_OVERLAP must be in [0, %d), got %d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.NEREnabled && len(cfg.NERURLs) == 0 {
		return nil, fmt.Errorf("NER_URL must name at least one sidecar when NER_ENABLED")
	}
	if cfg.L1Sensitivity <= 0 || cfg.MinEpsilon <= 0 {
		return nil, fmt.Errorf("L1_SENSITIVITY and MIN_EPSILON must be positive")
	}
	return cfg, nil
}

// ParseLabels splits a comma-separated label list, trimming blanks and
// duplicates. An empty list yields DefaultLabels.
func ParseLabels(raw string) []string {
	labels := lo.Uniq(lo.Filter(
		lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
			return strings.ToLower(strings.TrimSpace(s))
		}),
		func(s string, _ int) bool { return s != "" },
	))
	if len(labels) == 0 {
		return append([]string(nil), DefaultLabels...)
	}
	return labels
}

// splitURLs splits a comma-separated URL list and trims trailing slashes.
func splitURLs(raw string) []string {
	return lo.Uniq(lo.FilterMap(strings.Split(raw, ","), func(s string, _ int) (string, bool) {
		s = strings.TrimRight(strings.TrimSpace(s), "/")
		return s, s != ""
	}))
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	return raw == "1" || strings.EqualFold(raw, "true")
}

func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// envDuration accepts Go durations ("90s") or a bare number of seconds.
func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var lvl slog.Level
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}
