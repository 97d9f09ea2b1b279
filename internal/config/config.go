package config

import (
	"log"
	"os"
	"time"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Port string

	GCPProjectID string
	GCPLocation  string
	ModelName    string
	GeminiAPIKey string

	StorageBackend string // "memory" or "firestore"
	UseMockAgents  bool   // true = use mock collaborators even on GCP

	StepTimeout       time.Duration // 0 = no orchestrator-imposed timeout
	PrometheusEnabled bool
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration in %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

// Load reads all env vars and builds the config
func Load() *Config {
	modeStr := getEnv("HAVEN_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("HAVEN_PORT", "8080"),

		GCPProjectID: getEnv("HAVEN_GCP_PROJECT", ""),
		GCPLocation:  getEnv("HAVEN_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("HAVEN_MODEL_NAME", "gemini-2.5-pro"),
		GeminiAPIKey: getEnv("HAVEN_GEMINI_API_KEY", ""),

		StorageBackend: getEnv("HAVEN_STORAGE_BACKEND", "memory"),
		UseMockAgents:  getBoolEnv("HAVEN_USE_MOCK_AGENTS", mode == ModeLocal),

		StepTimeout:       getDurationEnv("HAVEN_STEP_TIMEOUT", 0),
		PrometheusEnabled: getBoolEnv("HAVEN_PROMETHEUS_ENABLED", true),
	}

	// Minimal validation in GCP mode
	if cfg.Mode == ModeGCP && cfg.GCPProjectID == "" && cfg.GeminiAPIKey == "" {
		log.Fatal("HAVEN_GCP_PROJECT or HAVEN_GEMINI_API_KEY must be set in gcp mode")
	}

	return cfg
}
