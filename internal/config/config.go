package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"pulse-mcp/internal/jira"
	"pulse-mcp/internal/stats"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Jira     jira.Config
	DataPath string
	LogDir   string
	CacheDir string

	// WorkspaceID keys the snapshot cache; usually the JIRA project key.
	WorkspaceID string

	// SnapshotBackend selects the persistence driver: "file" or "sqlite".
	SnapshotBackend     string
	SnapshotWeeksToKeep int

	EnableMermaidCharts bool

	Insights stats.InsightThresholds
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	cacheDir := filepath.Join(dataPath, "cache")

	// Ensure directories exist
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cacheDir).Msg("Failed to create cache directory")
	}

	delaySecs, _ := strconv.Atoi(getEnv("JIRA_REQUEST_DELAY_SECONDS", "10"))
	pageSize, _ := strconv.Atoi(getEnv("JIRA_PAGE_SIZE", "100"))

	cfg := &AppConfig{
		Jira: jira.Config{
			BaseURL:      getEnv("JIRA_URL", ""),
			XsrfToken:    getEnv("JIRA_XSRF_TOKEN", ""),
			SessionID:    getEnv("JIRA_SESSION_ID", ""),
			RememberMe:   getEnv("JIRA_REMEMBERME_COOKIE", ""),
			Token:        getEnv("JIRA_TOKEN", ""),
			RequestDelay: time.Duration(delaySecs) * time.Second,
			PageSize:     pageSize,
		},
		DataPath:            dataPath,
		LogDir:              logDir,
		CacheDir:            cacheDir,
		WorkspaceID:         getEnv("WORKSPACE_ID", getEnv("JIRA_PROJECT_KEY", "default")),
		SnapshotBackend:     getEnv("SNAPSHOT_BACKEND", "file"),
		SnapshotWeeksToKeep: getEnvInt("SNAPSHOT_WEEKS_TO_KEEP", 52),
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
		Insights: stats.InsightThresholds{
			MinResolutionRate:          getEnvFloat("INSIGHT_MIN_RESOLUTION_RATE", 0),
			CriticalResolutionRate:     getEnvFloat("INSIGHT_CRITICAL_RESOLUTION_RATE", 0),
			ConsecutiveIncreasingWeeks: getEnvInt("INSIGHT_CONSECUTIVE_INCREASING_WEEKS", 0),
			StableVarianceThreshold:    getEnvFloat("INSIGHT_STABLE_VARIANCE_THRESHOLD", 0),
			HighBugCapacityThreshold:   getEnvFloat("INSIGHT_HIGH_BUG_CAPACITY_THRESHOLD", 0),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return fallback
}
