// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MaxPageLimit is the most items the live API returns per call.
const MaxPageLimit = 500

const (
	DefaultDealsFallback      = "Deal funnel Data.xlsx"
	DefaultWorkOrdersFallback = "Work_Order_Tracker Data.xlsx"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional per-environment overlay

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	// LLM_MODEL overrides llm.model and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it without a file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "founder-bi-agent")
	v.SetDefault("app.environment", "development")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.read_timeout", 15000)
	v.SetDefault("server.write_timeout", 120000)
	v.SetDefault("server.shutdown_timeout", 30000)
	v.SetDefault("camunda.broker_address", "")
	v.SetDefault("camunda.max_jobs_active", 5)
	v.SetDefault("camunda.timeout", 120000)
	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.timeout", 60000)
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("monday.api_token", "")
	v.SetDefault("monday.url", "https://api.monday.com/v2")
	v.SetDefault("monday.api_version", "2024-01")
	v.SetDefault("monday.page_limit", MaxPageLimit)
	v.SetDefault("monday.timeout", 30000)
	v.SetDefault("monday.cache_ttl", 0)
	v.SetDefault("sources.registry_path", "")
	v.SetDefault("sources.deals.board_id", "")
	v.SetDefault("sources.deals.fallback_path", DefaultDealsFallback)
	v.SetDefault("sources.deals.sheet", "")
	v.SetDefault("sources.deals.header_row", 0)
	v.SetDefault("sources.work_orders.board_id", "")
	v.SetDefault("sources.work_orders.fallback_path", DefaultWorkOrdersFallback)
	v.SetDefault("sources.work_orders.sheet", "")
	v.SetDefault("sources.work_orders.header_row", 0)
	v.SetDefault("memory.history_window", 5)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "")
	v.SetDefault("observability.service_name", "founder-bi-agent")
	v.SetDefault("observability.otlp_endpoint", "")
}

// loadEnvFile loads the first .env found walking towards the project root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig honours the variable names the agent has always been deployed with.
func overrideEmptyConfig(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Monday.APIToken == "" {
		cfg.Monday.APIToken = os.Getenv("MONDAY_API_TOKEN")
	}
	if cfg.Sources.Deals.BoardID == "" {
		cfg.Sources.Deals.BoardID = os.Getenv("BOARD_ID_DEALS")
	}
	if cfg.Sources.WorkOrders.BoardID == "" {
		cfg.Sources.WorkOrders.BoardID = os.Getenv("BOARD_ID_WORK_ORDERS")
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Monday.PageLimit <= 0 || cfg.Monday.PageLimit > MaxPageLimit {
		cfg.Monday.PageLimit = MaxPageLimit
	}
	if cfg.Monday.Timeout <= 0 {
		cfg.Monday.Timeout = 30000
	}
	if cfg.LLM.Timeout <= 0 {
		cfg.LLM.Timeout = 60000
	}
	if cfg.Memory.HistoryWindow <= 0 {
		cfg.Memory.HistoryWindow = 5
	}
	if cfg.Camunda.MaxJobsActive <= 0 {
		cfg.Camunda.MaxJobsActive = 5
	}

	normalizeSource(cfg, "sources.deals", &cfg.Sources.Deals, DefaultDealsFallback)
	normalizeSource(cfg, "sources.work_orders", &cfg.Sources.WorkOrders, DefaultWorkOrdersFallback)

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// normalizeSource clears board identifiers that are not positive integers,
// which routes that domain to its fallback file.
func normalizeSource(cfg *Config, key string, src *SourceConfig, fallback string) {
	src.BoardID = strings.TrimSpace(src.BoardID)
	if src.BoardID != "" {
		if id, err := strconv.ParseInt(src.BoardID, 10, 64); err != nil || id <= 0 {
			cfg.Warnings = append(cfg.Warnings,
				fmt.Sprintf("%s.board_id %q is not a positive integer; treating it as not configured", key, src.BoardID))
			src.BoardID = ""
		}
	}
	if src.FallbackPath == "" {
		src.FallbackPath = fallback
	}
	if src.HeaderRow < 0 {
		src.HeaderRow = 0
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if cfg.Monday.URL == "" && (cfg.Sources.Deals.BoardID != "" || cfg.Sources.WorkOrders.BoardID != "") {
		return fmt.Errorf("monday.url is required when a board_id is configured")
	}
	if cfg.LLM.APIKey != "" && cfg.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required when llm.api_key is set")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
