// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Camunda       CamundaConfig       `mapstructure:"camunda"`
	Database      DatabaseConfig      `mapstructure:"database"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Monday        MondayConfig        `mapstructure:"monday"`
	Sources       SourcesConfig       `mapstructure:"sources"`
	Memory        MemoryConfig        `mapstructure:"memory"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`

	// Warnings collects non-fatal problems found while loading.
	Warnings []string `mapstructure:"-"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// CamundaConfig enables the workflow job worker when BrokerAddress is set.
type CamundaConfig struct {
	BrokerAddress string `mapstructure:"broker_address"`
	MaxJobsActive int    `mapstructure:"max_jobs_active"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// Enabled reports whether a broker is configured.
func (c CamundaConfig) Enabled() bool {
	return c.BrokerAddress != ""
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- External APIs ---

// LLMConfig points at an OpenAI-compatible chat completions API.
type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	Temperature float64 `mapstructure:"temperature"`
}

// Configured reports whether a model credential is present.
func (l LLMConfig) Configured() bool {
	return l.APIKey != ""
}

// MondayConfig holds the live board API settings.
type MondayConfig struct {
	APIToken   string `mapstructure:"api_token"`
	URL        string `mapstructure:"url"`
	APIVersion string `mapstructure:"api_version"`
	PageLimit  int    `mapstructure:"page_limit"`
	Timeout    int    `mapstructure:"timeout"`   // milliseconds
	CacheTTL   int    `mapstructure:"cache_ttl"` // milliseconds, 0 disables
}

// --- Source routing ---

// SourcesConfig holds one descriptor per data domain.
type SourcesConfig struct {
	RegistryPath string       `mapstructure:"registry_path"`
	Deals        SourceConfig `mapstructure:"deals"`
	WorkOrders   SourceConfig `mapstructure:"work_orders"`
}

// SourceConfig selects the live board when BoardID is set, else the fallback file.
// A zero HeaderRow leaves the header offset to the source registry.
type SourceConfig struct {
	BoardID      string `mapstructure:"board_id"`
	FallbackPath string `mapstructure:"fallback_path"`
	Sheet        string `mapstructure:"sheet"`
	HeaderRow    int    `mapstructure:"header_row"`
}

type MemoryConfig struct {
	HistoryWindow int `mapstructure:"history_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type ObservabilityConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}
