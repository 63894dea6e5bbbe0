package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration options for the task keeper service
type Config struct {
	Database     DatabaseConfig     `yaml:"database"`
	Gateway      GatewayConfig      `yaml:"gateway"`
	Presentation PresentationConfig `yaml:"presentation"`
	Tasks        TasksConfig        `yaml:"tasks"`
	Wiki         WikiConfig         `yaml:"wiki"`
	Server       ServerConfig       `yaml:"server"`
	Application  ApplicationConfig  `yaml:"application"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Dir          string        `yaml:"dir" env:"VK_DB_DIR"`
	Filename     string        `yaml:"filename" env:"VK_DB_FILENAME"`
	QueryTimeout time.Duration `yaml:"query_timeout" env:"VK_DB_QUERY_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"VK_DB_WRITE_TIMEOUT"`
}

// GatewayConfig holds chat gateway configuration
type GatewayConfig struct {
	BaseURL          string        `yaml:"base_url" env:"VK_GATEWAY_BASE_URL"`
	Token            string        `yaml:"token" env:"VK_GATEWAY_TOKEN"`
	TasksChannelID   int64         `yaml:"tasks_channel_id" env:"VK_GATEWAY_TASKS_CHANNEL_ID"`
	ArchiveChannelID int64         `yaml:"archive_channel_id" env:"VK_GATEWAY_ARCHIVE_CHANNEL_ID"`
	RequestTimeout   time.Duration `yaml:"request_timeout" env:"VK_GATEWAY_REQUEST_TIMEOUT"`
}

// PresentationConfig holds artifact rendering and reconciliation configuration
type PresentationConfig struct {
	ReconcileHistoryLimit int      `yaml:"reconcile_history_limit" env:"VK_PRESENTATION_HISTORY_LIMIT"`
	FooterQuotes          []string `yaml:"footer_quotes"`
}

// TasksConfig holds task lifecycle configuration
type TasksConfig struct {
	UpdateRetryLimit int `yaml:"update_retry_limit" env:"VK_TASKS_UPDATE_RETRY_LIMIT"`
}

// WikiConfig holds wiki scraper configuration
type WikiConfig struct {
	BaseURL        string        `yaml:"base_url" env:"VK_WIKI_BASE_URL"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"VK_WIKI_REQUEST_TIMEOUT"`
}

// ServerConfig holds HTTP command surface configuration
type ServerConfig struct {
	ListenAddr     string        `yaml:"listen_addr" env:"VK_SERVER_LISTEN_ADDR"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"VK_SERVER_REQUEST_TIMEOUT"`
}

// ApplicationConfig holds application-level configuration
type ApplicationConfig struct {
	LogLevel string `yaml:"log_level" env:"VK_LOG_LEVEL"`
	Verbose  bool   `yaml:"verbose" env:"VK_VERBOSE"`
}

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultDBDir := filepath.Join(homeDir, ".veliankeeper")

	return &Config{
		Database: DatabaseConfig{
			Dir:          defaultDBDir,
			Filename:     "main_data.db",
			QueryTimeout: 10 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Gateway: GatewayConfig{
			RequestTimeout: 15 * time.Second,
		},
		Presentation: PresentationConfig{
			ReconcileHistoryLimit: 100,
		},
		Tasks: TasksConfig{
			UpdateRetryLimit: 5,
		},
		Wiki: WikiConfig{
			BaseURL:        "https://foxhole.wiki.gg",
			RequestTimeout: 10 * time.Second,
		},
		Server: ServerConfig{
			ListenAddr:     ":8080",
			RequestTimeout: 30 * time.Second,
		},
		Application: ApplicationConfig{
			LogLevel: "info",
			Verbose:  false,
		},
	}
}

// GetDatabasePath returns the full path to the database file
func (c *Config) GetDatabasePath() string {
	return filepath.Join(c.Database.Dir, c.Database.Filename)
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() error {
	// Database configuration
	if dir := os.Getenv("VK_DB_DIR"); dir != "" {
		c.Database.Dir = dir
	}
	if filename := os.Getenv("VK_DB_FILENAME"); filename != "" {
		c.Database.Filename = filename
	}
	if timeout := os.Getenv("VK_DB_QUERY_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Database.QueryTimeout = d
		}
	}
	if timeout := os.Getenv("VK_DB_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Database.WriteTimeout = d
		}
	}

	// Gateway configuration
	if baseURL := os.Getenv("VK_GATEWAY_BASE_URL"); baseURL != "" {
		c.Gateway.BaseURL = baseURL
	}
	if token := os.Getenv("VK_GATEWAY_TOKEN"); token != "" {
		c.Gateway.Token = token
	}
	if id := os.Getenv("VK_GATEWAY_TASKS_CHANNEL_ID"); id != "" {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			c.Gateway.TasksChannelID = n
		}
	}
	if id := os.Getenv("VK_GATEWAY_ARCHIVE_CHANNEL_ID"); id != "" {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			c.Gateway.ArchiveChannelID = n
		}
	}
	if timeout := os.Getenv("VK_GATEWAY_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Gateway.RequestTimeout = d
		}
	}

	// Presentation configuration
	if limit := os.Getenv("VK_PRESENTATION_HISTORY_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			c.Presentation.ReconcileHistoryLimit = n
		}
	}

	// Tasks configuration
	if limit := os.Getenv("VK_TASKS_UPDATE_RETRY_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			c.Tasks.UpdateRetryLimit = n
		}
	}

	// Wiki configuration
	if baseURL := os.Getenv("VK_WIKI_BASE_URL"); baseURL != "" {
		c.Wiki.BaseURL = baseURL
	}
	if timeout := os.Getenv("VK_WIKI_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Wiki.RequestTimeout = d
		}
	}

	// Server configuration
	if addr := os.Getenv("VK_SERVER_LISTEN_ADDR"); addr != "" {
		c.Server.ListenAddr = addr
	}
	if timeout := os.Getenv("VK_SERVER_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Server.RequestTimeout = d
		}
	}

	// Application configuration
	if level := os.Getenv("VK_LOG_LEVEL"); level != "" {
		c.Application.LogLevel = level
	}
	if verbose := os.Getenv("VK_VERBOSE"); verbose != "" {
		if b, err := strconv.ParseBool(verbose); err == nil {
			c.Application.Verbose = b
		}
	}

	return nil
}

// Validate validates the configuration and returns any errors
func (c *Config) Validate() error {
	if c.Database.Dir == "" {
		return &ConfigError{Field: "database.dir", Message: "database directory cannot be empty"}
	}
	if c.Database.Filename == "" {
		return &ConfigError{Field: "database.filename", Message: "database filename cannot be empty"}
	}
	if c.Database.QueryTimeout <= 0 {
		return &ConfigError{Field: "database.query_timeout", Message: "query timeout must be positive"}
	}
	if c.Database.WriteTimeout <= 0 {
		return &ConfigError{Field: "database.write_timeout", Message: "write timeout must be positive"}
	}
	if c.Gateway.RequestTimeout <= 0 {
		return &ConfigError{Field: "gateway.request_timeout", Message: "request timeout must be positive"}
	}
	if c.Presentation.ReconcileHistoryLimit <= 0 {
		return &ConfigError{Field: "presentation.reconcile_history_limit", Message: "history limit must be positive"}
	}
	if c.Tasks.UpdateRetryLimit <= 0 {
		return &ConfigError{Field: "tasks.update_retry_limit", Message: "retry limit must be positive"}
	}
	if c.Wiki.BaseURL == "" {
		return &ConfigError{Field: "wiki.base_url", Message: "wiki base URL cannot be empty"}
	}
	if c.Server.ListenAddr == "" {
		return &ConfigError{Field: "server.listen_addr", Message: "listen address cannot be empty"}
	}
	if c.Server.RequestTimeout <= 0 {
		return &ConfigError{Field: "server.request_timeout", Message: "request timeout must be positive"}
	}
	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
