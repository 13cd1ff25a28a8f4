// Package config holds the application configuration. Values come from
// defaults, an optional grinkit.yaml and GRINKIT_* environment variables,
// in increasing precedence.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" json:"logger" yaml:"logger"`
	Storage StorageConfig `mapstructure:"storage" json:"storage" yaml:"storage"`
	DuckDB  DuckDBConfig  `mapstructure:"duckdb" json:"duckdb" yaml:"duckdb"`
	Neo4j   Neo4jConfig   `mapstructure:"neo4j" json:"neo4j" yaml:"neo4j"`
	Etcd    EtcdConfig    `mapstructure:"etcd" json:"etcd" yaml:"etcd"`
	MCP     MCPConfig     `mapstructure:"mcp" json:"mcp" yaml:"mcp"`
}

// ColorConfig picks the console color of each log level.
type ColorConfig struct {
	Debug string `mapstructure:"debug" json:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" json:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" json:"warn" yaml:"warn"`
	Error string `mapstructure:"error" json:"error" yaml:"error"`
}

// LoggerConfig configures the global zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" json:"level" yaml:"level"`
	Format      string      `mapstructure:"format" json:"format" yaml:"format"` // console or json
	AddSource   bool        `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" json:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int         `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" json:"max_age" yaml:"max_age"` // days
	Compress    bool        `mapstructure:"compress" json:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" json:"colors" yaml:"colors"`
}

// StorageConfig selects the engine and its argument vector.
type StorageConfig struct {
	Driver      string   `mapstructure:"driver" json:"driver" yaml:"driver"`                // Registered engine name (default: "memory")
	Args        []string `mapstructure:"args" json:"args" yaml:"args"`                      // Engine arguments
	Partitioned bool     `mapstructure:"partitioned" json:"partitioned" yaml:"partitioned"` // Open through the partitioned entry point
	Partition   uint32   `mapstructure:"partition" json:"partition" yaml:"partition"`       // Local partition to navigate when partitioned
}

// DuckDBConfig tunes the relational engine.
type DuckDBConfig struct {
	Threads       int           `mapstructure:"threads" json:"threads" yaml:"threads"`                         // Worker threads (default: 4)
	MemoryLimitGB int           `mapstructure:"memory_limit_gb" json:"memory_limit_gb" yaml:"memory_limit_gb"` // Memory cap in GB (default: 2)
	Timeout       time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`                         // Per-call timeout (default: 10s)
}

// Neo4jConfig holds the graph database connection.
type Neo4jConfig struct {
	URI      string        `mapstructure:"uri" json:"uri" yaml:"uri"`
	Username string        `mapstructure:"username" json:"username" yaml:"username"`
	Password string        `mapstructure:"password" json:"-" yaml:"password"`
	Database string        `mapstructure:"database" json:"database" yaml:"database"`
	Timeout  time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"` // Per-call timeout (default: 10s)
}

// EtcdConfig holds the metadata store used by partitioned graphs.
type EtcdConfig struct {
	Endpoints    []string      `mapstructure:"endpoints" json:"endpoints" yaml:"endpoints"`
	Prefix       string        `mapstructure:"prefix" json:"prefix" yaml:"prefix"`                      // Key prefix (default: "gart_meta_")
	DialTimeout  time.Duration `mapstructure:"dial_timeout" json:"dial_timeout" yaml:"dial_timeout"`    // (default: 5s)
	PollInterval time.Duration `mapstructure:"poll_interval" json:"poll_interval" yaml:"poll_interval"` // Epoch watcher period (default: 10s)
}

// MCPConfig names the MCP server.
type MCPConfig struct {
	Name    string `mapstructure:"name" json:"name" yaml:"name"`
	Version string `mapstructure:"version" json:"version" yaml:"version"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "grinkit",
			MaxSize:     100,
			MaxBackups:  3,
			MaxAge:      28,
			Colors: ColorConfig{
				Debug: "cyan",
				Info:  "green",
				Warn:  "yellow",
				Error: "red",
			},
		},
		Storage: StorageConfig{
			Driver: "memory",
		},
		DuckDB: DuckDBConfig{
			Threads:       4,
			MemoryLimitGB: 2,
			Timeout:       10 * time.Second,
		},
		Neo4j: Neo4jConfig{
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
			Timeout:  10 * time.Second,
		},
		Etcd: EtcdConfig{
			Endpoints:    []string{"127.0.0.1:2379"},
			Prefix:       "gart_meta_",
			DialTimeout:  5 * time.Second,
			PollInterval: 10 * time.Second,
		},
		MCP: MCPConfig{
			Name:    "grinkit",
			Version: "0.1.0",
		},
	}
}

// WithDriver returns a copy of the config using driver and args.
func (c Config) WithDriver(driver string, args ...string) Config {
	c.Storage.Driver = driver
	c.Storage.Args = append([]string(nil), args...)
	return c
}

// WithPartition returns a copy of the config navigating partition p of a
// partitioned graph.
func (c Config) WithPartition(p uint32) Config {
	c.Storage.Partitioned = true
	c.Storage.Partition = p
	return c
}

// WithLogLevel returns a copy of the config with a different log level.
func (c Config) WithLogLevel(level string) Config {
	c.Logger.Level = level
	return c
}

// Validate checks if the configuration is valid and returns an error if not.
func (c Config) Validate() error {
	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error", "dpanic", "panic", "fatal":
	default:
		return &ConfigError{Field: "logger.level", Message: "must be one of debug, info, warn, error"}
	}
	if c.Logger.Format != "console" && c.Logger.Format != "json" {
		return &ConfigError{Field: "logger.format", Message: "must be console or json"}
	}
	if c.Storage.Driver == "" {
		return &ConfigError{Field: "storage.driver", Message: "must not be empty"}
	}
	if c.DuckDB.Threads <= 0 {
		return &ConfigError{Field: "duckdb.threads", Message: "must be positive"}
	}
	if c.DuckDB.Timeout <= 0 {
		return &ConfigError{Field: "duckdb.timeout", Message: "must be positive"}
	}
	if c.Neo4j.Timeout <= 0 {
		return &ConfigError{Field: "neo4j.timeout", Message: "must be positive"}
	}
	if len(c.Etcd.Endpoints) == 0 {
		return &ConfigError{Field: "etcd.endpoints", Message: "must not be empty"}
	}
	if c.Etcd.DialTimeout <= 0 {
		return &ConfigError{Field: "etcd.dial_timeout", Message: "must be positive"}
	}
	if c.Etcd.PollInterval <= 0 {
		return &ConfigError{Field: "etcd.poll_interval", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + " " + e.Message
}

// SetDefaults registers every default with v so that env-only keys are
// seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.format", d.Logger.Format)
	v.SetDefault("logger.add_source", d.Logger.AddSource)
	v.SetDefault("logger.service_name", d.Logger.ServiceName)
	v.SetDefault("logger.log_file", d.Logger.LogFile)
	v.SetDefault("logger.max_size", d.Logger.MaxSize)
	v.SetDefault("logger.max_backups", d.Logger.MaxBackups)
	v.SetDefault("logger.max_age", d.Logger.MaxAge)
	v.SetDefault("logger.compress", d.Logger.Compress)
	v.SetDefault("logger.colors.debug", d.Logger.Colors.Debug)
	v.SetDefault("logger.colors.info", d.Logger.Colors.Info)
	v.SetDefault("logger.colors.warn", d.Logger.Colors.Warn)
	v.SetDefault("logger.colors.error", d.Logger.Colors.Error)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.args", d.Storage.Args)
	v.SetDefault("storage.partitioned", d.Storage.Partitioned)
	v.SetDefault("storage.partition", d.Storage.Partition)

	v.SetDefault("duckdb.threads", d.DuckDB.Threads)
	v.SetDefault("duckdb.memory_limit_gb", d.DuckDB.MemoryLimitGB)
	v.SetDefault("duckdb.timeout", d.DuckDB.Timeout)

	v.SetDefault("neo4j.uri", d.Neo4j.URI)
	v.SetDefault("neo4j.username", d.Neo4j.Username)
	v.SetDefault("neo4j.password", d.Neo4j.Password)
	v.SetDefault("neo4j.database", d.Neo4j.Database)
	v.SetDefault("neo4j.timeout", d.Neo4j.Timeout)

	v.SetDefault("etcd.endpoints", d.Etcd.Endpoints)
	v.SetDefault("etcd.prefix", d.Etcd.Prefix)
	v.SetDefault("etcd.dial_timeout", d.Etcd.DialTimeout)
	v.SetDefault("etcd.poll_interval", d.Etcd.PollInterval)

	v.SetDefault("mcp.name", d.MCP.Name)
	v.SetDefault("mcp.version", d.MCP.Version)
}

// Load reads configuration into a Config. An empty path searches for
// grinkit.yaml in the working directory; a missing file is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("grinkit")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("GRINKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return Config{}, err
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}
