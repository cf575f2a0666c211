package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/garyjia/approval-console/internal/domain/entity"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Console    ConsoleConfig    `mapstructure:"console"`
	Attachment AttachmentConfig `mapstructure:"attachment"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// UpstreamConfig points at the approval REST API
type UpstreamConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	SchemaKey string        `mapstructure:"schema_key"`
}

// ConsoleConfig holds the session defaults of the console
type ConsoleConfig struct {
	UserID      int64  `mapstructure:"user_id"`
	Username    string `mapstructure:"username"`
	DisplayName string `mapstructure:"display_name"`
	Role        string `mapstructure:"role"`
	PageSize    int    `mapstructure:"page_size"`
	FeedSize    int    `mapstructure:"feed_size"`
	Timezone    string `mapstructure:"timezone"`
}

// AttachmentConfig bounds the image upload list
type AttachmentConfig struct {
	MaxSize  int64 `mapstructure:"max_size"`
	MaxCount int   `mapstructure:"max_count"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from the YAML file at configPath, then applies
// environment variables. Existing envFiles are loaded into the environment
// first; variables already set win. An empty configPath uses defaults and
// the environment only.
func Load(configPath string, envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Upstream defaults
	v.SetDefault("upstream.base_url", "http://localhost:3000/api")
	v.SetDefault("upstream.timeout", 10*time.Second)
	v.SetDefault("upstream.schema_key", entity.SchemaBasicApproval)

	// Console defaults
	v.SetDefault("console.user_id", 1)
	v.SetDefault("console.username", "applicant")
	v.SetDefault("console.display_name", "申请人")
	v.SetDefault("console.role", string(entity.RoleApplicant))
	v.SetDefault("console.page_size", 10)
	v.SetDefault("console.feed_size", 50)
	v.SetDefault("console.timezone", "Asia/Shanghai")

	// Attachment defaults
	v.SetDefault("attachment.max_size", 10*1024*1024)
	v.SetDefault("attachment.max_count", 3)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars maps CONSOLE_<SECTION>_<KEY> onto every key, plus a few
// deployment-facing names
func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix("CONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("upstream.base_url", "CONSOLE_UPSTREAM_BASE_URL", "APPROVAL_API_BASE_URL")
	_ = v.BindEnv("server.port", "CONSOLE_SERVER_PORT", "PORT")
	_ = v.BindEnv("logger.level", "CONSOLE_LOGGER_LEVEL", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.base_url must be an absolute URL: %q", c.Upstream.BaseURL)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if c.Upstream.SchemaKey == "" {
		return fmt.Errorf("upstream.schema_key is required")
	}

	if _, ok := entity.ParseUserRole(c.Console.Role); !ok {
		return fmt.Errorf("console.role must be APPLICANT or APPROVER: %q", c.Console.Role)
	}
	if _, err := time.LoadLocation(c.Console.Timezone); err != nil {
		return fmt.Errorf("console.timezone: %w", err)
	}

	if c.Attachment.MaxSize <= 0 {
		return fmt.Errorf("attachment.max_size must be positive")
	}
	if c.Attachment.MaxCount <= 0 {
		return fmt.Errorf("attachment.max_count must be positive")
	}

	return nil
}

// Location returns the console time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Console.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// User returns the console user the session starts with
func (c *Config) User() entity.User {
	role, _ := entity.ParseUserRole(c.Console.Role)
	return entity.User{
		ID:          c.Console.UserID,
		Username:    c.Console.Username,
		DisplayName: c.Console.DisplayName,
		Role:        role,
	}
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
