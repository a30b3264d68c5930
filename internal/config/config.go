// Package config loads the logitrack server configuration.
// Resolution order: built-in defaults, then the YAML file, then environment
// variables (optionally loaded from a .env file).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the logitrack configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Notify    NotifyConfig    `yaml:"notify"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Mail      MailConfig      `yaml:"mail"`
	Push      PushConfig      `yaml:"push"`
}

type ServerConfig struct {
	ListenAddress  string   `yaml:"listenAddress" env:"LOGITRACK_LISTEN_ADDRESS"`
	AllowedOrigins []string `yaml:"allowedOrigins" env:"LOGITRACK_ALLOWED_ORIGINS" envSeparator:","`
	Debug          bool     `yaml:"debug" env:"LOGITRACK_DEBUG"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"LOGITRACK_DB_PATH"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret" env:"LOGITRACK_JWT_SECRET"`
	Issuer    string `yaml:"issuer" env:"LOGITRACK_JWT_ISSUER"`
}

type LoggingConfig struct {
	Level       string `yaml:"level" env:"LOGITRACK_LOG_LEVEL"`
	Development bool   `yaml:"development" env:"LOGITRACK_LOG_DEVELOPMENT"`
}

type WebSocketConfig struct {
	PingInterval time.Duration `yaml:"pingInterval" env:"LOGITRACK_WS_PING_INTERVAL"`
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"LOGITRACK_WS_WRITE_TIMEOUT"`
	SendBuffer   int           `yaml:"sendBuffer" env:"LOGITRACK_WS_SEND_BUFFER"`
}

// NotifyConfig bounds how long a single post-commit notification may take.
type NotifyConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"LOGITRACK_NOTIFY_TIMEOUT"`
}

type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled" env:"LOGITRACK_KAFKA_ENABLED"`
	Brokers      []string      `yaml:"brokers" env:"LOGITRACK_KAFKA_BROKERS" envSeparator:","`
	Topic        string        `yaml:"topic" env:"LOGITRACK_KAFKA_TOPIC"`
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"LOGITRACK_KAFKA_WRITE_TIMEOUT"`
}

type MailConfig struct {
	Enabled            bool   `yaml:"enabled" env:"LOGITRACK_MAIL_ENABLED"`
	Host               string `yaml:"host" env:"LOGITRACK_MAIL_HOST"`
	Port               int    `yaml:"port" env:"LOGITRACK_MAIL_PORT"`
	User               string `yaml:"user" env:"LOGITRACK_MAIL_USER"`
	Password           string `yaml:"password" env:"LOGITRACK_MAIL_PASSWORD"`
	SenderAddress      string `yaml:"senderAddress" env:"LOGITRACK_MAIL_SENDER_ADDRESS"`
	SenderName         string `yaml:"senderName" env:"LOGITRACK_MAIL_SENDER_NAME"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify" env:"LOGITRACK_MAIL_INSECURE_SKIP_VERIFY"`
}

type PushConfig struct {
	Enabled         bool   `yaml:"enabled" env:"LOGITRACK_PUSH_ENABLED"`
	CredentialsFile string `yaml:"credentialsFile" env:"LOGITRACK_PUSH_CREDENTIALS_FILE"`
	ProjectID       string `yaml:"projectID" env:"LOGITRACK_PUSH_PROJECT_ID"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	dbPath := "logitrack.db"
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".logitrack", "logitrack.db")
	}

	return &Config{
		Server: ServerConfig{
			ListenAddress:  ":8080",
			AllowedOrigins: []string{"http://localhost:3001"},
		},
		Database: DatabaseConfig{Path: dbPath},
		Auth:     AuthConfig{Issuer: "logitrack"},
		Logging:  LoggingConfig{Level: "info"},
		WebSocket: WebSocketConfig{
			PingInterval: 30 * time.Second,
			WriteTimeout: 10 * time.Second,
			SendBuffer:   64,
		},
		Notify: NotifyConfig{Timeout: 15 * time.Second},
		Kafka: KafkaConfig{
			Topic:        "logitrack.escalations",
			WriteTimeout: 10 * time.Second,
		},
		Mail: MailConfig{
			Port:          587,
			SenderAddress: "noreply@logitrack.local",
			SenderName:    "Logitrack",
		},
	}
}

// LoadConfig reads the YAML file at path (if non-empty and present) on top of
// the defaults, then applies environment overrides. A .env file in the working
// directory is loaded first when it exists.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Missing file is fine; defaults and env still apply
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig writes cfg as YAML to path, creating parent directories.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks the settings that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}
	if c.Mail.Enabled && c.Mail.Host == "" {
		return fmt.Errorf("mail.host is required when mail is enabled")
	}
	if c.Push.Enabled && c.Push.CredentialsFile == "" {
		return fmt.Errorf("push.credentialsFile is required when push is enabled")
	}
	return nil
}

// DefaultConfigPath returns ~/.logitrack/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".logitrack", "config.yaml"), nil
}
