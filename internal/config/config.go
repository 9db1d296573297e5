package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Server   ServerConfig   `yaml:"server"`
	Content  ContentConfig  `yaml:"content"`
	Comments CommentsConfig `yaml:"comments"`
	LogLevel string         `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type RabbitMQConfig struct {
	// URL empty disables the invalidation publisher entirely.
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type ContentConfig struct {
	// Dir is the root of the episode content tree.
	Dir string `yaml:"dir"`
	// Cache keeps the parsed index (and rendered bodies) for the life of
	// the process. Disable during iterative writing so every request
	// re-scans the directory.
	Cache bool `yaml:"cache"`
	// ReindexInterval rebuilds a cached index periodically. Zero disables
	// the background loop.
	ReindexInterval time.Duration `yaml:"reindex_interval"`
}

type CommentsConfig struct {
	// RateLimitWindow allows at most one comment per identity per episode
	// within the trailing window. Zero disables the limit.
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`
	MinLength       int           `yaml:"min_length"`
	MaxLength       int           `yaml:"max_length"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "techblog"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "invalidations"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "page_invalidations"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Content.Dir == "" {
		c.Content.Dir = "content/episodes"
	}
	if c.Comments.MinLength == 0 {
		c.Comments.MinLength = 3
	}
	if c.Comments.MaxLength == 0 {
		c.Comments.MaxLength = 2000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
