package pkg

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// Config holds the relay settings, read from RELAY_* environment variables.
type Config struct {
	ListenAddr      string        `envconfig:"LISTEN_ADDR" default:":5005"`
	MetricsAddr     string        `envconfig:"METRICS_ADDR" default:":9090"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"text"`
	SendBuffer      int           `envconfig:"SEND_BUFFER" default:"256"`
	MaxMessageSize  int64         `envconfig:"MAX_MESSAGE_SIZE" default:"104857600"`
	WriteWait       time.Duration `envconfig:"WRITE_WAIT" default:"10s"`
	PongWait        time.Duration `envconfig:"PONG_WAIT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`

	// ExposeRooms serves the room snapshot on the metrics listener.
	ExposeRooms bool `envconfig:"EXPOSE_ROOMS" default:"false"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("relay", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SendBuffer < 1 {
		return fmt.Errorf("send buffer must be positive, got %d", c.SendBuffer)
	}

	if c.MaxMessageSize < 1 {
		return fmt.Errorf("max message size must be positive, got %d",
			c.MaxMessageSize)
	}

	if c.WriteWait <= 0 {
		return fmt.Errorf("write wait must be positive, got %s", c.WriteWait)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s",
			c.ShutdownTimeout)
	}

	if c.PongWait < 0 {
		return fmt.Errorf("pong wait must not be negative, got %s", c.PongWait)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	return nil
}

// PingPeriod is how often the writer pings a peer. Zero disables keepalive.
func (c *Config) PingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}

// ConfigureLogging applies the level and formatter to the standard logrus
// logger.
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
