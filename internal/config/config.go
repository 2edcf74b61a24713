package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileEnvVar names the environment variable pointing at an optional TOML
// config file. Values from the file are overridden by the environment.
const FileEnvVar = "EVENTSVC_CONFIG"

// Secret backends accepted by SECRET_BACKEND.
const (
	SecretBackendAWS = "aws"
	SecretBackendEnv = "env"
)

type Config struct {
	Environment string `toml:"environment"` // CONFIG_ENV (default "development")
	LogLevel    string `toml:"log_level"`   // LOG_LEVEL (default "INFO")
	LogFormat   string `toml:"log_format"`  // LOG_FORMAT ("json" or "console"; default depends on TTY)
	Version     string `toml:"version"`     // APP_VERSION (default "1.0.0")
	Port        string `toml:"port"`        // PORT (default "8080")
	GRPCAddr    string `toml:"grpc_addr"`   // GRPC_ADDR (optional, empty = no gRPC health listener)

	// Secrets
	DBSecretName   string `toml:"db_secret_name"`  // DB_SECRET_NAME (empty = persistence disabled)
	SecretBackend  string `toml:"secret_backend"`  // SECRET_BACKEND ("aws" or "env"; default "aws")
	SecretRegion   string `toml:"secret_region"`   // SECRET_REGION (default "us-east-1")
	SecretEndpoint string `toml:"secret_endpoint"` // SECRET_ENDPOINT (custom endpoint, e.g. LocalStack)
	Project        string `toml:"project"`         // GOOGLE_CLOUD_PROJECT (prefixes secret ids)

	// Broker
	PubSubTopic    string        `toml:"pubsub_topic"` // PUBSUB_TOPIC (empty = publishing disabled)
	NATSURL        string        `toml:"nats_url"`     // NATS_URL (empty = no-op publisher)
	NATSStream     string        `toml:"nats_stream"`  // NATS_STREAM (optional, stream ensured at startup)
	PublishTimeout time.Duration `toml:"-"`            // PUBLISH_TIMEOUT (default 10s)

	// Log sink
	LogstashHost   string        `toml:"logstash_host"` // LOGSTASH_HOST (empty = forwarding disabled)
	LogSinkTimeout time.Duration `toml:"-"`             // LOG_SINK_TIMEOUT (default 5s)

	// Duration strings as read from the TOML file.
	PublishTimeoutStr string `toml:"publish_timeout"`
	LogSinkTimeoutStr string `toml:"log_sink_timeout"`
}

// Load reads configuration from the TOML file named by EVENTSVC_CONFIG (if
// any) and then from the environment.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(FileEnvVar))
}

// LoadFile is Load with an explicit config file path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		if _, err := toml.DecodeFile(path, c); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	c.Environment = envOr("CONFIG_ENV", c.Environment, "development")
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel, "INFO")
	c.LogFormat = envOr("LOG_FORMAT", c.LogFormat, "")
	c.Version = envOr("APP_VERSION", c.Version, "1.0.0")
	c.Port = envOr("PORT", c.Port, "8080")
	c.GRPCAddr = envOr("GRPC_ADDR", c.GRPCAddr, "")
	c.DBSecretName = envOr("DB_SECRET_NAME", c.DBSecretName, "")
	c.SecretBackend = envOr("SECRET_BACKEND", c.SecretBackend, SecretBackendAWS)
	c.SecretRegion = envOr("SECRET_REGION", c.SecretRegion, "us-east-1")
	c.SecretEndpoint = envOr("SECRET_ENDPOINT", c.SecretEndpoint, "")
	c.Project = envOr("GOOGLE_CLOUD_PROJECT", c.Project, "")
	c.PubSubTopic = envOr("PUBSUB_TOPIC", c.PubSubTopic, "")
	c.NATSURL = envOr("NATS_URL", c.NATSURL, "")
	c.NATSStream = envOr("NATS_STREAM", c.NATSStream, "")
	c.LogstashHost = envOr("LOGSTASH_HOST", c.LogstashHost, "")

	switch c.SecretBackend {
	case SecretBackendAWS, SecretBackendEnv:
	default:
		return nil, fmt.Errorf("SECRET_BACKEND: unknown backend %q (must be aws or env)", c.SecretBackend)
	}

	var err error
	if c.PublishTimeout, err = parseDuration("PUBLISH_TIMEOUT", c.PublishTimeoutStr, "10s"); err != nil {
		return nil, err
	}
	if c.LogSinkTimeout, err = parseDuration("LOG_SINK_TIMEOUT", c.LogSinkTimeoutStr, "5s"); err != nil {
		return nil, err
	}

	return c, nil
}

// HTTPAddr is the listen address derived from Port.
func (c *Config) HTTPAddr() string {
	return ":" + c.Port
}

func parseDuration(key, fileValue, fallback string) (time.Duration, error) {
	s := envOr(key, fileValue, fallback)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, s)
	}
	return d, nil
}

// envOr returns the environment value for key, else the file value, else fallback.
func envOr(key, fileValue, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if fileValue != "" {
		return fileValue
	}
	return fallback
}
