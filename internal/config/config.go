// Package config loads the service configuration from the environment.
// Subsystems with empty bindings (Redis, MinIO, RabbitMQ, Postgres,
// notification channels) are treated as disabled rather than fatal, so
// a bare instance still serves what it can.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server   ServerConfig
	Reviews  ReviewsConfig
	Upload   UploadConfig
	Notify   NotifyConfig
	CORS     CORSConfig
	Redis    RedisConfig
	MinIO    MinIOConfig
	RabbitMQ RabbitMQConfig
	Database DatabaseConfig
	Sweep    SweepConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
}

type ReviewsConfig struct {
	GoogleAPIKey  string        `envconfig:"GOOGLE_API_KEY"`
	PlaceID       string        `envconfig:"PLACE_ID"`
	CacheTTL      time.Duration `envconfig:"REVIEWS_CACHE_TTL" default:"12h"`
	MicroCacheTTL time.Duration `envconfig:"REVIEWS_MICRO_CACHE_TTL" default:"5m"`
	MockFile      string        `envconfig:"REVIEWS_MOCK_FILE"`
}

type UploadConfig struct {
	MaxMB         int64         `envconfig:"UPLOAD_MAX_MB" default:"300"`
	AllowedTypes  []string      `envconfig:"UPLOAD_ALLOWED_TYPES"`
	WebhookURL    string        `envconfig:"UPLOAD_WEBHOOK_URL"`
	SignedLinkTTL time.Duration `envconfig:"UPLOAD_NOTIFY_LINK_TTL" default:"24h"`
}

func (c UploadConfig) MaxBytes() int64 {
	return c.MaxMB << 20
}

type NotifyConfig struct {
	SendGridAPIKey string `envconfig:"SENDGRID_API_KEY"`
	To             string `envconfig:"UPLOAD_NOTIFY_TO"`
	From           string `envconfig:"UPLOAD_NOTIFY_FROM"`
	FromName       string `envconfig:"UPLOAD_NOTIFY_FROM_NAME"`
	Subject        string `envconfig:"UPLOAD_NOTIFY_SUBJECT"`
	QueueEnabled   bool   `envconfig:"NOTIFY_QUEUE_ENABLED" default:"false"`
}

type CORSConfig struct {
	// AllowedOrigins extends the built-in origin list. A "*" entry
	// allows every origin.
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS"`
}

type RedisConfig struct {
	// Addr empty disables the shared edge cache tier.
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type MinIOConfig struct {
	// Endpoint or Bucket empty disables the upload pipeline.
	Endpoint string `envconfig:"MINIO_ENDPOINT"`
	// PublicEndpoint, when set, is used for presigned URLs handed to
	// browsers while Endpoint stays on the private network.
	PublicEndpoint string `envconfig:"MINIO_PUBLIC_ENDPOINT"`
	AccessKey      string `envconfig:"MINIO_ACCESS_KEY"`
	SecretKey      string `envconfig:"MINIO_SECRET_KEY"`
	Bucket         string `envconfig:"MINIO_BUCKET"`
	UseSSL         bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

type RabbitMQConfig struct {
	Host     string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port     int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	User     string `envconfig:"RABBITMQ_USER" default:"guest"`
	Password string `envconfig:"RABBITMQ_PASSWORD" default:"guest"`
	VHost    string `envconfig:"RABBITMQ_VHOST" default:"/"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

type DatabaseConfig struct {
	// DSN empty disables the submission ledger.
	DSN string `envconfig:"POSTGRES_DSN"`
}

type SweepConfig struct {
	// Schedule is a cron expression for the orphan sweep. Empty
	// disables the sweep.
	Schedule string `envconfig:"SWEEP_SCHEDULE" default:"0 * * * *"`
	// Grace is how old a sidecar-less video object must be before the
	// sweep deletes it, keeping in-flight uploads safe.
	Grace time.Duration `envconfig:"SWEEP_GRACE" default:"24h"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
