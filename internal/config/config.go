package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StorageProviderMinio = "minio"
	StorageProviderS3    = "s3"

	EventsSourceNATS = "nats"
	EventsSourceSQS  = "sqs"
)

type Config struct {
	Env      Env
	Server   ServerConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Minio    MinioConfig
	S3       S3Config
	Redis    RedisConfig
	NATS     NATSConfig
	SQS      SQSConfig
	Events   EventsConfig
	Upload   UploadConfig
	Database DatabaseConfig
}

type Env struct {
	Env string `envconfig:"ENV" default:"DEV"`
}

type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"localhost"`
	Port string `envconfig:"SERVER_PORT" default:"8080"`
}

type AuthConfig struct {
	JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
	Issuer    string `envconfig:"AUTH_JWT_ISSUER"`
}

type StorageConfig struct {
	Provider string `envconfig:"STORAGE_PROVIDER" default:"minio"`
}

type MinioConfig struct {
	Endpoint                   string        `envconfig:"MINIO_ENDPOINT"`
	BucketName                 string        `envconfig:"MINIO_BUCKET_NAME"`
	AccessKey                  string        `envconfig:"MINIO_ACCESS_KEY"`
	SecretKey                  string        `envconfig:"MINIO_SECRET_KEY"`
	SimplePresignedDuration    time.Duration `envconfig:"MINIO_SIMPLE_PRESIGNED_DURATION" default:"15m"`
	MultiPartPresignedDuration time.Duration `envconfig:"MINIO_MULTIPART_PRESIGNED_DURATION" default:"15m"`
	UseSSL                     bool          `envconfig:"MINIO_USE_SSL" default:"false"`
}

type S3Config struct {
	Region            string        `envconfig:"S3_REGION" default:"us-east-1"`
	BucketName        string        `envconfig:"S3_BUCKET_NAME"`
	Endpoint          string        `envconfig:"S3_ENDPOINT"`
	UsePathStyle      bool          `envconfig:"S3_USE_PATH_STYLE" default:"false"`
	PresignedDuration time.Duration `envconfig:"S3_PRESIGNED_DURATION" default:"15m"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	// KeyPrefix namespaces every key written by the service
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"fileflow"`
}

type NATSConfig struct {
	URL          string `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	StreamName   string `envconfig:"NATS_STREAM_NAME" default:"MINIO_EVENTS"`
	ConsumerName string `envconfig:"NATS_CONSUMER_NAME" default:"fileflow-completion"`
	Subject      string `envconfig:"NATS_SUBJECT" default:"minio.events"`
	// EventsSubjectPrefix is the subject prefix of published upload events
	EventsSubjectPrefix string `envconfig:"NATS_EVENTS_SUBJECT_PREFIX" default:"fileflow"`
}

type SQSConfig struct {
	Region            string        `envconfig:"SQS_REGION" default:"us-east-1"`
	QueueURL          string        `envconfig:"SQS_QUEUE_URL"`
	Endpoint          string        `envconfig:"SQS_ENDPOINT"`
	WaitTime          time.Duration `envconfig:"SQS_WAIT_TIME" default:"20s"`
	VisibilityTimeout time.Duration `envconfig:"SQS_VISIBILITY_TIMEOUT" default:"30s"`
	MaxMessages       int32         `envconfig:"SQS_MAX_MESSAGES" default:"10"`
}

type EventsConfig struct {
	Source  string `envconfig:"EVENTS_SOURCE" default:"nats"`
	Workers int    `envconfig:"EVENTS_WORKERS" default:"8"`
}

type UploadConfig struct {
	MultipartThreshold         int64         `envconfig:"UPLOAD_MULTIPART_THRESHOLD" default:"104857600"` // 100MB
	MaxFileSize                int64         `envconfig:"UPLOAD_MAX_FILE_SIZE" default:"104857600000"`    // 10000 parts of 10MB
	SessionTTL                 time.Duration `envconfig:"UPLOAD_SESSION_TTL" default:"15m"`
	SweepEvery                 time.Duration `envconfig:"UPLOAD_SWEEP_EVERY" default:"5m"`
	SweepBatchSize             int           `envconfig:"UPLOAD_SWEEP_BATCH_SIZE" default:"100"`
	MaxActiveSessionsPerTenant int64         `envconfig:"UPLOAD_MAX_ACTIVE_SESSIONS_PER_TENANT" default:"10"`
	ProgressTTL                time.Duration `envconfig:"UPLOAD_PROGRESS_TTL" default:"24h"`
}

type DatabaseConfig struct {
	Host           string        `envconfig:"DB_HOST" required:"true"`
	Port           int           `envconfig:"DB_PORT" default:"5432"`
	User           string        `envconfig:"DB_USER" required:"true"`
	Password       string        `envconfig:"DB_PASSWORD" required:"true"`
	Name           string        `envconfig:"DB_NAME" required:"true"`
	SSLMode        string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenCons    int           `envconfig:"DB_MAX_OPEN_CONS" default:"25"`
	MaxIdleCons    int           `envconfig:"DB_MAX_IDLE_CONS" default:"5"`
	ConMaxLifeTime time.Duration `envconfig:"DB_CONMAX_LIFE_TIME" default:"5m"`
	MigrationsPath string        `envconfig:"DB_MIGRATIONS_PATH" default:"db/migrations"`
	AutoMigrate    bool          `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// DSN returns the lib/pq connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the cross field constraints envconfig cannot express
func (c *Config) Validate() error {
	switch c.Storage.Provider {
	case StorageProviderMinio:
		if c.Minio.Endpoint == "" || c.Minio.BucketName == "" || c.Minio.AccessKey == "" || c.Minio.SecretKey == "" {
			return fmt.Errorf("minio storage requires MINIO_ENDPOINT, MINIO_BUCKET_NAME, MINIO_ACCESS_KEY and MINIO_SECRET_KEY")
		}
	case StorageProviderS3:
		if c.S3.BucketName == "" {
			return fmt.Errorf("s3 storage requires S3_BUCKET_NAME")
		}
	default:
		return fmt.Errorf("unknown STORAGE_PROVIDER %q", c.Storage.Provider)
	}

	switch c.Events.Source {
	case EventsSourceNATS:
	case EventsSourceSQS:
		if c.SQS.QueueURL == "" {
			return fmt.Errorf("sqs events require SQS_QUEUE_URL")
		}
	default:
		return fmt.Errorf("unknown EVENTS_SOURCE %q", c.Events.Source)
	}

	if c.Events.Workers < 1 {
		return fmt.Errorf("EVENTS_WORKERS must be positive")
	}
	if c.Upload.MultipartThreshold < 5*1024*1024 {
		return fmt.Errorf("UPLOAD_MULTIPART_THRESHOLD must be at least 5MB")
	}
	if c.Upload.MaxFileSize < c.Upload.MultipartThreshold {
		return fmt.Errorf("UPLOAD_MAX_FILE_SIZE must not be below UPLOAD_MULTIPART_THRESHOLD")
	}
	if c.Upload.SessionTTL <= 0 || c.Upload.SessionTTL > c.UploadURLDuration() {
		return fmt.Errorf("UPLOAD_SESSION_TTL must be positive and not outlive the upload url (%s)", c.UploadURLDuration())
	}
	return nil
}

// UploadURLDuration is the lifetime of the url handed out with a single upload session
func (c *Config) UploadURLDuration() time.Duration {
	if c.Storage.Provider == StorageProviderS3 {
		return c.S3.PresignedDuration
	}
	return c.Minio.SimplePresignedDuration
}
