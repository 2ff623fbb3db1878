package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"medleave/internal/domain/attachment"
	"medleave/internal/domain/evidence"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix        = "MEDLEAVE"
	defaultJWTSecret = "change-me-jwt-secret"
)

type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	DatabaseURL       string        `envconfig:"DATABASE_URL" default:"file:medleave.db?_pragma=busy_timeout(5000)"`
	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"change-me-jwt-secret"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	FolioMaxAttempts int `envconfig:"FOLIO_MAX_ATTEMPTS" default:"3"`

	EvidenceBackend   string `envconfig:"EVIDENCE_BACKEND" default:"disk"`
	EvidenceDir       string `envconfig:"EVIDENCE_DIR" default:"./data/evidence"`
	StagingDir        string `envconfig:"STAGING_DIR"`
	S3Bucket          string `envconfig:"S3_BUCKET"`
	S3Prefix          string `envconfig:"S3_PREFIX" default:"evidence"`
	S3Region          string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint        string `envconfig:"S3_ENDPOINT"`
	S3UseSSL          bool   `envconfig:"S3_USE_SSL" default:"true"`
	S3AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	MaxUploadBytes    int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// Load reads an optional .env file, then MEDLEAVE_* variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.EvidenceBackend = strings.ToLower(strings.TrimSpace(cfg.EvidenceBackend))

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return errors.New("MEDLEAVE_DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return errors.New("MEDLEAVE_JWT_TTL must be > 0")
	}
	if cfg.FolioMaxAttempts < 1 || cfg.FolioMaxAttempts > 10 {
		return errors.New("MEDLEAVE_FOLIO_MAX_ATTEMPTS must be between 1 and 10")
	}
	if cfg.MaxUploadBytes <= 0 || cfg.MaxUploadBytes > attachment.MaxSizeBytes {
		return fmt.Errorf("MEDLEAVE_MAX_UPLOAD_BYTES must be between 1 and %d", attachment.MaxSizeBytes)
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return errors.New("MEDLEAVE_LOG_FORMAT must be one of: json, console")
	}
	switch cfg.EvidenceBackend {
	case "disk":
		if strings.TrimSpace(cfg.EvidenceDir) == "" {
			return errors.New("MEDLEAVE_EVIDENCE_DIR must be set for the disk backend")
		}
	case "s3":
		if err := cfg.S3().Validate(); err != nil {
			return err
		}
	default:
		return errors.New("MEDLEAVE_EVIDENCE_BACKEND must be one of: disk, s3")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return errors.New("in prod/release MEDLEAVE_JWT_SECRET must be set and not default")
		}
		if len(cfg.JWTSecret) < 32 {
			return errors.New("in prod/release MEDLEAVE_JWT_SECRET must be at least 32 bytes")
		}
	}
	return nil
}

// S3 returns the evidence store settings for the s3 backend.
func (c *Config) S3() evidence.S3Config {
	return evidence.S3Config{
		Endpoint:        c.S3Endpoint,
		Bucket:          c.S3Bucket,
		Prefix:          c.S3Prefix,
		Region:          c.S3Region,
		AccessKeyID:     c.S3AccessKeyID,
		SecretAccessKey: c.S3SecretAccessKey,
		UseSSL:          c.S3UseSSL,
	}
}

func (c *Config) ProdLike() bool {
	return isProdLike(c.AppEnv)
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
