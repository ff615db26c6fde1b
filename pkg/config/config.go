package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ImageStorageFilesystem = "filesystem"
	ImageStorageS3         = "s3"
)

// New loads an optional .env file and reads the configuration from the environment. All missing
// or malformed variables are reported at once.
func New() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	sessionSecret, err := requireEnv("SESSION_SECRET")
	collect(err)
	if err == nil && len(sessionSecret) < 32 {
		collect(errors.New("SESSION_SECRET must be at least 32 bytes"))
	}
	sessionMaxAge, err := optionalEnvAsInt("SESSION_MAX_AGE", 7*24*60*60)
	collect(err)
	sessionSecure, err := optionalEnvAsBool("SESSION_SECURE", false)
	collect(err)

	postgresql := readPostgresql(collect)

	maxUploadSize, err := optionalEnvAsInt("MAX_UPLOAD_SIZE", 10<<20)
	collect(err)
	imageStorage := optionalEnv("IMAGE_STORAGE", ImageStorageFilesystem)
	bucket := optionalEnv("S3_BUCKET", "")
	switch imageStorage {
	case ImageStorageFilesystem:
	case ImageStorageS3:
		if bucket == "" {
			collect(errors.New("S3_BUCKET is required when IMAGE_STORAGE is s3"))
		}
	default:
		collect(fmt.Errorf("IMAGE_STORAGE must be %q or %q, got %q", ImageStorageFilesystem, ImageStorageS3, imageStorage))
	}

	logLevel, err := parseLogLevel(optionalEnv("LOG_LEVEL", "info"))
	collect(err)
	logPretty, err := optionalEnvAsBool("LOG_PRETTY", false)
	collect(err)
	logSQL, err := optionalEnvAsBool("LOG_SQL", false)
	collect(err)

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	return Config{
		Environment: optionalEnv("ENVIRONMENT", "development"),
		HTTPAddr:    optionalEnv("HTTP_ADDR", ":8080"),
		BaseURL:     strings.TrimSuffix(optionalEnv("BASE_URL", ""), "/"),
		Session: Session{
			Secret: []byte(sessionSecret),
			Name:   optionalEnv("SESSION_NAME", "evently_session"),
			MaxAge: sessionMaxAge,
			Secure: sessionSecure,
		},
		Postgresql: postgresql,
		Images: Images{
			Storage:       imageStorage,
			UploadDir:     optionalEnv("UPLOAD_DIR", "static/uploads"),
			MaxUploadSize: int64(maxUploadSize),
			S3Bucket:      bucket,
			S3Endpoint:    optionalEnv("S3_ENDPOINT", ""),
		},
		CORSAllowedOrigins: splitList(optionalEnv("CORS_ALLOWED_ORIGINS", "*")),
		JaegerEndpoint:     optionalEnv("JAEGER_ENDPOINT", ""),
		Logging: Logging{
			Level:  logLevel,
			Pretty: logPretty,
			SQL:    logSQL,
		},
		ShutdownTimeout: 10 * time.Second,
	}, nil
}

// NewPostgresql loads an optional .env file and reads only the database configuration.
func NewPostgresql() (Postgresql, error) {
	if err := loadDotEnv(); err != nil {
		return Postgresql{}, err
	}

	var errs []error
	postgresql := readPostgresql(func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	})
	if len(errs) > 0 {
		return Postgresql{}, errors.Join(errs...)
	}
	return postgresql, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %v", err)
	}
	return nil
}

func readPostgresql(collect func(error)) Postgresql {
	host, err := requireEnv("DATABASE_HOST")
	collect(err)
	port, err := requireEnvAsInt("DATABASE_PORT")
	collect(err)
	username, err := requireEnv("DATABASE_USERNAME")
	collect(err)
	password, err := requireEnv("DATABASE_PASSWORD")
	collect(err)
	name, err := requireEnv("DATABASE_NAME")
	collect(err)

	return Postgresql{
		Host:         host,
		Port:         port,
		Username:     username,
		Password:     password,
		DatabaseName: name,
	}
}

type Config struct {
	Environment        string
	HTTPAddr           string
	BaseURL            string
	Session            Session
	Postgresql         Postgresql
	Images             Images
	CORSAllowedOrigins []string
	JaegerEndpoint     string
	Logging            Logging
	ShutdownTimeout    time.Duration
}

type Session struct {
	Secret []byte
	Name   string
	MaxAge int
	Secure bool
}

type Postgresql struct {
	Host         string
	Port         int
	Username     string
	Password     string
	DatabaseName string
}

// DSN returns the connection string in key/value form as understood by pgx.
func (p Postgresql) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable", p.Host, p.Username, p.Password, p.DatabaseName, p.Port)
}

// URL returns the connection string in URL form as understood by golang-migrate.
func (p Postgresql) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", p.Username, p.Password, p.Host, p.Port, p.DatabaseName)
}

type Images struct {
	Storage       string
	UploadDir     string
	MaxUploadSize int64
	S3Bucket      string
	S3Endpoint    string
}

type Logging struct {
	Level  slog.Level
	Pretty bool
	SQL    bool
}

func requireEnv(key string) (string, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return "", fmt.Errorf("required environment variable %q not set", key)
	}
	return value, nil
}

func requireEnvAsInt(key string) (int, error) {
	valueStr, err := requireEnv(key)
	if err != nil {
		return 0, err
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("failed to parse environment variable %q as int: %v", key, err)
	}
	return value, nil
}

func optionalEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func optionalEnvAsInt(key string, fallback int) (int, error) {
	valueStr := optionalEnv(key, "")
	if valueStr == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("failed to parse environment variable %q as int: %v", key, err)
	}
	return value, nil
}

func optionalEnvAsBool(key string, fallback bool) (bool, error) {
	valueStr := optionalEnv(key, "")
	if valueStr == "" {
		return fallback, nil
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("failed to parse environment variable %q as bool: %v", key, err)
	}
	return value, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("failed to parse LOG_LEVEL: %v", err)
	}
	return level, nil
}

func splitList(s string) []string {
	var values []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
