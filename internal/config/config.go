package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Section storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Mongo    MongoConfig
	Storage  StorageConfig
	JWT      JWTConfig
	S3       S3Config
	Log      LogConfig
	CORS     CORSConfig
	Email    EmailConfig
	Notify   NotifyConfig
	Fanout   FanoutConfig
	Frontend FrontendConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Environment     string        `mapstructure:"environment"`
	// PublicBaseURL is the externally reachable API base handed to clients.
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// IsDevelopment reports whether the server runs in development mode.
func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development"
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpen         int           `mapstructure:"max_open"`
	MaxIdle         int           `mapstructure:"max_idle"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// MongoConfig holds MongoDB settings for the document section store.
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
}

// StorageConfig selects the section store backend.
type StorageConfig struct {
	SectionsDriver string `mapstructure:"sections_driver"`
}

// JWTConfig holds bearer token settings. Tokens are issued by the identity
// service; this backend only verifies them.
type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	AccessTokenExpiry time.Duration `mapstructure:"access_expiry"`
	Issuer            string        `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// Enabled reports whether an object store is configured.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// NotifyConfig holds notification dispatcher settings.
type NotifyConfig struct {
	Workers     int           `mapstructure:"workers"`
	QueueSize   int           `mapstructure:"queue_size"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// FanoutConfig bounds the concurrency of per-section reads and bulk item writes.
type FanoutConfig struct {
	ReadConcurrency  int `mapstructure:"read_concurrency"`
	WriteConcurrency int `mapstructure:"write_concurrency"`
}

// FrontendConfig holds settings of the web client.
type FrontendConfig struct {
	URL string `mapstructure:"url"`
}

// Load reads configuration from environment variables with the TAXDESK_ prefix.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("TAXDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "20s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.public_base_url", "http://localhost:8080/api/v1")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "taxdesk")
	v.SetDefault("db.password", "taxdesk_secret")
	v.SetDefault("db.name", "taxdesk_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)
	v.SetDefault("db.conn_max_lifetime", "30m")

	// Mongo defaults
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "taxdesk")
	v.SetDefault("mongo.connect_timeout", "10s")
	v.SetDefault("mongo.max_pool_size", 50)

	v.SetDefault("storage.sections_driver", DriverPostgres)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "15m")
	v.SetDefault("jwt.issuer", "taxdesk")

	// S3 defaults
	v.SetDefault("s3.region", "ap-south-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 900)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173,http://127.0.0.1:5173")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "ap-south-1")
	v.SetDefault("email.from_address", "noreply@taxdesk.pk")
	v.SetDefault("email.from_name", "TaxDesk")

	// Notification defaults
	v.SetDefault("notify.workers", 2)
	v.SetDefault("notify.queue_size", 256)
	v.SetDefault("notify.send_timeout", "30s")

	v.SetDefault("fanout.read_concurrency", 8)
	v.SetDefault("fanout.write_concurrency", 4)

	v.SetDefault("frontend.url", "http://localhost:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":              "TAXDESK_SERVER_PORT",
		"server.read_timeout":      "TAXDESK_SERVER_READ_TIMEOUT",
		"server.write_timeout":     "TAXDESK_SERVER_WRITE_TIMEOUT",
		"server.shutdown_timeout":  "TAXDESK_SERVER_SHUTDOWN_TIMEOUT",
		"server.environment":       "TAXDESK_SERVER_ENVIRONMENT",
		"server.public_base_url":   "TAXDESK_SERVER_PUBLIC_BASE_URL",
		"db.host":                  "TAXDESK_DB_HOST",
		"db.port":                  "TAXDESK_DB_PORT",
		"db.user":                  "TAXDESK_DB_USER",
		"db.password":              "TAXDESK_DB_PASSWORD",
		"db.name":                  "TAXDESK_DB_NAME",
		"db.sslmode":               "TAXDESK_DB_SSLMODE",
		"db.max_open":              "TAXDESK_DB_MAX_OPEN",
		"db.max_idle":              "TAXDESK_DB_MAX_IDLE",
		"db.conn_max_lifetime":     "TAXDESK_DB_CONN_MAX_LIFETIME",
		"mongo.uri":                "TAXDESK_MONGO_URI",
		"mongo.database":           "TAXDESK_MONGO_DATABASE",
		"mongo.connect_timeout":    "TAXDESK_MONGO_CONNECT_TIMEOUT",
		"mongo.max_pool_size":      "TAXDESK_MONGO_MAX_POOL_SIZE",
		"storage.sections_driver":  "TAXDESK_STORAGE_SECTIONS_DRIVER",
		"jwt.secret":               "TAXDESK_JWT_SECRET",
		"jwt.access_expiry":        "TAXDESK_JWT_ACCESS_EXPIRY",
		"jwt.issuer":               "TAXDESK_JWT_ISSUER",
		"s3.region":                "TAXDESK_S3_REGION",
		"s3.bucket":                "TAXDESK_S3_BUCKET",
		"s3.endpoint":              "TAXDESK_S3_ENDPOINT",
		"s3.access_key":            "TAXDESK_S3_ACCESS_KEY",
		"s3.secret_key":            "TAXDESK_S3_SECRET_KEY",
		"s3.presign_expiry":        "TAXDESK_S3_PRESIGN_EXPIRY",
		"log.level":                "TAXDESK_LOG_LEVEL",
		"log.format":               "TAXDESK_LOG_FORMAT",
		"cors.allowed_origins":     "TAXDESK_CORS_ALLOWED_ORIGINS",
		"email.provider":           "TAXDESK_EMAIL_PROVIDER",
		"email.region":             "TAXDESK_EMAIL_REGION",
		"email.from_address":       "TAXDESK_EMAIL_FROM_ADDRESS",
		"email.from_name":          "TAXDESK_EMAIL_FROM_NAME",
		"notify.workers":           "TAXDESK_NOTIFY_WORKERS",
		"notify.queue_size":        "TAXDESK_NOTIFY_QUEUE_SIZE",
		"notify.send_timeout":      "TAXDESK_NOTIFY_SEND_TIMEOUT",
		"fanout.read_concurrency":  "TAXDESK_FANOUT_READ_CONCURRENCY",
		"fanout.write_concurrency": "TAXDESK_FANOUT_WRITE_CONCURRENCY",
		"frontend.url":             "TAXDESK_FRONTEND_URL",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if TAXDESK_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("TAXDESK_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Environment:     v.GetString("server.environment"),
		PublicBaseURL:   strings.TrimRight(v.GetString("server.public_base_url"), "/"),
	}
	cfg.DB = DBConfig{
		Host:            v.GetString("db.host"),
		Port:            v.GetInt("db.port"),
		User:            v.GetString("db.user"),
		Password:        v.GetString("db.password"),
		Name:            v.GetString("db.name"),
		SSLMode:         v.GetString("db.sslmode"),
		MaxOpen:         v.GetInt("db.max_open"),
		MaxIdle:         v.GetInt("db.max_idle"),
		ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
	}
	cfg.Mongo = MongoConfig{
		URI:            v.GetString("mongo.uri"),
		Database:       v.GetString("mongo.database"),
		ConnectTimeout: v.GetDuration("mongo.connect_timeout"),
		MaxPoolSize:    v.GetUint64("mongo.max_pool_size"),
	}
	cfg.Storage = StorageConfig{
		SectionsDriver: strings.ToLower(strings.TrimSpace(v.GetString("storage.sections_driver"))),
	}
	cfg.JWT = JWTConfig{
		Secret:            v.GetString("jwt.secret"),
		AccessTokenExpiry: v.GetDuration("jwt.access_expiry"),
		Issuer:            v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
	}
	cfg.Notify = NotifyConfig{
		Workers:     v.GetInt("notify.workers"),
		QueueSize:   v.GetInt("notify.queue_size"),
		SendTimeout: v.GetDuration("notify.send_timeout"),
	}
	cfg.Fanout = FanoutConfig{
		ReadConcurrency:  v.GetInt("fanout.read_concurrency"),
		WriteConcurrency: v.GetInt("fanout.write_concurrency"),
	}
	cfg.Frontend = FrontendConfig{
		URL: strings.TrimRight(v.GetString("frontend.url"), "/"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.SectionsDriver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("config: unknown storage.sections_driver %q", c.Storage.SectionsDriver)
	}
	if c.Fanout.ReadConcurrency < 1 || c.Fanout.WriteConcurrency < 1 {
		return fmt.Errorf("config: fanout concurrency must be at least 1")
	}
	if c.Notify.Workers < 1 {
		return fmt.Errorf("config: notify.workers must be at least 1")
	}
	if !c.Server.IsDevelopment() && c.JWT.Secret == "change-me-in-production" {
		return fmt.Errorf("config: jwt.secret must be set outside development")
	}
	return nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
