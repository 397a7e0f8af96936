package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bibbank/creditrisk/internal/domain/valueobject"
	pkgkafka "github.com/bibbank/creditrisk/pkg/kafka"
	pkgpostgres "github.com/bibbank/creditrisk/pkg/postgres"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// Pool returns the shared connection pool configuration.
func (d DatabaseConfig) Pool() pkgpostgres.Config {
	return pkgpostgres.Config{
		Host:     d.Host,
		Port:     d.Port,
		User:     d.User,
		Password: d.Password,
		Database: d.Name,
		SSLMode:  d.SSLMode,
		MaxConns: d.MaxConns,
	}
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	EventTopic    string
	UploadTopic   string
	ConsumerGroup string
	TLS           bool
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
}

// Client returns the shared Kafka client configuration.
func (k KafkaConfig) Client() pkgkafka.Config {
	return pkgkafka.Config{
		Brokers:       k.Brokers,
		ConsumerGroup: k.ConsumerGroup,
		TLS:           k.TLS,
		SASLMechanism: k.SASLMechanism,
		SASLUsername:  k.SASLUsername,
		SASLPassword:  k.SASLPassword,
		SASLEnabled:   k.SASLMechanism != "",
	}
}

type StoreConfig struct {
	Driver     string
	SQLitePath string
}

type RiskConfig struct {
	ManifestPath  string
	LowThreshold  float64
	HighThreshold float64
}

type BatchConfig struct {
	Workers        int
	MaxUploadBytes int64
}

type AuthConfig struct {
	Issuer           string
	JWTPublicKey     string
	JWTPublicKeyFile string
	JWTSecret        string
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// Enabled reports whether both halves of the key pair are configured.
func (t TLSConfig) Enabled() bool { return t.CertFile != "" && t.KeyFile != "" }

type TelemetryConfig struct {
	OTLPEndpoint string
	Insecure     bool
	SampleRatio  float64
	LogLevel     string
	LogFormat    string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type Config struct {
	ServiceName     string
	GRPCPort        int
	HTTPPort        int
	GRPCReflection  bool
	ShutdownTimeout time.Duration
	DB              DatabaseConfig
	Kafka           KafkaConfig
	Store           StoreConfig
	Risk            RiskConfig
	Batch           BatchConfig
	Auth            AuthConfig
	TLS             TLSConfig
	Telemetry       TelemetryConfig
	RateLimit       RateLimitConfig
}

// Validate panics on settings the service cannot start with.
func (c Config) Validate() {
	if c.Store.Driver != StoreDriverPostgres && c.Store.Driver != StoreDriverSQLite {
		panic(fmt.Sprintf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverSQLite, c.Store.Driver))
	}
	if c.Store.Driver == StoreDriverPostgres && c.DB.Password == "" {
		panic("DB_PASSWORD environment variable is required")
	}
	if c.Risk.ManifestPath == "" {
		panic("MODEL_MANIFEST environment variable is required")
	}
	if _, err := valueobject.NewRiskThresholds(c.Risk.LowThreshold, c.Risk.HighThreshold); err != nil {
		panic(fmt.Sprintf("RISK_BAND_LOW/RISK_BAND_HIGH: %v", err))
	}
	if c.Batch.Workers < 1 {
		panic("BATCH_WORKERS must be at least 1")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		panic("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
}

// Thresholds returns the configured risk band thresholds, falling back to
// the canonical pair when they are invalid.
func (c Config) Thresholds() valueobject.RiskThresholds {
	t, err := valueobject.NewRiskThresholds(c.Risk.LowThreshold, c.Risk.HighThreshold)
	if err != nil {
		return valueobject.CanonicalRiskThresholds
	}
	return t
}

func Load() Config {
	return Config{
		ServiceName:     getEnv("SERVICE_NAME", "creditrisk"),
		GRPCPort:        getEnvInt("GRPC_PORT", 9090),
		HTTPPort:        getEnvInt("HTTP_PORT", 8080),
		GRPCReflection:  getEnvBool("GRPC_REFLECTION", false),
		ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 15)) * time.Second,
		DB: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "creditrisk"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "creditrisk"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
		},
		Kafka: KafkaConfig{
			Enabled:       getEnvBool("KAFKA_ENABLED", true),
			Brokers:       pkgkafka.ParseBrokers(getEnv("KAFKA_BROKERS", "localhost:9092")),
			EventTopic:    getEnv("KAFKA_EVENT_TOPIC", "creditrisk.events"),
			UploadTopic:   getEnv("KAFKA_UPLOAD_TOPIC", "creditrisk.upload.requested"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "creditrisk-ingest"),
			TLS:           getEnvBool("KAFKA_TLS", false),
			SASLMechanism: getEnv("KAFKA_SASL_MECHANISM", ""),
			SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
			SQLitePath: getEnv("SQLITE_PATH", "creditrisk.db"),
		},
		Risk: RiskConfig{
			ManifestPath:  getEnv("MODEL_MANIFEST", "configs/model.yaml"),
			LowThreshold:  getEnvFloat("RISK_BAND_LOW", valueobject.CanonicalRiskThresholds.Low()),
			HighThreshold: getEnvFloat("RISK_BAND_HIGH", valueobject.CanonicalRiskThresholds.High()),
		},
		Batch: BatchConfig{
			Workers:        getEnvInt("BATCH_WORKERS", 8),
			MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 32)) << 20,
		},
		Auth: AuthConfig{
			Issuer:           getEnv("JWT_ISSUER", "bib-identity"),
			JWTPublicKey:     getEnv("JWT_PUBLIC_KEY", ""),
			JWTPublicKeyFile: getEnv("JWT_PUBLIC_KEY_FILE", ""),
			JWTSecret:        getEnv("JWT_SECRET", ""),
		},
		TLS: TLSConfig{
			CertFile: getEnv("TLS_CERT_FILE", ""),
			KeyFile:  getEnv("TLS_KEY_FILE", ""),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:     getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			SampleRatio:  getEnvFloat("OTEL_TRACES_SAMPLE_RATIO", 1),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			LogFormat:    getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvFloat("RATE_LIMIT_RPS", 50),
			Burst: getEnvInt("RATE_LIMIT_BURST", 100),
		},
	}
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
