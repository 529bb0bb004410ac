package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server        ServerConfig
	Log           LogConfig
	Auth          AuthConfig
	Postgres      PostgresConfig
	Mongo         MongoConfig
	Media         MediaConfig
	Cache         CacheConfig
	Kafka         KafkaConfig
	Elasticsearch ElasticsearchConfig
	SeedFile      string
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type LogConfig struct {
	Mode string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type PostgresConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	TimeZone string
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		p.Host, p.User, p.Password, p.Name, p.Port, p.TimeZone)
}

type MongoConfig struct {
	URI      string
	Database string
}

type MediaConfig struct {
	Backend       string // gridfs | minio
	MaxUploadMB   int
	MinioEndpoint string
	MinioAccess   string
	MinioSecret   string
	MinioBucket   string
	MinioUseSSL   bool
}

type CacheConfig struct {
	URL string
	TTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// Load reads .env (if present) and builds the configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        envStr("PORT", "8080"),
			CORSOrigins: envList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		},
		Log: LogConfig{
			Mode: envStr("LOG_MODE", "dev"),
		},
		Auth: AuthConfig{
			JWTSecret: envStr("JWT_SECRET", ""),
			TokenTTL:  time.Duration(envInt("JWT_TTL_HOURS", 24)) * time.Hour,
		},
		Postgres: PostgresConfig{
			Host:     envStr("DB_HOST", "localhost"),
			User:     envStr("DB_USER", "postgres"),
			Password: envStr("DB_PASSWORD", "postgres"),
			Name:     envStr("DB_NAME", "aula"),
			Port:     envStr("DB_PORT", "5432"),
			TimeZone: envStr("DB_TIMEZONE", "UTC"),
		},
		Mongo: MongoConfig{
			URI:      envStr("MONGO_URI", "mongodb://localhost:27017"),
			Database: envStr("MONGO_DB_NAME", "aula"),
		},
		Media: MediaConfig{
			Backend:       strings.ToLower(envStr("MEDIA_BACKEND", "gridfs")),
			MaxUploadMB:   envInt("MEDIA_MAX_UPLOAD_MB", 500),
			MinioEndpoint: envStr("MINIO_ENDPOINT", "localhost:9000"),
			MinioAccess:   envStr("MINIO_ACCESS_KEY", ""),
			MinioSecret:   envStr("MINIO_SECRET_KEY", ""),
			MinioBucket:   envStr("MINIO_BUCKET", "aula-media"),
			MinioUseSSL:   envBool("MINIO_USE_SSL", false),
		},
		Cache: CacheConfig{
			URL: envStr("REDIS_URL", ""),
			TTL: time.Duration(envInt("COURSE_CACHE_TTL_SECONDS", 300)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: envList("KAFKA_BROKERS", nil),
			Topic:   envStr("KAFKA_TOPIC", "aula.events"),
		},
		Elasticsearch: ElasticsearchConfig{
			Addresses: envList("ELASTICSEARCH_ADDRESSES", nil),
			Username:  envStr("ELASTICSEARCH_USERNAME", ""),
			Password:  envStr("ELASTICSEARCH_PASSWORD", ""),
			Index:     envStr("ELASTICSEARCH_INDEX", "courses"),
		},
		SeedFile: envStr("SEED_FILE", ""),
	}

	if cfg.Auth.JWTSecret == "" && !cfg.IsProduction() {
		cfg.Auth.JWTSecret = "default-secret-key-change-in-production"
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	m := strings.ToLower(c.Log.Mode)
	return m == "prod" || m == "production"
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Media.Backend != "gridfs" && c.Media.Backend != "minio" {
		return fmt.Errorf("MEDIA_BACKEND must be 'gridfs' or 'minio', got %q", c.Media.Backend)
	}
	if c.Media.Backend == "minio" && (c.Media.MinioAccess == "" || c.Media.MinioSecret == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for the minio backend")
	}
	if c.Media.MaxUploadMB <= 0 {
		return fmt.Errorf("MEDIA_MAX_UPLOAD_MB must be positive")
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
