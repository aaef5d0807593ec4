package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Fal       FalConfig
	Storage   StorageConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	LogLevel    string
	BodyLimitMB int
}

// FalConfig is handed to the provider client and generation service at
// construction; nothing reads the credential from the environment later.
type FalConfig struct {
	Key          string
	QueueURL     string
	RestURL      string
	Model        string
	PollInterval time.Duration
	Timeout      time.Duration // zero waits for the provider indefinitely
}

// IsConfigured returns true if a credential is present
func (c FalConfig) IsConfigured() bool {
	return c.Key != ""
}

// Storage drivers
const (
	StorageDriverFal = "fal"
	StorageDriverS3  = "s3"
)

type StorageConfig struct {
	Driver string
	S3     S3Config
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
	Prefix          string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	GeneratePerHour int
}

func Load() (*Config, error) {
	// .env is optional; real env vars win over it
	_ = godotenv.Load()

	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("FAL_KEY")
	readSecret("REDIS_PASSWORD")
	readSecret("S3_ACCESS_KEY_ID")
	readSecret("S3_SECRET_ACCESS_KEY")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables
	v.AutomaticEnv()

	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.body_limit_mb", "BODY_LIMIT_MB")
	_ = v.BindEnv("fal.key", "FAL_KEY")
	_ = v.BindEnv("fal.queue_url", "FAL_QUEUE_URL")
	_ = v.BindEnv("fal.rest_url", "FAL_REST_URL")
	_ = v.BindEnv("fal.model", "FAL_MODEL")
	_ = v.BindEnv("fal.poll_interval_ms", "FAL_POLL_INTERVAL_MS")
	_ = v.BindEnv("fal.timeout", "FAL_TIMEOUT")
	_ = v.BindEnv("storage.driver", "STORAGE_DRIVER")
	_ = v.BindEnv("storage.s3.bucket", "S3_BUCKET")
	_ = v.BindEnv("storage.s3.region", "S3_REGION")
	_ = v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	_ = v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	_ = v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	_ = v.BindEnv("storage.s3.public_url", "S3_PUBLIC_URL")
	_ = v.BindEnv("storage.s3.prefix", "S3_PREFIX")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("ratelimit.generate_per_hour", "RATELIMIT_GENERATE_PER_HOUR")

	// Defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.body_limit_mb", 12)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("ratelimit.generate_per_hour", 20)

	// Fal defaults
	v.SetDefault("fal.queue_url", "https://queue.fal.run")
	v.SetDefault("fal.rest_url", "https://rest.alpha.fal.ai")
	v.SetDefault("fal.model", "fal-ai/wan/v2.2-a14b/image-to-video/turbo")
	v.SetDefault("fal.poll_interval_ms", 500)
	v.SetDefault("fal.timeout", 0)

	// Storage defaults
	v.SetDefault("storage.driver", StorageDriverFal)
	v.SetDefault("storage.s3.region", "auto")
	v.SetDefault("storage.s3.prefix", "uploads")

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("server.port"),
			Env:         v.GetString("server.env"),
			LogLevel:    v.GetString("server.log_level"),
			BodyLimitMB: v.GetInt("server.body_limit_mb"),
		},
		Fal: FalConfig{
			Key:          strings.TrimSpace(v.GetString("fal.key")),
			QueueURL:     strings.TrimRight(v.GetString("fal.queue_url"), "/"),
			RestURL:      strings.TrimRight(v.GetString("fal.rest_url"), "/"),
			Model:        strings.Trim(v.GetString("fal.model"), "/"),
			PollInterval: time.Duration(v.GetInt("fal.poll_interval_ms")) * time.Millisecond,
			Timeout:      time.Duration(v.GetInt("fal.timeout")) * time.Second,
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(v.GetString("storage.driver")),
			S3: S3Config{
				Bucket:          v.GetString("storage.s3.bucket"),
				Region:          v.GetString("storage.s3.region"),
				Endpoint:        v.GetString("storage.s3.endpoint"),
				AccessKeyID:     v.GetString("storage.s3.access_key_id"),
				SecretAccessKey: v.GetString("storage.s3.secret_access_key"),
				PublicURL:       strings.TrimRight(v.GetString("storage.s3.public_url"), "/"),
				Prefix:          strings.Trim(v.GetString("storage.s3.prefix"), "/"),
			},
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			GeneratePerHour: v.GetInt("ratelimit.generate_per_hour"),
		},
	}

	return cfg, nil
}
