package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_ADDR" env-default:":8080"`
}

// Backend locates the catalog and order services.
type Backend struct {
	BaseURL        string        `yaml:"BACKEND_URL" env:"BACKEND_URL" env-default:"http://localhost:8000"`
	RequestTimeout time.Duration `yaml:"REQUEST_TIMEOUT" env:"BACKEND_REQUEST_TIMEOUT" env-default:"10s"`
	SeedDisabled   bool          `yaml:"SEED_DISABLED" env:"SEED_DISABLED" env-default:"false"`
	SeedTimeout    time.Duration `yaml:"SEED_TIMEOUT" env:"SEED_TIMEOUT" env-default:"10s"`
}

// Submission.TransportRetries > 0 opts into retrying unreachable-service
// failures only. Rejections are never retried.
type Submission struct {
	TransportRetries uint64        `yaml:"TRANSPORT_RETRIES" env:"SUBMIT_TRANSPORT_RETRIES" env-default:"0"`
	InitialBackoff   time.Duration `yaml:"INITIAL_BACKOFF" env:"SUBMIT_INITIAL_BACKOFF" env-default:"500ms"`
}

type Session struct {
	IdleTTL       time.Duration `yaml:"SESSION_IDLE_TTL" env:"SESSION_IDLE_TTL" env-default:"30m"`
	SweepInterval time.Duration `yaml:"SESSION_SWEEP_INTERVAL" env:"SESSION_SWEEP_INTERVAL" env-default:"1m"`
	MaxSessions   int           `yaml:"SESSION_MAX" env:"SESSION_MAX" env-default:"10000"`
}

type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER"`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" env:"CACHE_ENABLED" env-default:"false"`
	DefaultTTL time.Duration `yaml:"default_ttl" env:"CACHE_DEFAULT_TTL" env-default:"5m"`
}

type OtelConfig struct {
	ServiceName      string  `yaml:"SERVICE_NAME" env:"OTEL_SERVICE_NAME" env-default:"dine-in-preorder"`
	ExporterEndpoint string  `yaml:"EXPORTER_ENDPOINT" env:"OTEL_EXPORTER_ENDPOINT"`
	SamplerRatio     float64 `yaml:"SAMPLER_RATIO" env:"OTEL_SAMPLER_RATIO" env-default:"1.0"`
}

// RateConfig bounds order attempts per session in a sliding window. It needs
// redis and stays off when redis is unreachable.
type RateConfig struct {
	Enabled     bool          `yaml:"ENABLED" env:"ORDER_RATE_LIMIT_ENABLED" env-default:"false"`
	MaxAttempts int64         `yaml:"MAX_ATTEMPTS" env:"MAX_ATTEMPTS" env-default:"5"`
	WindowSize  time.Duration `yaml:"WINDOW_SIZE" env:"WINDOW_SIZE" env-default:"1m"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"ALLOWED_ORIGINS" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:5173,http://localhost:3000"`
}

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	Backend      Backend      `yaml:"backend"`
	Submission   Submission   `yaml:"submission"`
	Session      Session      `yaml:"session"`
	RedisConnect RedisConnect `yaml:"redis"`
	Cache        CacheConfig  `yaml:"cache"`
	RateConfig   RateConfig   `yaml:"rateConfig"`
	Otel         OtelConfig   `yaml:"otel"`
	CORS         CORS         `yaml:"cors"`
}

func MustLoad() *Config {

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {

		flags := flag.String("config", "", "gets the config flag value")

		flag.Parse()

		configPath = *flags

	}

	// no file: environment and defaults only
	if configPath == "" {
		var cfg Config
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("can not read config from environment: %s", err.Error())
		}

		return &cfg
	}

	cfg, err := LoadConfigFromPath(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg
}

// LoadConfigFromPath reads the YAML file at path, then applies environment overrides.
func LoadConfigFromPath(configPath string) (*Config, error) {

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("can not read config file: %w", err)
	}

	return &cfg, nil
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s", r.Username, r.Password, r.Host, r.Port)
}

func (r *RedisConnect) Addr() string {
	return r.Host + ":" + r.Port
}
