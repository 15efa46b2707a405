package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPPort string `envconfig:"APP_PORT" default:"8080"`
	LogFile  string `envconfig:"LOG_FILE" default:"converter.log"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Rates    RatesConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Fallback FallbackConfig
	Monitor  MonitorConfig
	DB       DBConfig
}

type RatesConfig struct {
	PrimaryURL        string        `envconfig:"PRIMARY_RATES_URL" default:"https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1"`
	BackupURL         string        `envconfig:"BACKUP_RATES_URL" default:"https://open.er-api.com/v6"`
	ProviderTimeout   time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"8s"`
	DefaultBase       string        `envconfig:"DEFAULT_BASE" default:"USD"`
	DefaultTargets    []string      `envconfig:"DEFAULT_TARGETS" default:"RUB,AMD"`
	IncludeUnresolved bool          `envconfig:"INCLUDE_UNRESOLVED" default:"false"`
}

type CacheConfig struct {
	Backend string        `envconfig:"CACHE_BACKEND" default:"memory"`
	TTL     time.Duration `envconfig:"RATES_CACHE_TTL" default:"30m"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Prefix   string `envconfig:"REDIS_PREFIX" default:"fx:"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"fx-rates"`
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Workers int      `envconfig:"KAFKA_WORKERS" default:"2"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"fx-rates-monitor"`
}

type MonitorConfig struct {
	LogFile    string `envconfig:"MONITOR_LOG_FILE" default:"monitor.log"`
	AlertAfter int    `envconfig:"MONITOR_ALERT_AFTER" default:"3"`
}

type FallbackConfig struct {
	DBEnabled bool `envconfig:"FALLBACK_DB_ENABLED" default:"false"`
}

type DBConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"     default:"localhost"`
	Port     string `envconfig:"POSTGRES_PORT"     default:"5432"`
	User     string `envconfig:"POSTGRES_USER"     default:"postgres"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	DBName   string `envconfig:"POSTGRES_DB"       default:"realty"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE"  default:"disable"`
}

func NewConfig() (*Config, error) {
	envFile := "config.env"

	if err := godotenv.Load(envFile); err != nil {
		log.Printf("warning: не удалось загрузить файл %s, используются только системные переменные окружения: %v", envFile, err)
	}

	return Load()
}

// Load reads the configuration from the process environment only.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации: %w", err)
	}

	if cfg.Cache.TTL <= 0 {
		return nil, fmt.Errorf("RATES_CACHE_TTL must be positive, got %s", cfg.Cache.TTL)
	}
	if cfg.Cache.Backend != "memory" && cfg.Cache.Backend != "redis" {
		return nil, fmt.Errorf("unknown CACHE_BACKEND %q", cfg.Cache.Backend)
	}
	if cfg.Monitor.AlertAfter < 1 {
		return nil, fmt.Errorf("MONITOR_ALERT_AFTER must be at least 1, got %d", cfg.Monitor.AlertAfter)
	}

	return &cfg, nil
}

func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func (d *DBConfig) MigrationURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}
