package config

import (
	"os"
	"strconv"
	"time"

	"stagepass/internal/cache"
	"stagepass/internal/database"
	"stagepass/internal/external"
	"stagepass/internal/messaging"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string

	// External login page the storefront redirects unauthenticated buyers to
	LoginURL string

	// Pending admin orders older than this are failed and restocked
	PendingOrderTimeout time.Duration

	Database      database.Config
	NATS          messaging.Config
	Valkey        cache.Config
	Elasticsearch ElasticsearchConfig
	ImageStore    external.ImageStoreConfig
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8081"),
		GinMode:   getEnv("GIN_MODE", "debug"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		LoginURL:            getEnv("LOGIN_URL", "/auth/login"),
		PendingOrderTimeout: time.Duration(getEnvInt("PENDING_ORDER_TIMEOUT_MIN", 15)) * time.Minute,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "stagepass"),
			Password:           getEnv("DB_PASSWORD", "stagepass123"),
			DBName:             getEnv("DB_NAME", "stagepass"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "stagepass"),
			ClientID:  getEnv("NATS_CLIENT_ID", "stagepass-api"),
		},

		Valkey: cache.Config{
			Addr:         getEnv("VALKEY_ADDR", "localhost:6379"),
			Password:     getEnv("VALKEY_PASSWORD", ""),
			UsersHashKey: getEnv("VALKEY_USERS_HASH_KEY", "users:auth"),
			EventsTTL:    time.Duration(getEnvInt("VALKEY_EVENTS_TTL_SEC", 30)) * time.Second,
		},

		Elasticsearch: ElasticsearchConfig{
			Enabled:    getEnv("ELASTICSEARCH_ENABLED", "false") == "true",
			URL:        getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Username:   getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:   getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:      getEnv("ELASTICSEARCH_INDEX", "events"),
			MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		},

		ImageStore: external.ImageStoreConfig{
			BaseURL:   getEnv("IMAGE_STORE_URL", "http://localhost:9000"),
			Bucket:    getEnv("IMAGE_STORE_BUCKET", "event-banners"),
			PublicURL: getEnv("IMAGE_STORE_PUBLIC_URL", "http://localhost:9000"),
			Timeout:   time.Duration(getEnvInt("IMAGE_STORE_TIMEOUT_SEC", 30)) * time.Second,
		},
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
