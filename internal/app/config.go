package app

import (
	"os"
	"strconv"
	"time"
)

// StorageDriver выбирает реализацию хранилища продаж, стока и outbox.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
)

// CartStore выбирает хранилище корзин.
type CartStore string

const (
	CartStoreMemory CartStore = "memory"
	CartStoreRedis  CartStore = "redis"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver StorageDriver
	PostgresDSN   string
	// PostgresAutoMigrate применяет DDL-схему при старте.
	PostgresAutoMigrate bool

	CartStore CartStore
	RedisURL  string

	// KafkaBrokers — список брокеров через запятую; пусто = без Kafka.
	KafkaBrokers string

	// CatalogFile — путь к JSON-файлу каталога; пусто = демо-каталог.
	CatalogFile string

	TaxRate               float64
	DeliveryFee           int64
	FreeDeliveryThreshold int64
	LoyaltyRate           float64
	LowStockThreshold     int32

	CartTTL            time.Duration
	ReservationTTL     time.Duration
	SweepInterval      time.Duration
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
}

// DefaultConfig возвращает конфигурацию по умолчанию: in-memory хранилища,
// без Kafka, базовые тарифы витрины.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:              ":8080",
		MetricsAddr:           ":9090",
		StorageDriver:         StorageDriverMemory,
		PostgresAutoMigrate:   true,
		CartStore:             CartStoreMemory,
		TaxRate:               0.18,
		DeliveryFee:           5000,
		FreeDeliveryThreshold: 100000,
		LoyaltyRate:           0.01,
		LowStockThreshold:     10,
		CartTTL:               24 * time.Hour,
		ReservationTTL:        5 * time.Minute,
		SweepInterval:         time.Minute,
		OutboxPollInterval:    time.Second,
		OutboxBatchSize:       100,
	}
}

// ReadConfig строит конфигурацию из переменных окружения STOREFRONT_*
// поверх значений по умолчанию.
func ReadConfig() Config {
	cfg := DefaultConfig()

	readString(&cfg.HTTPAddr, "STOREFRONT_HTTP_ADDR")
	readString(&cfg.MetricsAddr, "STOREFRONT_METRICS_ADDR")
	readString(&cfg.PostgresDSN, "STOREFRONT_POSTGRES_DSN")
	readString(&cfg.RedisURL, "STOREFRONT_REDIS_URL")
	readString(&cfg.KafkaBrokers, "STOREFRONT_KAFKA_BROKERS")
	readString(&cfg.CatalogFile, "STOREFRONT_CATALOG_FILE")

	if v := os.Getenv("STOREFRONT_STORAGE_DRIVER"); v != "" {
		cfg.StorageDriver = StorageDriver(v)
	}
	if v := os.Getenv("STOREFRONT_CART_STORE"); v != "" {
		cfg.CartStore = CartStore(v)
	}
	if v := os.Getenv("STOREFRONT_POSTGRES_AUTO_MIGRATE"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.PostgresAutoMigrate = parsed
		}
	}

	readFloat(&cfg.TaxRate, "STOREFRONT_TAX_RATE")
	readInt64(&cfg.DeliveryFee, "STOREFRONT_DELIVERY_FEE")
	readInt64(&cfg.FreeDeliveryThreshold, "STOREFRONT_FREE_DELIVERY_THRESHOLD")
	readFloat(&cfg.LoyaltyRate, "STOREFRONT_LOYALTY_RATE")
	readInt32(&cfg.LowStockThreshold, "STOREFRONT_LOW_STOCK_THRESHOLD")

	readDuration(&cfg.CartTTL, "STOREFRONT_CART_TTL")
	readDuration(&cfg.ReservationTTL, "STOREFRONT_RESERVATION_TTL")
	readDuration(&cfg.SweepInterval, "STOREFRONT_SWEEP_INTERVAL")
	readDuration(&cfg.OutboxPollInterval, "STOREFRONT_OUTBOX_POLL_INTERVAL")
	if v := os.Getenv("STOREFRONT_OUTBOX_BATCH_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.OutboxBatchSize = parsed
		}
	}

	return cfg
}

func readString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func readFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			*dst = parsed
		}
	}
}

func readInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed >= 0 {
			*dst = parsed
		}
	}
}

func readInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 32); err == nil && parsed > 0 {
			*dst = int32(parsed)
		}
	}
}

func readDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			*dst = parsed
		}
	}
}
