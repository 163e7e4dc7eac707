package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config reúne a configuração do serviço, resolvida uma única vez na inicialização
type Config struct {
	AppTitle       string
	RestaurantName string
	DeliveryFee    decimal.Decimal
	WhatsAppPhone  string
	CatalogPath    string
	SeedDemoOrders bool

	// SessionIdleTimeout encerra containers sem uso; zero desativa
	SessionIdleTimeout time.Duration

	Port        string
	ServiceName string
	LogFormat   string

	StorageDriver string // memory | sqlite | postgres
	SQLitePath    string
	OrderArchive  string // memory | postgres

	DatabaseUser     string
	DatabasePassword string
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string

	OTelEnabled  bool
	OTelEndpoint string
}

// LoadConfig lê a configuração das variáveis de ambiente, com valores padrão
func LoadConfig() (Config, error) {
	cfg := Config{
		AppTitle:       getEnv("APP_TITLE", "PepMenu - Cardápio Online"),
		RestaurantName: getEnv("RESTAURANT_NAME", "Bella Vista Restaurante"),
		WhatsAppPhone:  getEnv("WHATSAPP_PHONE", "5511987654321"),
		CatalogPath:    getEnv("CATALOG_PATH", ""),

		Port:        getEnv("PORT", "8080"),
		ServiceName: getEnv("SERVICE_NAME", "storefront-service"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "memory")),
		SQLitePath:    getEnv("SQLITE_PATH", "storefront.db"),
		OrderArchive:  strings.ToLower(getEnv("ORDER_ARCHIVE", "memory")),

		DatabaseUser:     getEnv("DATABASE_USER", "root"),
		DatabasePassword: getEnv("DATABASE_PASSWORD", "pass"),
		DatabaseHost:     getEnv("DATABASE_HOST", "localhost"),
		DatabasePort:     getEnv("DATABASE_PORT", "5432"),
		DatabaseName:     getEnv("DATABASE_NAME", "storefront_db"),

		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
	}

	fee, err := decimal.NewFromString(getEnv("DELIVERY_FEE", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid DELIVERY_FEE: %w", err)
	}
	if fee.IsNegative() {
		return Config{}, fmt.Errorf("invalid DELIVERY_FEE: must not be negative")
	}
	cfg.DeliveryFee = fee

	idle, err := time.ParseDuration(getEnv("SESSION_IDLE_TIMEOUT", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid SESSION_IDLE_TIMEOUT: %w", err)
	}
	if idle < 0 {
		return Config{}, fmt.Errorf("invalid SESSION_IDLE_TIMEOUT: must not be negative")
	}
	cfg.SessionIdleTimeout = idle

	if cfg.SeedDemoOrders, err = getEnvBool("SEED_DEMO_ORDERS", false); err != nil {
		return Config{}, err
	}
	if cfg.OTelEnabled, err = getEnvBool("OTEL_ENABLED", false); err != nil {
		return Config{}, err
	}

	switch cfg.StorageDriver {
	case "memory", "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	switch cfg.OrderArchive {
	case "memory", "postgres":
	default:
		return Config{}, fmt.Errorf("invalid ORDER_ARCHIVE %q", cfg.OrderArchive)
	}

	return cfg, nil
}

// PostgresDSN monta a URL de conexão com o PostgreSQL
func (c Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
