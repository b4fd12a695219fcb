package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	ServerPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	AMQPURL      string
	AMQPExchange string

	AccountServiceURL  string
	MerchantServiceURL string
	FraudServiceURL    string
	FeeServiceURL      string
	PostingServiceURL  string
	ClientTimeout      time.Duration

	Providers []ProviderConfig
}

// ProviderConfig describes one external payment provider. Types is the
// set of transaction types it handles; MerchantCodes, when non-empty,
// restricts it to specific merchants.
type ProviderConfig struct {
	Name          string
	URL           string
	Types         []string
	MerchantCodes []string
}

// Load loads configuration from environment variables
func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "payment_transactions"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "payment.transactions"),

		AccountServiceURL:  getEnv("ACCOUNT_SERVICE_URL", "http://localhost:8081"),
		MerchantServiceURL: getEnv("MERCHANT_SERVICE_URL", "http://localhost:8082"),
		FraudServiceURL:    getEnv("FRAUD_SERVICE_URL", "http://localhost:8083"),
		FeeServiceURL:      getEnv("FEE_SERVICE_URL", "http://localhost:8084"),
		PostingServiceURL:  getEnv("POSTING_SERVICE_URL", "http://localhost:8085"),
		ClientTimeout:      parseDuration(getEnv("CLIENT_TIMEOUT", "10s"), 10*time.Second),

		Providers: loadProviders(),
	}
}

// loadProviders reads the PROVIDERS list and one variable group per
// provider, e.g. for PROVIDERS=bayad:
//
//	PROVIDER_BAYAD_URL=http://bayad.example.com
//	PROVIDER_BAYAD_TYPES=BILL_PAYMENT
//	PROVIDER_BAYAD_MERCHANT_CODES=MERALCO,PLDT
func loadProviders() []ProviderConfig {
	names := parseStringList(getEnv("PROVIDERS", ""))
	providers := make([]ProviderConfig, 0, len(names))
	for _, name := range names {
		prefix := "PROVIDER_" + strings.ToUpper(name) + "_"
		providers = append(providers, ProviderConfig{
			Name:          name,
			URL:           getEnv(prefix+"URL", ""),
			Types:         parseStringList(getEnv(prefix+"TYPES", "")),
			MerchantCodes: parseStringList(getEnv(prefix+"MERCHANT_CODES", "")),
		})
	}
	return providers
}

// GetDBConnectionString builds the PostgreSQL connection string
func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parseDuration parses string to time.Duration with default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// parseStringList parses comma-separated string to slice
func parseStringList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
