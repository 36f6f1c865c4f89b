package config

import (
	"fmt"     // DSN formatting
	"strings" // Driver normalization
	"time"    // Durations

	"github.com/caarlos0/env/v11" // Struct-tag environment parsing
	"github.com/joho/godotenv"    // For loading .env files
)

// Supported database drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the application configuration
type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"` // Application port
	IsProd  bool   `env:"IS_PROD"`                    // Is production environment

	DBDriver      string `env:"DB_DRIVER" envDefault:"mysql"`      // mysql, postgres or sqlite
	DBUser        string `env:"DB_USER"`                           // Database user
	DBPassword    string `env:"DB_PASSWORD"`                       // Database password
	DBHost        string `env:"DB_HOST" envDefault:"localhost"`    // Database host
	DBPort        string `env:"DB_PORT"`                           // Database port
	DBName        string `env:"DB_NAME" envDefault:"notes"`        // Database name (file path for sqlite)
	DBDSN         string `env:"DB_DSN"`                            // Full DSN, overrides the fields above
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"` // Run AutoMigrate on server start

	JWTSecret  string `env:"JWT_SECRET"`                  // JWT secret key
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"10"` // Password hashing cost

	RedisAddr string        `env:"REDIS_ADDR"`                 // Redis server address, empty disables caching
	RedisPass string        `env:"REDIS_PASS"`                 // Redis password
	RedisDB   int           `env:"REDIS_DB"`                   // Redis database number
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"60s"` // Cached note lifetime

	KafkaBrokers []string      `env:"KAFKA_BROKERS" envSeparator:","`         // Kafka brokers, empty disables events
	KafkaTopic   string        `env:"KAFKA_TOPIC" envDefault:"notes.events"`  // Topic for lifecycle events
	KafkaTimeout time.Duration `env:"KAFKA_PUBLISH_TIMEOUT" envDefault:"2s"` // Max wait on the broker per request

	PublicPrefixes    []string `env:"AUTH_PUBLIC_PREFIXES" envSeparator:"," envDefault:"/api/auth,/notes,/health,/metrics"` // Paths that skip auth
	AllowMissingToken bool     `env:"AUTH_ALLOW_MISSING_TOKEN"`                                                             // Let requests without a bearer token through
	CORSOrigins       []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`                                         // Allowed CORS origins

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`  // logrus level
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // text or json
}

// LoadConfig loads configuration from a .env file, if present, and the environment
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	switch cfg.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
}

// DSN returns the Data Source Name for the configured driver
func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	switch c.DBDriver {
	case DriverPostgres:
		port := c.DBPort
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			c.DBHost, port, c.DBUser, c.DBPassword, c.DBName)
	case DriverSQLite:
		return c.DBName + "?_pragma=foreign_keys(1)"
	default:
		port := c.DBPort
		if port == "" {
			port = "3306"
		}
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + port + ")/" + c.DBName + "?charset=utf8mb4&parseTime=true"
	}
}
