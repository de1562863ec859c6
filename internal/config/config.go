package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Pricing  PricingConfig
	Matching MatchingConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port string
	Env  string
	Host string
}

type DatabaseConfig struct {
	Host           string
	Port           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	MaxConnections int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	// Enabled selects the postgres trip store; the in-memory store is
	// used otherwise.
	Enabled bool
}

type RedisConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	MinIdleConn int
	DialTimeout time.Duration
	ReadTimeout time.Duration
	Enabled     bool
}

type NewRelicConfig struct {
	LicenseKey string
	AppName    string
	Enabled    bool
}

type PricingConfig struct {
	BaseRatePerKm struct {
		Economy float64
		XL      float64
		Premium float64
	}
	AvgUrbanSpeedKm    float64
	MaxSurgeMultiplier float64
	MinSurgeMultiplier float64
}

type MatchingConfig struct {
	RadiusKm       float64
	CandidateLimit int
	OfferTimeout   time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			Name:           getEnv("DB_NAME", "trip_dispatch"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 100),
			MaxIdleConns:   getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 10),
			MaxLifetime:    time.Duration(getEnvAsInt("DB_MAX_LIFETIME_MINUTES", 30)) * time.Minute,
			Enabled:        getEnvAsBool("DB_ENABLED", false),
		},
		Redis: RedisConfig{
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			MaxRetries:  getEnvAsInt("REDIS_MAX_RETRIES", 3),
			PoolSize:    getEnvAsInt("REDIS_POOL_SIZE", 100),
			MinIdleConn: 10,
			DialTimeout: 5 * time.Second,
			ReadTimeout: 3 * time.Second,
			Enabled:     getEnvAsBool("REDIS_ENABLED", false),
		},
		NewRelic: NewRelicConfig{
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			AppName:    getEnv("NEW_RELIC_APP_NAME", "GoComet-TripDispatch"),
			Enabled:    getEnvAsBool("NEW_RELIC_ENABLED", false),
		},
		Matching: MatchingConfig{
			RadiusKm:       getEnvAsFloat64("MATCH_RADIUS_KM", 5.0),
			CandidateLimit: getEnvAsInt("MATCH_CANDIDATE_LIMIT", 3),
			OfferTimeout:   time.Duration(getEnvAsInt("OFFER_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	cfg.Pricing.BaseRatePerKm.Economy = getEnvAsFloat64("BASE_RATE_ECONOMY", 2.50)
	cfg.Pricing.BaseRatePerKm.XL = getEnvAsFloat64("BASE_RATE_XL", 3.50)
	cfg.Pricing.BaseRatePerKm.Premium = getEnvAsFloat64("BASE_RATE_PREMIUM", 5.00)
	cfg.Pricing.AvgUrbanSpeedKm = getEnvAsFloat64("AVG_SPEED_KMH", 30.0)
	cfg.Pricing.MaxSurgeMultiplier = getEnvAsFloat64("MAX_SURGE_MULTIPLIER", 3.0)
	cfg.Pricing.MinSurgeMultiplier = getEnvAsFloat64("MIN_SURGE_MULTIPLIER", 1.0)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if c.Database.Enabled && c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required when DB_ENABLED is set")
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required when REDIS_ENABLED is set")
	}
	if c.Matching.RadiusKm <= 0 {
		return fmt.Errorf("MATCH_RADIUS_KM must be positive")
	}
	if c.Matching.CandidateLimit <= 0 {
		return fmt.Errorf("MATCH_CANDIDATE_LIMIT must be positive")
	}
	if c.Matching.OfferTimeout <= 0 {
		return fmt.Errorf("OFFER_TIMEOUT_SECONDS must be positive")
	}
	r := c.Pricing.BaseRatePerKm
	if r.Economy <= 0 || r.XL <= 0 || r.Premium <= 0 {
		return fmt.Errorf("base rates must be positive")
	}
	if r.Economy > r.XL || r.XL > r.Premium {
		return fmt.Errorf("base rates must be ordered economy <= xl <= premium")
	}
	if c.Pricing.AvgUrbanSpeedKm <= 0 {
		return fmt.Errorf("AVG_SPEED_KMH must be positive")
	}
	if c.Pricing.MinSurgeMultiplier > c.Pricing.MaxSurgeMultiplier {
		return fmt.Errorf("MIN_SURGE_MULTIPLIER must not exceed MAX_SURGE_MULTIPLIER")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
