// Package config handles application configuration via environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configurable values for the portal.
type Config struct {
	Env  string
	Port string

	APIBaseURL string
	APITimeout time.Duration

	StorageDriver string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionTTL        time.Duration
	TokenTTL          time.Duration
	DefaultRetryAfter int
	CountdownInterval time.Duration

	OTPRateInterval time.Duration
	OTPRateBurst    int
}

// LoadDotEnv loads variables from a .env file when one exists. Values already
// present in the environment win.
func LoadDotEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil && !os.IsNotExist(err) {
		log.Printf("Error loading .env file: %v", err)
	}
}

// Load reads environment variables and populates a Config struct.
func Load() *Config {
	return &Config{
		Env:               getEnv("ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		APIBaseURL:        getEnv("API_BASE_URL", "http://localhost:4000/api/"),
		APITimeout:        getDuration("API_TIMEOUT", "15s"),
		StorageDriver:     getEnv("STORAGE_DRIVER", "memory"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getInt("REDIS_DB", "0"),
		SessionTTL:        getDuration("SESSION_TTL", "24h"),
		TokenTTL:          getDuration("TOKEN_TTL", "24h"),
		DefaultRetryAfter: getInt("DEFAULT_RETRY_AFTER", "120"),
		CountdownInterval: getDuration("COUNTDOWN_INTERVAL", "1s"),
		OTPRateInterval:   getDuration("OTP_RATE_INTERVAL", "2s"),
		OTPRateBurst:      getInt("OTP_RATE_BURST", "3"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key, fallback string) int {
	n, err := strconv.Atoi(getEnv(key, fallback))
	if err != nil {
		log.Panicf("Invalid %s: %v", key, err)
	}
	return n
}

func getDuration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		log.Panicf("Invalid %s: %v", key, err)
	}
	return d
}
