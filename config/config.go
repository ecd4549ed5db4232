package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const minSecretLength = 32

type Config struct {
	Env              string
	Port             string
	DBURL            string
	JWTSecret        string
	JWTAlgorithm     string
	AccessExpiryMin  int
	BcryptRounds     int
	CORSOrigins      []string
	SweepIntervalMin int
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:              getEnv("ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DBURL:            os.Getenv("DB_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET_KEY"),
		JWTAlgorithm:     getEnv("JWT_ALGORITHM", "HS256"),
		AccessExpiryMin:  getEnvAsInt("ACCESS_TOKEN_EXPIRY", 30),
		BcryptRounds:     getEnvAsInt("BCRYPT_ROUNDS", 12),
		CORSOrigins:      getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		SweepIntervalMin: getEnvAsInt("SESSION_SWEEP_INTERVAL", 60),
	}

	if cfg.DBURL == "" {
		return nil, fmt.Errorf("missing required environment variable: DB_URL")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing required environment variable: JWT_SECRET_KEY")
	}
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("JWT_SECRET_KEY must be at least %d characters long", minSecretLength)
	}
	if cfg.JWTAlgorithm != "HS256" {
		return nil, fmt.Errorf("unsupported JWT_ALGORITHM: %s", cfg.JWTAlgorithm)
	}

	return cfg, nil
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

func getEnvAsList(key string, defaultVal []string) []string {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	parts := strings.Split(valStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
