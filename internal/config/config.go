package config

import (
	"os"
	"strconv"
)

type Config struct {
	HTTPAddr      string
	MySQLDSN      string
	RedisAddr     string
	RedisPoolSize int

	MySQLMaxOpenConns int
	MySQLMaxIdleConns int

	// AuthTokens holds "token:user" pairs for the static verifier.
	AuthTokens string
}

func Load() Config {
	return Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		MySQLDSN:          getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/bookstore?parseTime=true"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPoolSize:     getEnvInt("REDIS_POOL_SIZE", 100),
		MySQLMaxOpenConns: getEnvInt("MYSQL_MAX_OPEN_CONNS", 50),
		MySQLMaxIdleConns: getEnvInt("MYSQL_MAX_IDLE_CONNS", 25),
		AuthTokens:        getEnv("AUTH_TOKENS", "dev-token:dev-user"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
