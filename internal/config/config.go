package config

import (
	"os"
	"strconv"
)

type Config struct {
	DatabaseURL         string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	KVPath              string
	StoreID             string
	SyncIntervalSeconds int
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	syncInterval, err := strconv.Atoi(getEnv("SYNC_INTERVAL_SECONDS", "60"))
	if err != nil || syncInterval < 1 {
		syncInterval = 60
	}

	cfg := Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             redisDB,
		KVPath:              getEnv("KV_PATH", "pos-local.db"),
		StoreID:             getEnv("DEFAULT_STORE_ID", "main-store"),
		SyncIntervalSeconds: syncInterval,
	}

	return cfg
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
