package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	MetaAppID       string
	MetaAppSecret   string
	GraphBaseURL    string
	PostgresURI     string
	RedisURI        string
	FrontendURL     string
	R2              R2
	SecretKey       string
	ServiceToken    string
	TranscodeWait   time.Duration
	SweepInterval   string
	RefreshInterval string
}

func LoadConfig() *Config {
	return &Config{
		MetaAppID:       getEnv("META_APP_ID", ""),
		MetaAppSecret:   getEnv("META_APP_SECRET", ""),
		GraphBaseURL:    getEnv("GRAPH_BASE_URL", "https://graph.facebook.com/v21.0"),
		PostgresURI:     getEnv("POSTGRES_URI", ""),
		RedisURI:        getEnv("REDIS_URI", ""),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:       getEnv("SECRET_KEY", ""),
		ServiceToken:    getEnv("SERVICE_TOKEN", ""),
		TranscodeWait:   time.Duration(getEnvInt("TRANSCODE_WAIT_SECONDS", 30)) * time.Second,
		SweepInterval:   getEnv("SWEEP_INTERVAL", "@every 00h01m00s"),
		RefreshInterval: getEnv("REFRESH_INTERVAL", "@every 06h00m00s"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
