package config

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string
	Env  string

	MongoURI     string
	DatabaseName string

	JWTSecret       string
	SessionTokenTTL time.Duration
	ShareTokenTTL   time.Duration

	// BlobRoot is the on-disk blob directory, injected into the disk store
	// at construction. It is never read from process-wide state.
	BlobRoot string

	B2ApplicationKeyID string
	B2ApplicationKey   string
	B2BucketName       string

	MaxFileSize int64

	// SweepInterval is how often the orphan blob sweep runs; 0 disables it.
	SweepInterval time.Duration

	AllowedOrigins []string
}

var AppConfig *Config

func LoadConfig() {
	AppConfig = &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DatabaseName: getEnv("DATABASE_NAME", "nimbusdrive"),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		SessionTokenTTL: parseDuration(getEnv("SESSION_TOKEN_TTL", "24h")),
		ShareTokenTTL:   parseDuration(getEnv("SHARE_TOKEN_TTL", "1h")),

		BlobRoot: getEnv("BLOB_ROOT", "./uploads"),

		B2ApplicationKeyID: getEnv("B2_APPLICATION_KEY_ID", ""),
		B2ApplicationKey:   getEnv("B2_APPLICATION_KEY", ""),
		B2BucketName:       getEnv("B2_BUCKET_NAME", ""),

		MaxFileSize: parseInt64(getEnv("MAX_FILE_SIZE", "104857600")),

		SweepInterval: parseDuration(getEnv("SWEEP_INTERVAL", "24h")),

		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}

	logConfig()
	validateConfig()
}

// UseB2 reports whether Backblaze B2 is configured as the blob backend.
func (c *Config) UseB2() bool {
	return c.B2ApplicationKeyID != "" && c.B2ApplicationKey != "" && c.B2BucketName != ""
}

func logConfig() {
	log.Println("Configuration loaded:")
	log.Printf("  Port: %s", AppConfig.Port)
	log.Printf("  Environment: %s", AppConfig.Env)
	log.Printf("  Database: %s", AppConfig.DatabaseName)
	log.Printf("  MongoDB URI: %s", maskConnectionString(AppConfig.MongoURI))
	log.Printf("  JWT Secret: %s", maskSecret(AppConfig.JWTSecret))
	log.Printf("  Session Token TTL: %v", AppConfig.SessionTokenTTL)
	log.Printf("  Share Token TTL: %v", AppConfig.ShareTokenTTL)
	if AppConfig.UseB2() {
		log.Printf("  Blob backend: Backblaze B2 (bucket %s, key %s)", AppConfig.B2BucketName, maskSecret(AppConfig.B2ApplicationKeyID))
	} else {
		log.Printf("  Blob backend: disk (%s)", AppConfig.BlobRoot)
	}
	log.Printf("  Max File Size: %d bytes", AppConfig.MaxFileSize)
	log.Printf("  Sweep Interval: %v", AppConfig.SweepInterval)
	log.Printf("  Allowed Origins: %v", AppConfig.AllowedOrigins)
}

func maskSecret(secret string) string {
	if secret == "" {
		return "[NOT SET]"
	}
	if len(secret) <= 8 {
		return "[HIDDEN]"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}

func maskConnectionString(uri string) string {
	if uri == "" {
		return "[NOT SET]"
	}
	if strings.Contains(uri, "@") {
		parts := strings.Split(uri, "@")
		if len(parts) >= 2 {
			return "[CREDENTIALS_HIDDEN]@" + parts[len(parts)-1]
		}
	}
	return uri
}

func validateConfig() {
	var missingVars []string

	required := map[string]string{
		"MONGO_URI":  AppConfig.MongoURI,
		"JWT_SECRET": AppConfig.JWTSecret,
	}
	for key, value := range required {
		if value == "" {
			missingVars = append(missingVars, key)
		}
	}

	if !AppConfig.UseB2() && AppConfig.BlobRoot == "" {
		missingVars = append(missingVars, "BLOB_ROOT (or B2_* credentials)")
	}

	if len(missingVars) > 0 {
		log.Printf("Missing required environment variables: %v", missingVars)
		log.Fatal("Please set all required environment variables")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt64(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Fatalf("Failed to parse int64: %s", s)
	}
	return i
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("Failed to parse duration: %s", s)
	}
	return d
}

func parseStringSlice(s string) []string {
	if s == "" {
		return []string{}
	}

	parts := strings.Split(s, ",")
	var result []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func CreateContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
