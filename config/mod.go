package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port    string
	GinMode string

	DatabaseURL string
	DBName      string
	RedisURL    string

	Secret          string
	AdminInviteCode string

	MongoTransactions bool
	AutoMigrate       bool

	ImageBackend           string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	CORSOrigins        []string
	RateLimitPerSecond uint
}

const (
	ImageBackendGridFS     = "gridfs"
	ImageBackendCloudinary = "cloudinary"
)

// Load reads a .env file when present, then the environment. Missing
// values fall back to development defaults; SECRET is required in release
// mode.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: could not read .env: %v", err)
	}

	cfg := &Config{
		Port:    envOrDefault("PORT", "8080"),
		GinMode: envOrDefault("GIN_MODE", gin.DebugMode),

		DatabaseURL: envOrDefault("DATABASE_URL", "mongodb://localhost:27017"),
		DBName:      envOrDefault("DB_NAME", "storefront"),
		RedisURL:    envOrDefault("REDIS_URL", "redis://localhost:6379/0"),

		Secret:          os.Getenv("SECRET"),
		AdminInviteCode: strings.TrimSpace(os.Getenv("ADMIN_INVITE_CODE")),

		ImageBackend:           strings.ToLower(envOrDefault("IMAGE_BACKEND", ImageBackendGridFS)),
		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUDNAME"),
		CloudinaryAPIKey:       os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryUploadFolder: envOrDefault("CLOUDINARY_UPLOAD_FOLDER", "storefront"),

		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),
	}

	var err error
	if cfg.MongoTransactions, err = envBool("MONGO_TRANSACTIONS", false); err != nil {
		return nil, err
	}

	if cfg.AutoMigrate, err = envBool("AUTO_MIGRATE", true); err != nil {
		return nil, err
	}

	rate, err := strconv.ParseUint(envOrDefault("RATE_LIMIT_PER_SECOND", "10"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_PER_SECOND: %w", err)
	}
	cfg.RateLimitPerSecond = uint(rate)

	switch cfg.ImageBackend {
	case ImageBackendGridFS, ImageBackendCloudinary:
	default:
		return nil, fmt.Errorf("IMAGE_BACKEND must be %q or %q, got %q", ImageBackendGridFS, ImageBackendCloudinary, cfg.ImageBackend)
	}

	if cfg.Secret == "" {
		if cfg.IsRelease() {
			return nil, fmt.Errorf("SECRET must be set when GIN_MODE=%s", gin.ReleaseMode)
		}
		cfg.Secret = "storefront-development-secret"
		log.Println("config: SECRET not set, using the development secret")
	}

	return cfg, nil
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) IsRelease() bool {
	return c.GinMode == gin.ReleaseMode
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func splitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
