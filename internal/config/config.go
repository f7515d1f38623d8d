package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	DatabaseDriver      string
	DatabaseURL         string
	RedisURL            string
	NATSURL             string
	FeedChannel         string
	JWTSecret           string
	JWTTTL              time.Duration
	StorageDriver       string
	StorageDir          string
	StoragePublicPath   string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
	UploadMaxSizeMB     int
	LoginRateLimit      int
	LoginRateWindow     time.Duration
	CORSOrigins         string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("INDUCTION")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "Induction API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "5001")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "induction.sqlite")
	v.SetDefault("feed.channel", "induction")
	v.SetDefault("jwt.ttl", "2h")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.dir", "uploads")
	v.SetDefault("storage.public_path", "/documents/files")
	v.SetDefault("cloudinary.folder", "induction/documents")
	v.SetDefault("upload.max_size_mb", 20)
	v.SetDefault("ratelimit.login_max", 10)
	v.SetDefault("ratelimit.login_window", "1m")
	v.SetDefault("cors.origins", "*")

	ttl, err := parseDuration(v.GetString("jwt.ttl"), 2*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	window, err := parseDuration(v.GetString("ratelimit.login_window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid login rate limit window: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseDriver:      strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		FeedChannel:         v.GetString("feed.channel"),
		JWTSecret:           v.GetString("jwt.secret"),
		JWTTTL:              ttl,
		StorageDriver:       strings.ToLower(strings.TrimSpace(v.GetString("storage.driver"))),
		StorageDir:          v.GetString("storage.dir"),
		StoragePublicPath:   v.GetString("storage.public_path"),
		CloudinaryCloudName: v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:    v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret: v.GetString("cloudinary.api_secret"),
		CloudinaryFolder:    v.GetString("cloudinary.folder"),
		UploadMaxSizeMB:     v.GetInt("upload.max_size_mb"),
		LoginRateLimit:      v.GetInt("ratelimit.login_max"),
		LoginRateWindow:     window,
		CORSOrigins:         v.GetString("cors.origins"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres", "mysql":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	switch cfg.StorageDriver {
	case "local", "cloudinary":
	default:
		return Config{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 20
	}

	if cfg.LoginRateLimit <= 0 {
		cfg.LoginRateLimit = 10
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}
