package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration loaded from an optional YAML file and
// environment variables. Environment wins over the file.
type Config struct {
	Port                   string   `yaml:"port"`
	JWTSecret              string   `yaml:"jwt_secret"`
	JWTIssuer              string   `yaml:"jwt_issuer"`
	AccessTTLSeconds       int64    `yaml:"access_ttl_seconds"`
	StoreDriver            string   `yaml:"store_driver"`
	StorePath              string   `yaml:"store_path"`
	DatabaseURL            string   `yaml:"database_url"`
	SeedDefaults           bool     `yaml:"seed_defaults"`
	CorsOrigins            []string `yaml:"cors_origins"`
	LogLevel               string   `yaml:"log_level"`
	LogPretty              bool     `yaml:"log_pretty"`
	LogDir                 string   `yaml:"log_dir"`
	LogRetentionDays       int      `yaml:"log_retention_days"`
	OccupancySampleSeconds int      `yaml:"occupancy_sample_seconds"`
	OccupancyHistorySize   int      `yaml:"occupancy_history_size"`
	MetricsDiskPath        string   `yaml:"metrics_disk_path"`
	LoginRatePerMinute     int      `yaml:"login_rate_per_minute"`
	BackupDriver           string   `yaml:"backup_driver"`
	BackupFSRoot           string   `yaml:"backup_fs_root"`
	BackupS3Bucket         string   `yaml:"backup_s3_bucket"`
	BackupS3Region         string   `yaml:"backup_s3_region"`
	BackupS3Endpoint       string   `yaml:"backup_s3_endpoint"`
	BackupS3PathStyle      bool     `yaml:"backup_s3_path_style"`
}

func Defaults() Config {
	return Config{
		Port:                   "5000",
		JWTIssuer:              "hostel",
		AccessTTLSeconds:       86400,
		StoreDriver:            "json",
		StorePath:              "storage/database.json",
		SeedDefaults:           true,
		LogLevel:               "info",
		LogPretty:              true,
		LogRetentionDays:       7,
		OccupancySampleSeconds: 30,
		OccupancyHistorySize:   240,
		MetricsDiskPath:        "storage",
		LoginRatePerMinute:     20,
		BackupDriver:           "fs",
		BackupFSRoot:           "storage/backups",
		BackupS3Region:         "us-east-1",
	}
}

// Load reads path (when it exists) over the defaults and then applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(content, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envOr("PORT", cfg.Port)
	cfg.JWTSecret = envOr("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = envOr("JWT_ISSUER", cfg.JWTIssuer)
	cfg.AccessTTLSeconds = int64(envOrInt("ACCESS_TTL_SECONDS", int(cfg.AccessTTLSeconds)))
	cfg.StoreDriver = strings.ToLower(envOr("STORE_DRIVER", cfg.StoreDriver))
	cfg.StorePath = envOr("STORE_PATH", cfg.StorePath)
	cfg.DatabaseURL = envOr("DATABASE_URL", cfg.DatabaseURL)
	cfg.SeedDefaults = envOrBool("SEED_DEFAULTS", cfg.SeedDefaults)
	if origins := parseCSV(envOr("CORS_ORIGINS", "")); len(origins) > 0 {
		cfg.CorsOrigins = origins
	}
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogPretty = envOrBool("LOG_PRETTY", cfg.LogPretty)
	cfg.LogDir = envOr("LOG_DIR", cfg.LogDir)
	cfg.LogRetentionDays = envOrInt("LOG_RETENTION_DAYS", cfg.LogRetentionDays)
	cfg.OccupancySampleSeconds = envOrInt("OCCUPANCY_SAMPLE_INTERVAL", cfg.OccupancySampleSeconds)
	cfg.OccupancyHistorySize = envOrInt("OCCUPANCY_HISTORY_SIZE", cfg.OccupancyHistorySize)
	cfg.MetricsDiskPath = envOr("METRICS_DISK_PATH", cfg.MetricsDiskPath)
	cfg.LoginRatePerMinute = envOrInt("LOGIN_RATE_PER_MINUTE", cfg.LoginRatePerMinute)
	cfg.BackupDriver = strings.ToLower(envOr("BACKUP_DRIVER", cfg.BackupDriver))
	cfg.BackupFSRoot = envOr("BACKUP_FS_ROOT", cfg.BackupFSRoot)
	cfg.BackupS3Bucket = envOr("BACKUP_S3_BUCKET", cfg.BackupS3Bucket)
	cfg.BackupS3Region = envOr("BACKUP_S3_REGION", cfg.BackupS3Region)
	cfg.BackupS3Endpoint = envOr("BACKUP_S3_ENDPOINT", cfg.BackupS3Endpoint)
	cfg.BackupS3PathStyle = envOrBool("BACKUP_S3_PATH_STYLE", cfg.BackupS3PathStyle)
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case "json", "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.StoreDriver == "postgres" && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for the postgres store")
	}
	if c.StoreDriver != "memory" && strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("missing env var: JWT_SECRET")
	}
	if c.AccessTTLSeconds <= 0 {
		return errors.New("ACCESS_TTL_SECONDS must be positive")
	}
	switch c.BackupDriver {
	case "fs", "s3", "none":
	default:
		return fmt.Errorf("unknown backup driver %q", c.BackupDriver)
	}
	if c.BackupDriver == "s3" && c.BackupS3Bucket == "" {
		return errors.New("BACKUP_S3_BUCKET is required for the s3 backup driver")
	}
	return nil
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
