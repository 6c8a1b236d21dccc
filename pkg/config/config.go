package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Grading       GradingConfig
	Reports       ReportsConfig
	Notifications NotificationsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GradingConfig holds the score scale and the grade-band thresholds used by
// score reports. Thresholds are fractions of MaxScore, highest first.
type GradingConfig struct {
	MaxScore   float64
	Excellent  float64
	VeryGood   float64
	Good       float64
	FairlyGood float64
	Average    float64
}

// ReportsConfig tunes score-report caching and background cache warming.
type ReportsConfig struct {
	CacheTTL          time.Duration
	WarmWorkers       int
	WarmQueueSize     int
	WarmRetries       int
	WarmRetryInterval time.Duration
}

// NotificationsConfig tunes the notification feed.
type NotificationsConfig struct {
	RecentLimit   int
	CountCacheTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Grading = GradingConfig{
		MaxScore:   v.GetFloat64("GRADING_MAX_SCORE"),
		Excellent:  v.GetFloat64("GRADING_BAND_EXCELLENT"),
		VeryGood:   v.GetFloat64("GRADING_BAND_VERY_GOOD"),
		Good:       v.GetFloat64("GRADING_BAND_GOOD"),
		FairlyGood: v.GetFloat64("GRADING_BAND_FAIRLY_GOOD"),
		Average:    v.GetFloat64("GRADING_BAND_AVERAGE"),
	}

	cfg.Reports = ReportsConfig{
		CacheTTL:          parseDuration(v.GetString("REPORTS_CACHE_TTL"), 10*time.Minute),
		WarmWorkers:       v.GetInt("REPORTS_WARM_WORKERS"),
		WarmQueueSize:     v.GetInt("REPORTS_WARM_QUEUE_SIZE"),
		WarmRetries:       v.GetInt("REPORTS_WARM_RETRIES"),
		WarmRetryInterval: parseDuration(v.GetString("REPORTS_WARM_RETRY_INTERVAL"), 5*time.Second),
	}

	cfg.Notifications = NotificationsConfig{
		RecentLimit:   v.GetInt("NOTIFICATIONS_RECENT_LIMIT"),
		CountCacheTTL: parseDuration(v.GetString("NOTIFICATIONS_COUNT_CACHE_TTL"), time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sala")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "sala-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GRADING_MAX_SCORE", 10)
	v.SetDefault("GRADING_BAND_EXCELLENT", 0.9)
	v.SetDefault("GRADING_BAND_VERY_GOOD", 0.8)
	v.SetDefault("GRADING_BAND_GOOD", 0.7)
	v.SetDefault("GRADING_BAND_FAIRLY_GOOD", 0.6)
	v.SetDefault("GRADING_BAND_AVERAGE", 0.5)

	v.SetDefault("REPORTS_CACHE_TTL", "10m")
	v.SetDefault("REPORTS_WARM_WORKERS", 1)
	v.SetDefault("REPORTS_WARM_QUEUE_SIZE", 8)
	v.SetDefault("REPORTS_WARM_RETRIES", 2)
	v.SetDefault("REPORTS_WARM_RETRY_INTERVAL", "5s")

	v.SetDefault("NOTIFICATIONS_RECENT_LIMIT", 10)
	v.SetDefault("NOTIFICATIONS_COUNT_CACHE_TTL", "1m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
