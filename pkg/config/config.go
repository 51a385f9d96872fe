package config

import (
	"errors"
	"io/fs"
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
	Booking       BookingConfig
	RateLimit     RateLimitConfig
	Captcha       CaptchaConfig
	Notifications NotificationConfig
	Cache         CacheConfig
	Realtime      RealtimeConfig
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
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	Expiration   time.Duration
	Issuer       string
	BcryptRounds int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BookingConfig holds the slot grid and window limits used by the booking engine.
type BookingConfig struct {
	SlotMinutes   int
	AnyWindowDays int
	MaxWindowDays int
}

// SlotLength returns the configured slot duration.
func (b BookingConfig) SlotLength() time.Duration {
	return time.Duration(b.SlotMinutes) * time.Minute
}

// RateLimitConfig throttles public booking submissions per client IP.
type RateLimitConfig struct {
	Enabled       bool
	BookingLimit  int
	BookingWindow time.Duration
}

// CaptchaConfig configures reCAPTCHA verification. An empty secret disables the check.
type CaptchaConfig struct {
	Secret    string
	VerifyURL string
	MinScore  float64
	Timeout   time.Duration
}

// NotificationConfig controls patient notifications sent after a booking commits.
type NotificationConfig struct {
	Enabled        bool
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	SMSEnabled     bool
	Workers        int
	Retries        int
	RetryDelay     time.Duration
}

// CacheConfig governs caching of per-doctor working rules.
type CacheConfig struct {
	Enabled  bool
	RulesTTL time.Duration
}

// RealtimeConfig configures the websocket gateway.
type RealtimeConfig struct {
	AllowedOrigins []string
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
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
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:       v.GetString("JWT_SECRET"),
		Expiration:   parseDuration(v.GetString("JWT_EXPIRATION"), 7*24*time.Hour),
		Issuer:       v.GetString("JWT_ISSUER"),
		BcryptRounds: v.GetInt("BCRYPT_ROUNDS"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Booking = BookingConfig{
		SlotMinutes:   positiveOr(v.GetInt("BOOKING_SLOT_MINUTES"), 20),
		AnyWindowDays: positiveOr(v.GetInt("BOOKING_ANY_WINDOW_DAYS"), 14),
		MaxWindowDays: positiveOr(v.GetInt("BOOKING_MAX_WINDOW_DAYS"), 31),
	}

	cfg.RateLimit = RateLimitConfig{
		Enabled:       v.GetBool("ENABLE_BOOKING_RATE_LIMIT"),
		BookingLimit:  positiveOr(v.GetInt("BOOKING_RATE_LIMIT"), 5),
		BookingWindow: parseDuration(v.GetString("BOOKING_RATE_WINDOW"), time.Hour),
	}

	cfg.Captcha = CaptchaConfig{
		Secret:    v.GetString("RECAPTCHA_SECRET"),
		VerifyURL: v.GetString("RECAPTCHA_VERIFY_URL"),
		MinScore:  v.GetFloat64("RECAPTCHA_MIN_SCORE"),
		Timeout:   parseDuration(v.GetString("RECAPTCHA_TIMEOUT"), 5*time.Second),
	}

	cfg.Notifications = NotificationConfig{
		Enabled:        v.GetBool("ENABLE_NOTIFICATIONS"),
		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		FromEmail:      v.GetString("NOTIFY_FROM_EMAIL"),
		FromName:       v.GetString("NOTIFY_FROM_NAME"),
		SMSEnabled:     v.GetBool("SEND_SMS"),
		Workers:        positiveOr(v.GetInt("NOTIFY_WORKERS"), 2),
		Retries:        positiveOr(v.GetInt("NOTIFY_RETRIES"), 3),
		RetryDelay:     parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Cache = CacheConfig{
		Enabled:  v.GetBool("ENABLE_RULES_CACHE"),
		RulesTTL: parseDuration(v.GetString("CACHE_RULES_TTL"), 10*time.Minute),
	}

	cfg.Realtime = RealtimeConfig{AllowedOrigins: splitAndTrim(v.GetString("REALTIME_ALLOWED_ORIGINS"))}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 4000)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "doctor_booking")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "doctor-booking-api")
	v.SetDefault("BCRYPT_ROUNDS", 10)

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BOOKING_SLOT_MINUTES", 20)
	v.SetDefault("BOOKING_ANY_WINDOW_DAYS", 14)
	v.SetDefault("BOOKING_MAX_WINDOW_DAYS", 31)

	v.SetDefault("ENABLE_BOOKING_RATE_LIMIT", true)
	v.SetDefault("BOOKING_RATE_LIMIT", 5)
	v.SetDefault("BOOKING_RATE_WINDOW", "1h")

	v.SetDefault("RECAPTCHA_SECRET", "")
	v.SetDefault("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify")
	v.SetDefault("RECAPTCHA_MIN_SCORE", 0.5)
	v.SetDefault("RECAPTCHA_TIMEOUT", "5s")

	v.SetDefault("ENABLE_NOTIFICATIONS", true)
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("NOTIFY_FROM_EMAIL", "no-reply@clinic.local")
	v.SetDefault("NOTIFY_FROM_NAME", "Clinic Booking")
	v.SetDefault("SEND_SMS", false)
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "2s")

	v.SetDefault("ENABLE_RULES_CACHE", true)
	v.SetDefault("CACHE_RULES_TTL", "10m")

	v.SetDefault("REALTIME_ALLOWED_ORIGINS", "")
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

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
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
