package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Payment   PaymentConfig
	Mail      MailConfig
	Reconcile ReconcileConfig
	Internal  InternalConfig
}

type AppConfig struct {
	Port           string
	Env            string
	LogLevel       string
	StoreTimeout   time.Duration
	AllowedOrigins []string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	Issuer        string
	Audience      string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// PaymentConfig holds the payment-link provider settings. The secret key never
// leaves the server.
type PaymentConfig struct {
	Provider   string
	SecretKey  string
	BaseURL    string
	Currency   string
	Remarks    string
	SuccessURL string
	CancelURL  string
	Timeout    time.Duration
	LockTTL    time.Duration
}

type MailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	ResetURL       string
	ResetTokenTTL  time.Duration
}

type ReconcileConfig struct {
	Enabled   bool
	Schedule  string
	BatchSize int
}

// InternalConfig configures the HMAC-signed operator and confirmation endpoints.
type InternalConfig struct {
	SigningSecret      string
	SignatureTolerance time.Duration
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORE_TIMEOUT", "5s")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Asia/Manila")

	viper.SetDefault("JWT_ISSUER", "medconsult-api")
	viper.SetDefault("JWT_AUDIENCE", "medconsult-api")

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("PAYMENT_PROVIDER", "paymongo")
	viper.SetDefault("PAYMENT_CURRENCY", "PHP")
	viper.SetDefault("PAYMENT_REMARKS", "Thank you.")
	viper.SetDefault("PAYMENT_TIMEOUT", "10s")
	viper.SetDefault("PAYMENT_LOCK_TTL", "30s")

	viper.SetDefault("MAIL_FROM_NAME", "MedConsult")
	viper.SetDefault("PASSWORD_RESET_TTL", "30m")

	viper.SetDefault("RECONCILE_ENABLED", true)
	viper.SetDefault("RECONCILE_SCHEDULE", "@every 1m")
	viper.SetDefault("RECONCILE_BATCH_SIZE", 50)
}

// LoadConfig reads configuration from an optional .env file and the
// environment. Environment variables win over the file.
func LoadConfig() (*Config, error) {
	setDefaults()
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Port:           viper.GetString("APP_PORT"),
			Env:            viper.GetString("APP_ENV"),
			LogLevel:       viper.GetString("LOG_LEVEL"),
			StoreTimeout:   durationOr("STORE_TIMEOUT", 5*time.Second),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			TimeZone: viper.GetString("DB_TIMEZONE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			Issuer:        viper.GetString("JWT_ISSUER"),
			Audience:      viper.GetString("JWT_AUDIENCE"),
			AccessExpiry:  durationOr("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: durationOr("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		Payment: PaymentConfig{
			Provider:   strings.ToLower(viper.GetString("PAYMENT_PROVIDER")),
			SecretKey:  viper.GetString("PAYMENT_SECRET_KEY"),
			BaseURL:    viper.GetString("PAYMENT_BASE_URL"),
			Currency:   strings.ToUpper(viper.GetString("PAYMENT_CURRENCY")),
			Remarks:    viper.GetString("PAYMENT_REMARKS"),
			SuccessURL: viper.GetString("PAYMENT_SUCCESS_URL"),
			CancelURL:  viper.GetString("PAYMENT_CANCEL_URL"),
			Timeout:    durationOr("PAYMENT_TIMEOUT", 10*time.Second),
			LockTTL:    durationOr("PAYMENT_LOCK_TTL", 30*time.Second),
		},
		Mail: MailConfig{
			SendGridAPIKey: viper.GetString("SENDGRID_API_KEY"),
			FromEmail:      viper.GetString("MAIL_FROM_EMAIL"),
			FromName:       viper.GetString("MAIL_FROM_NAME"),
			ResetURL:       viper.GetString("PASSWORD_RESET_URL"),
			ResetTokenTTL:  durationOr("PASSWORD_RESET_TTL", 30*time.Minute),
		},
		Reconcile: ReconcileConfig{
			Enabled:   viper.GetBool("RECONCILE_ENABLED"),
			Schedule:  viper.GetString("RECONCILE_SCHEDULE"),
			BatchSize: viper.GetInt("RECONCILE_BATCH_SIZE"),
		},
		Internal: InternalConfig{
			SigningSecret:      viper.GetString("INTERNAL_SIGNING_SECRET"),
			SignatureTolerance: durationOr("INTERNAL_SIGNATURE_TOLERANCE", 5*time.Minute),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Payment.SecretKey == "" {
		return errors.New("PAYMENT_SECRET_KEY is required")
	}
	switch c.Payment.Provider {
	case "paymongo", "stripe":
	default:
		return errors.New("PAYMENT_PROVIDER must be paymongo or stripe")
	}
	if c.Internal.SigningSecret == "" {
		return errors.New("INTERNAL_SIGNING_SECRET is required")
	}
	return nil
}

func durationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
