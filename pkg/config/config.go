package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "STREAMTIPS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Stripe       StripeConfig
	Fees         FeeConfig
	Webhook      WebhookConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STREAMTIPS_APP_ENV" required:"true"`
	Port         string `envconfig:"STREAMTIPS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STREAMTIPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STREAMTIPS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STREAMTIPS_DB_DSN"`
	Driver string `envconfig:"STREAMTIPS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STREAMTIPS_DB_HOST"`
	Port     int    `envconfig:"STREAMTIPS_DB_PORT" default:"5432"`
	User     string `envconfig:"STREAMTIPS_DB_USER"`
	Password string `envconfig:"STREAMTIPS_DB_PASSWORD"`
	Name     string `envconfig:"STREAMTIPS_DB_NAME"`
	SSLMode  string `envconfig:"STREAMTIPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STREAMTIPS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STREAMTIPS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STREAMTIPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STREAMTIPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STREAMTIPS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STREAMTIPS_REDIS_ADDR"`
	Password     string        `envconfig:"STREAMTIPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"STREAMTIPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STREAMTIPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STREAMTIPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STREAMTIPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STREAMTIPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STREAMTIPS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	APIKey string `envconfig:"STREAMTIPS_STRIPE_API_KEY"`
	Secret string `envconfig:"STREAMTIPS_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"STREAMTIPS_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// FeeConfig pins the fee model used for estimates. Rates are expressed in
// basis points so the config stays integral and the calculator controls
// rounding in exactly one place.
type FeeConfig struct {
	ProcessorRateBPS  int64  `envconfig:"STREAMTIPS_FEE_PROCESSOR_RATE_BPS" default:"290"`
	ProcessorFixedFee int64  `envconfig:"STREAMTIPS_FEE_PROCESSOR_FIXED_CENTS" default:"30"`
	PlatformRateBPS   int64  `envconfig:"STREAMTIPS_FEE_PLATFORM_RATE_BPS" default:"2000"`
	MinTipCents       int64  `envconfig:"STREAMTIPS_FEE_MIN_TIP_CENTS" default:"50"`
	Currency          string `envconfig:"STREAMTIPS_CURRENCY" default:"usd"`
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"STREAMTIPS_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STREAMTIPS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STREAMTIPS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := map[string]string{
		"STREAMTIPS_DB_HOST": db.Host,
		"STREAMTIPS_DB_USER": db.User,
		"STREAMTIPS_DB_NAME": db.Name,
	}
	for _, key := range []string{"STREAMTIPS_DB_HOST", "STREAMTIPS_DB_USER", "STREAMTIPS_DB_NAME"} {
		if required[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either STREAMTIPS_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
