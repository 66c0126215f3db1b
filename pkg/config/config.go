package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix  = ""
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Gateway      GatewayConfig
	Courier      CourierConfig
	Payments     PaymentsConfig
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
	Env          string `envconfig:"D2B_APP_ENV" required:"true"`
	Port         string `envconfig:"D2B_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"D2B_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"D2B_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"D2B_DB_DSN"`
	Driver string `envconfig:"D2B_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"D2B_DB_HOST"`
	Port     int    `envconfig:"D2B_DB_PORT" default:"5432"`
	User     string `envconfig:"D2B_DB_USER"`
	Password string `envconfig:"D2B_DB_PASSWORD"`
	Name     string `envconfig:"D2B_DB_NAME"`
	SSLMode  string `envconfig:"D2B_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"D2B_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"D2B_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"D2B_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"D2B_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either D2B_DB_DSN or host/user/name must be set")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"D2B_REDIS_URL"`
	Address      string        `envconfig:"D2B_REDIS_ADDR"`
	Password     string        `envconfig:"D2B_REDIS_PASSWORD"`
	DB           int           `envconfig:"D2B_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"D2B_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"D2B_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"D2B_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"D2B_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"D2B_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// GatewayConfig holds payment gateway verification settings. The service never
// calls the gateway; it only verifies gateway-issued signatures.
type GatewayConfig struct {
	WebhookSecret  string        `envconfig:"D2B_GATEWAY_WEBHOOK_SECRET" required:"true"`
	EventDedupeTTL time.Duration `envconfig:"D2B_GATEWAY_EVENT_DEDUPE_TTL" default:"720h"`
}

// CourierConfig holds the courier aggregator credentials and timeouts.
type CourierConfig struct {
	BaseURL     string        `envconfig:"D2B_COURIER_BASE_URL" required:"true"`
	Email       string        `envconfig:"D2B_COURIER_EMAIL" required:"true"`
	Password    string        `envconfig:"D2B_COURIER_PASSWORD" required:"true"`
	CallTimeout time.Duration `envconfig:"D2B_COURIER_CALL_TIMEOUT" default:"15s"`
}

// PaymentsConfig tunes the order materialization money split.
type PaymentsConfig struct {
	// AdvancePercent is the fraction of an item total collected up front.
	// 0 means the full item total is treated as paid at confirmation.
	AdvancePercent int `envconfig:"D2B_PAYMENTS_ADVANCE_PERCENT" default:"0"`
	// AllowPayloadRecovery permits materializing orders from a caller-supplied
	// cart payload when the payment attempt row is missing.
	AllowPayloadRecovery bool `envconfig:"D2B_PAYMENTS_ALLOW_PAYLOAD_RECOVERY" default:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"D2B_AUTO_MIGRATE" default:"false"`
}
