package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Pricing      PricingConfig
	Square       SquareConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"STORELANE_APP_ENV" required:"true"`
	Port         string `envconfig:"STORELANE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STORELANE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STORELANE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STORELANE_DB_DSN"`
	Driver string `envconfig:"STORELANE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STORELANE_DB_HOST"`
	LegacyPort     int    `envconfig:"STORELANE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STORELANE_DB_USER"`
	LegacyPassword string `envconfig:"STORELANE_DB_PASSWORD"`
	LegacyName     string `envconfig:"STORELANE_DB_NAME"`
	LegacySSLMode  string `envconfig:"STORELANE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STORELANE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STORELANE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STORELANE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STORELANE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STORELANE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STORELANE_REDIS_ADDR"`
	Password     string        `envconfig:"STORELANE_REDIS_PASSWORD"`
	DB           int           `envconfig:"STORELANE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STORELANE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STORELANE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STORELANE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STORELANE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STORELANE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"STORELANE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"STORELANE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"STORELANE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"STORELANE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STORELANE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STORELANE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STORELANE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STORELANE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STORELANE_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STORELANE_AUTO_MIGRATE" default:"false"`
}

// PricingConfig drives the tax and shipping policy applied at order creation.
type PricingConfig struct {
	TaxRate               decimal.Decimal `envconfig:"STORELANE_PRICING_TAX_RATE" default:"0.15"`
	FreeShippingThreshold decimal.Decimal `envconfig:"STORELANE_PRICING_FREE_SHIPPING_THRESHOLD" default:"200"`
	FlatShippingRate      decimal.Decimal `envconfig:"STORELANE_PRICING_FLAT_SHIPPING_RATE" default:"15"`
}

type SquareConfig struct {
	AccessToken string        `envconfig:"STORELANE_SQUARE_ACCESS_TOKEN"`
	Env         string        `envconfig:"STORELANE_SQUARE_ENV" default:"sandbox"`
	LocationID  string        `envconfig:"STORELANE_SQUARE_LOCATION_ID"`
	Timeout     time.Duration `envconfig:"STORELANE_SQUARE_TIMEOUT" default:"10s"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STORELANE_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"STORELANE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"STORELANE_PUBSUB_ORDERS_TOPIC" default:"sl-order-events"`
	OrdersSubscription string `envconfig:"STORELANE_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STORELANE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STORELANE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STORELANE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
