package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Pix          PixConfig
	Email        EmailConfig
	Orders       OrdersConfig
	TokenLimit   TokenLimitConfig
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
	Env          string `envconfig:"MASSANOSTRA_APP_ENV" required:"true"`
	Port         string `envconfig:"MASSANOSTRA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MASSANOSTRA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MASSANOSTRA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MASSANOSTRA_DB_DSN"`
	Driver string `envconfig:"MASSANOSTRA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MASSANOSTRA_DB_HOST"`
	LegacyPort     int    `envconfig:"MASSANOSTRA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MASSANOSTRA_DB_USER"`
	LegacyPassword string `envconfig:"MASSANOSTRA_DB_PASSWORD"`
	LegacyName     string `envconfig:"MASSANOSTRA_DB_NAME"`
	LegacySSLMode  string `envconfig:"MASSANOSTRA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MASSANOSTRA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MASSANOSTRA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MASSANOSTRA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MASSANOSTRA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MASSANOSTRA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MASSANOSTRA_REDIS_ADDR"`
	Password     string        `envconfig:"MASSANOSTRA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MASSANOSTRA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MASSANOSTRA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MASSANOSTRA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MASSANOSTRA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MASSANOSTRA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MASSANOSTRA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PixConfig drives the PIX payment gateway client. When AccessToken is empty
// the client runs in offline mode and mints deterministic local charges, which
// keeps development and CI working without provider credentials.
type PixConfig struct {
	BaseURL        string        `envconfig:"MASSANOSTRA_PIX_BASE_URL" default:"https://api.mercadopago.com"`
	AccessToken    string        `envconfig:"MASSANOSTRA_PIX_ACCESS_TOKEN"`
	WebhookSecret  string        `envconfig:"MASSANOSTRA_PIX_WEBHOOK_SECRET"`
	Timeout        time.Duration `envconfig:"MASSANOSTRA_PIX_TIMEOUT" default:"5s"`
	ExpiryMinutes  int           `envconfig:"MASSANOSTRA_PIX_EXPIRY_MINUTES" default:"30"`
	ReceiverKey    string        `envconfig:"MASSANOSTRA_PIX_RECEIVER_KEY" default:"pagamentos@massanostra.com.br"`
	MerchantName   string        `envconfig:"MASSANOSTRA_PIX_MERCHANT_NAME" default:"MASSA NOSTRA PIZZERIA"`
	MerchantCity   string        `envconfig:"MASSANOSTRA_PIX_MERCHANT_CITY" default:"SAO PAULO"`
	NotificationURL string       `envconfig:"MASSANOSTRA_PIX_NOTIFICATION_URL"`
}

// Offline reports whether the gateway should fabricate charges locally
// instead of calling the provider.
func (p PixConfig) Offline() bool {
	return strings.TrimSpace(p.AccessToken) == ""
}

type EmailConfig struct {
	Enabled     bool   `envconfig:"MASSANOSTRA_EMAIL_ENABLED" default:"false"`
	DefaultFrom string `envconfig:"MASSANOSTRA_EMAIL_FROM" default:"pedidos@massanostra.com.br"`
	AdminTo     string `envconfig:"MASSANOSTRA_EMAIL_ADMIN_TO"`
}

type OrdersConfig struct {
	DeliveryFee          string `envconfig:"MASSANOSTRA_ORDERS_DELIVERY_FEE" default:"5.00"`
	EstimatedTimeMinutes int    `envconfig:"MASSANOSTRA_ORDERS_ESTIMATED_TIME_MINUTES" default:"45"`
}

type TokenLimitConfig struct {
	Window   time.Duration `envconfig:"MASSANOSTRA_TOKEN_LIMIT_WINDOW" default:"1m"`
	Attempts int           `envconfig:"MASSANOSTRA_TOKEN_LIMIT_ATTEMPTS" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MASSANOSTRA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MASSANOSTRA_AUTO_MIGRATE" default:"false"`
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
