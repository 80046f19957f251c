package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "FASHIONSHOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "FASHIONSHOP_APP_ENV"
	EnvPort     = "FASHIONSHOP_APP_PORT"
	EnvDBDSN    = "FASHIONSHOP_DB_DSN"
	EnvDBHost   = "FASHIONSHOP_DB_HOST"
	EnvDBUser   = "FASHIONSHOP_DB_USER"
	EnvDBName   = "FASHIONSHOP_DB_NAME"
	EnvRedisURL = "FASHIONSHOP_REDIS_URL"

	EnvJWTSecret  = "FASHIONSHOP_JWT_SECRET"
	EnvJWTIssuer  = "FASHIONSHOP_JWT_ISSUER"
	EnvJWTExpMins = "FASHIONSHOP_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "FASHIONSHOP_GCP_PROJECT_ID"

	EnvPubSubOrdersTopic       = "FASHIONSHOP_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub         = "FASHIONSHOP_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvPubSubNotificationTopic = "FASHIONSHOP_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "FASHIONSHOP_PUBSUB_NOTIFICATION_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Orders       OrdersConfig
	Outbox       OutboxConfig
	Eventing     EventingConfig
	PubSub       PubSubConfig
	GCP          GCPConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
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
	Env          string `envconfig:"FASHIONSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"FASHIONSHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FASHIONSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FASHIONSHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FASHIONSHOP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FASHIONSHOP_DB_DSN"`
	Driver string `envconfig:"FASHIONSHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FASHIONSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"FASHIONSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FASHIONSHOP_DB_USER"`
	LegacyPassword string `envconfig:"FASHIONSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"FASHIONSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"FASHIONSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FASHIONSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FASHIONSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FASHIONSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FASHIONSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FASHIONSHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FASHIONSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"FASHIONSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"FASHIONSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FASHIONSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FASHIONSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FASHIONSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FASHIONSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FASHIONSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FASHIONSHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FASHIONSHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FASHIONSHOP_JWT_EXPIRATION_MINUTES" required:"true"`
}

// AccessTokenTTL returns the access token TTL configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// OrdersConfig carries the pricing and numbering rules for order creation.
type OrdersConfig struct {
	CodePrefix            string        `envconfig:"FASHIONSHOP_ORDERS_CODE_PREFIX" default:"FSH"`
	ShippingFee           int64         `envconfig:"FASHIONSHOP_ORDERS_SHIPPING_FEE" default:"30000"`
	FreeShippingThreshold int64         `envconfig:"FASHIONSHOP_ORDERS_FREE_SHIPPING_THRESHOLD" default:"500000"`
	PendingTTL            time.Duration `envconfig:"FASHIONSHOP_ORDERS_PENDING_TTL" default:"72h"`
	CodeMaxRetries        int           `envconfig:"FASHIONSHOP_ORDERS_CODE_MAX_RETRIES" default:"3"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FASHIONSHOP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FASHIONSHOP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FASHIONSHOP_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"FASHIONSHOP_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"FASHIONSHOP_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription       string `envconfig:"FASHIONSHOP_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"FASHIONSHOP_PUBSUB_NOTIFICATION_TOPIC" default:"fs-notification-events"`
	NotificationSubscription string `envconfig:"FASHIONSHOP_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FASHIONSHOP_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"FASHIONSHOP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FASHIONSHOP_GOOGLE_APPLICATION_CREDENTIALS"`
}

type CronConfig struct {
	OrderExpiryInterval time.Duration `envconfig:"FASHIONSHOP_CRON_ORDER_EXPIRY_INTERVAL" default:"10m"`
	OrderExpiryBatch    int           `envconfig:"FASHIONSHOP_CRON_ORDER_EXPIRY_BATCH" default:"100"`
}

// RateLimitConfig throttles write-heavy endpoints. Zero limits disable the
// corresponding scope.
type RateLimitConfig struct {
	CheckoutWindow    time.Duration `envconfig:"FASHIONSHOP_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutIPLimit   int           `envconfig:"FASHIONSHOP_RATE_LIMIT_CHECKOUT_IP_LIMIT" default:"30"`
	CheckoutUserLimit int           `envconfig:"FASHIONSHOP_RATE_LIMIT_CHECKOUT_USER_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FASHIONSHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FASHIONSHOP_AUTO_MIGRATE" default:"false"`
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
