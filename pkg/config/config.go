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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
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
	Env          string `envconfig:"PLUGINBAZAAR_APP_ENV" required:"true"`
	Port         string `envconfig:"PLUGINBAZAAR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PLUGINBAZAAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PLUGINBAZAAR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PLUGINBAZAAR_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PLUGINBAZAAR_DB_DSN"`
	Driver string `envconfig:"PLUGINBAZAAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PLUGINBAZAAR_DB_HOST"`
	LegacyPort     int    `envconfig:"PLUGINBAZAAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PLUGINBAZAAR_DB_USER"`
	LegacyPassword string `envconfig:"PLUGINBAZAAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"PLUGINBAZAAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"PLUGINBAZAAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PLUGINBAZAAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PLUGINBAZAAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PLUGINBAZAAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PLUGINBAZAAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PLUGINBAZAAR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PLUGINBAZAAR_REDIS_ADDR"`
	Password     string        `envconfig:"PLUGINBAZAAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"PLUGINBAZAAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PLUGINBAZAAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PLUGINBAZAAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PLUGINBAZAAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PLUGINBAZAAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PLUGINBAZAAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PLUGINBAZAAR_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PLUGINBAZAAR_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"PLUGINBAZAAR_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PLUGINBAZAAR_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"PLUGINBAZAAR_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PLUGINBAZAAR_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"PLUGINBAZAAR_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"PLUGINBAZAAR_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	DomainTopic        string `envconfig:"PLUGINBAZAAR_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription string `envconfig:"PLUGINBAZAAR_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PLUGINBAZAAR_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PLUGINBAZAAR_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PLUGINBAZAAR_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"PLUGINBAZAAR_CRON_INTERVAL" default:"1m"`
	LockTTL  time.Duration `envconfig:"PLUGINBAZAAR_CRON_LOCK_TTL" default:"5m"`
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
