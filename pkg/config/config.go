package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "SALESAPI"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv   = "SALESAPI_APP_ENV"
	EnvPort     = "SALESAPI_APP_PORT"
	EnvDBDSN    = "SALESAPI_DB_DSN"
	EnvDBHost   = "SALESAPI_DB_HOST"
	EnvDBUser   = "SALESAPI_DB_USER"
	EnvDBName   = "SALESAPI_DB_NAME"
	EnvRedisURL = "SALESAPI_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	ETL          ETLConfig
	Cron         CronConfig
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
	Env          string `envconfig:"SALESAPI_APP_ENV" required:"true"`
	Port         string `envconfig:"SALESAPI_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SALESAPI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SALESAPI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SALESAPI_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SALESAPI_DB_DSN"`
	Driver string `envconfig:"SALESAPI_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SALESAPI_DB_HOST"`
	LegacyPort     int    `envconfig:"SALESAPI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SALESAPI_DB_USER"`
	LegacyPassword string `envconfig:"SALESAPI_DB_PASSWORD"`
	LegacyName     string `envconfig:"SALESAPI_DB_NAME"`
	LegacySSLMode  string `envconfig:"SALESAPI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SALESAPI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SALESAPI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SALESAPI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SALESAPI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was selected (dev/test installs).
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"SALESAPI_REDIS_URL"`
	Address      string        `envconfig:"SALESAPI_REDIS_ADDR"`
	Password     string        `envconfig:"SALESAPI_REDIS_PASSWORD"`
	DB           int           `envconfig:"SALESAPI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SALESAPI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SALESAPI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SALESAPI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SALESAPI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SALESAPI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type ETLConfig struct {
	SourceDSN string `envconfig:"SALESAPI_ETL_SOURCE_DSN"`
	// APIIDFloor separates API-created sales from seeded rows: business ids
	// below the floor are replaced on each ETL run, ids at or above it are kept.
	APIIDFloor int64 `envconfig:"SALESAPI_ETL_API_ID_FLOOR" default:"1000"`
	BatchSize  int   `envconfig:"SALESAPI_ETL_BATCH_SIZE" default:"500"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"SALESAPI_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"SALESAPI_CRON_LOCK_TTL" default:"25h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SALESAPI_AUTO_MIGRATE" default:"false"`
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
