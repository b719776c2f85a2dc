package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Cart     CartConfig
	Features FeatureFlags
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
	Env          string `envconfig:"DFRESH_APP_ENV" required:"true"`
	Port         string `envconfig:"DFRESH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DFRESH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DFRESH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DFRESH_DB_DSN"`
	Driver string `envconfig:"DFRESH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DFRESH_DB_HOST"`
	LegacyPort     int    `envconfig:"DFRESH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DFRESH_DB_USER"`
	LegacyPassword string `envconfig:"DFRESH_DB_PASSWORD"`
	LegacyName     string `envconfig:"DFRESH_DB_NAME"`
	LegacySSLMode  string `envconfig:"DFRESH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DFRESH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DFRESH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DFRESH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DFRESH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DFRESH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DFRESH_REDIS_ADDR"`
	Password     string        `envconfig:"DFRESH_REDIS_PASSWORD"`
	DB           int           `envconfig:"DFRESH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DFRESH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DFRESH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DFRESH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DFRESH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DFRESH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DFRESH_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DFRESH_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DFRESH_JWT_EXPIRATION_MINUTES" required:"true"`
}

type CartConfig struct {
	// RecordTTL is refreshed on every cart write; zero disables expiry.
	RecordTTL time.Duration `envconfig:"DFRESH_CART_RECORD_TTL" default:"720h"`
}

type FeatureFlags struct {
	AutoMigrate bool `envconfig:"DFRESH_AUTO_MIGRATE" default:"false"`
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
