package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "VERDECOOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "VERDECOOP_DB_DSN"
	EnvDBHost = "VERDECOOP_DB_HOST"
	EnvDBUser = "VERDECOOP_DB_USER"
	EnvDBName = "VERDECOOP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Wallet       WalletConfig
	Trading      TradingConfig
	Coop         CoopConfig
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
	Env          string `envconfig:"VERDECOOP_APP_ENV" required:"true"`
	Port         string `envconfig:"VERDECOOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VERDECOOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VERDECOOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VERDECOOP_DB_DSN"`
	Driver string `envconfig:"VERDECOOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VERDECOOP_DB_HOST"`
	LegacyPort     int    `envconfig:"VERDECOOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VERDECOOP_DB_USER"`
	LegacyPassword string `envconfig:"VERDECOOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"VERDECOOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"VERDECOOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VERDECOOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VERDECOOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VERDECOOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VERDECOOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VERDECOOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VERDECOOP_REDIS_ADDR"`
	Password     string        `envconfig:"VERDECOOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"VERDECOOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VERDECOOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VERDECOOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VERDECOOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VERDECOOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VERDECOOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// WalletConfig tunes the read-through balance projection. The ledger store is
// the source of truth; cached balances only live until the next core write.
type WalletConfig struct {
	BalanceCacheTTL time.Duration `envconfig:"VERDECOOP_WALLET_BALANCE_CACHE_TTL" default:"5m"`
}

type TradingConfig struct {
	// Certificate minting retries a serial-unique-constraint conflict this many
	// times before surfacing SERIAL_EXHAUSTED.
	MaxMintRetries int `envconfig:"VERDECOOP_TRADING_MAX_MINT_RETRIES" default:"3"`

	CertificateCountry  string `envconfig:"VERDECOOP_CERT_COUNTRY" default:"BR"`
	CertificateStandard string `envconfig:"VERDECOOP_CERT_STANDARD" default:"VCS"`
}

type CoopConfig struct {
	// Commission seeded when migrations create the pool row; runtime sales
	// always read the persisted pool.
	DefaultCommissionPercent float64 `envconfig:"VERDECOOP_COOP_DEFAULT_COMMISSION_PERCENT" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VERDECOOP_AUTO_MIGRATE" default:"false"`
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
