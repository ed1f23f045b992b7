package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Session       SessionConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Storage       StorageConfig
	Pesticides    PesticidesConfig
	Archive       ArchiveConfig
	Sendgrid      SendgridConfig
	Slack         SlackConfig
	Legal         LegalConfig
	GTM           GTMConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AGRIDIARY_APP_ENV" required:"true"`
	Port         string `envconfig:"AGRIDIARY_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"AGRIDIARY_APP_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"AGRIDIARY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGRIDIARY_LOG_WARN_STACK" default:"false"`
	// CORSOrigins lists the origins allowed to poll the health probes.
	CORSOrigins     []string      `envconfig:"AGRIDIARY_CORS_ORIGINS"`
	ReadTimeout     time.Duration `envconfig:"AGRIDIARY_HTTP_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"AGRIDIARY_HTTP_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"AGRIDIARY_HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// PublicURL joins the configured base URL with path, tolerating a trailing slash on the base.
func (a AppConfig) PublicURL(path string) string {
	return strings.TrimRight(a.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

type DBConfig struct {
	DSN    string `envconfig:"AGRIDIARY_DB_DSN"`
	Driver string `envconfig:"AGRIDIARY_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"AGRIDIARY_DB_HOST"`
	Port     int    `envconfig:"AGRIDIARY_DB_PORT" default:"5432"`
	User     string `envconfig:"AGRIDIARY_DB_USER"`
	Password string `envconfig:"AGRIDIARY_DB_PASSWORD"`
	Name     string `envconfig:"AGRIDIARY_DB_NAME"`
	SSLMode  string `envconfig:"AGRIDIARY_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"AGRIDIARY_DB_SQLITE_PATH" default:"file:agridiary.db?cache=shared"`

	MaxOpenConns    int           `envconfig:"AGRIDIARY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGRIDIARY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGRIDIARY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGRIDIARY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGRIDIARY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AGRIDIARY_REDIS_ADDR"`
	Password     string        `envconfig:"AGRIDIARY_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGRIDIARY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGRIDIARY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGRIDIARY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGRIDIARY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGRIDIARY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGRIDIARY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SessionConfig struct {
	Secret       string        `envconfig:"AGRIDIARY_SESSION_SECRET" required:"true"`
	Issuer       string        `envconfig:"AGRIDIARY_SESSION_ISSUER" default:"agridiary"`
	TTL          time.Duration `envconfig:"AGRIDIARY_SESSION_TTL" default:"168h"`
	CookieName   string        `envconfig:"AGRIDIARY_SESSION_COOKIE" default:"AGRIDIARY_SESSION"`
	CookieSecure bool          `envconfig:"AGRIDIARY_SESSION_COOKIE_SECURE" default:"false"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int           `envconfig:"AGRIDIARY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int           `envconfig:"AGRIDIARY_ARGON_TIME" default:"3"`
	ArgonParallelism int           `envconfig:"AGRIDIARY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int           `envconfig:"AGRIDIARY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int           `envconfig:"AGRIDIARY_ARGON_KEY_LEN" default:"32"`
	MinLength        int           `envconfig:"AGRIDIARY_PASSWORD_MIN_LENGTH" default:"6"`
	MinScore         int           `envconfig:"AGRIDIARY_PASSWORD_MIN_SCORE" default:"2"`
	ResetTokenTTL    time.Duration `envconfig:"AGRIDIARY_PASSWORD_RESET_TTL" default:"24h"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"AGRIDIARY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"AGRIDIARY_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"AGRIDIARY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AGRIDIARY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AGRIDIARY_AUTO_MIGRATE" default:"false"`
}

// StorageConfig bounds the worker pool every repository call runs on.
type StorageConfig struct {
	PoolSize int           `envconfig:"AGRIDIARY_STORAGE_POOL_SIZE" default:"16"`
	Timeout  time.Duration `envconfig:"AGRIDIARY_STORAGE_TIMEOUT" default:"5s"`
}

type PesticidesConfig struct {
	MaxUploadMB   int           `envconfig:"AGRIDIARY_PESTICIDES_MAX_UPLOAD_MB" default:"50"`
	MaxExtractMB  int           `envconfig:"AGRIDIARY_PESTICIDES_MAX_EXTRACT_MB" default:"512"`
	BatchSize     int           `envconfig:"AGRIDIARY_PESTICIDES_BATCH_SIZE" default:"500"`
	InsertTimeout time.Duration `envconfig:"AGRIDIARY_PESTICIDES_INSERT_TIMEOUT" default:"2m"`
}

// MaxExtractBytes caps the total decompressed size of one archive's CSV entries.
func (p PesticidesConfig) MaxExtractBytes() int64 {
	if p.MaxExtractMB <= 0 {
		return 512 << 20
	}
	return int64(p.MaxExtractMB) << 20
}

// MaxUploadBytes converts the configured upload cap into bytes.
func (p PesticidesConfig) MaxUploadBytes() int64 {
	if p.MaxUploadMB <= 0 {
		return 50 << 20
	}
	return int64(p.MaxUploadMB) << 20
}

type ArchiveConfig struct {
	Bucket        string `envconfig:"AGRIDIARY_ARCHIVE_BUCKET"`
	Region        string `envconfig:"AGRIDIARY_ARCHIVE_REGION" default:"ap-northeast-1"`
	Endpoint      string `envconfig:"AGRIDIARY_ARCHIVE_ENDPOINT"`
	PathStyle     bool   `envconfig:"AGRIDIARY_ARCHIVE_PATH_STYLE" default:"false"`
	Prefix        string `envconfig:"AGRIDIARY_ARCHIVE_PREFIX" default:"pesticides"`
	RetentionDays int    `envconfig:"AGRIDIARY_ARCHIVE_RETENTION_DAYS" default:"90"`
}

func (a ArchiveConfig) Enabled() bool {
	return strings.TrimSpace(a.Bucket) != ""
}

type SendgridConfig struct {
	APIKey    string `envconfig:"AGRIDIARY_SENDGRID_API_KEY"`
	FromEmail string `envconfig:"AGRIDIARY_SENDGRID_FROM_EMAIL" default:"noreply@agridiary.local"`
	FromName  string `envconfig:"AGRIDIARY_SENDGRID_FROM_NAME" default:"Open Agriculture Diary"`
}

type SlackConfig struct {
	WebhookURL string `envconfig:"AGRIDIARY_SLACK_WEBHOOK_URL"`
}

type LegalConfig struct {
	TermsURL   string `envconfig:"AGRIDIARY_TERMS_URL"`
	PrivacyURL string `envconfig:"AGRIDIARY_PRIVACY_URL"`
}

type GTMConfig struct {
	ContainerID string `envconfig:"AGRIDIARY_GTM_CONTAINER_ID"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"AGRIDIARY_CRON_INTERVAL" default:"1h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	discreteValues := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if discreteValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
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
