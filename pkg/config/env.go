package config

const (
	EnvPrefix = "AGRIDIARY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv  = "AGRIDIARY_APP_ENV"
	EnvPort    = "AGRIDIARY_APP_PORT"
	EnvBaseURL = "AGRIDIARY_APP_BASE_URL"

	EnvDBDSN  = "AGRIDIARY_DB_DSN"
	EnvDBHost = "AGRIDIARY_DB_HOST"
	EnvDBPort = "AGRIDIARY_DB_PORT"
	EnvDBUser = "AGRIDIARY_DB_USER"
	EnvDBPass = "AGRIDIARY_DB_PASSWORD"
	EnvDBName = "AGRIDIARY_DB_NAME"

	EnvRedisURL = "AGRIDIARY_REDIS_URL"

	EnvSessionSecret = "AGRIDIARY_SESSION_SECRET"
	EnvSessionTTL    = "AGRIDIARY_SESSION_TTL"

	EnvUseSQLite = "AGRIDIARY_USE_SQLITE"

	EnvStorageTimeout = "AGRIDIARY_STORAGE_TIMEOUT"
	EnvArchiveBucket  = "AGRIDIARY_ARCHIVE_BUCKET"
	EnvSlackWebhook   = "AGRIDIARY_SLACK_WEBHOOK_URL"
	EnvTermsURL       = "AGRIDIARY_TERMS_URL"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
