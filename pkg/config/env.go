package config

// EnvPrefix is consumed by envconfig; each field carries its full variable
// name so the prefix only matters for error reporting.
const EnvPrefix = "MASSANOSTRA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "MASSANOSTRA_APP_ENV"

	EnvDBDSN  = "MASSANOSTRA_DB_DSN"
	EnvDBHost = "MASSANOSTRA_DB_HOST"
	EnvDBUser = "MASSANOSTRA_DB_USER"
	EnvDBName = "MASSANOSTRA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const (
	EnvPort     = "MASSANOSTRA_APP_PORT"
	EnvRedisURL = "MASSANOSTRA_REDIS_URL"
)
