package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "DFRESH"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "DFRESH_APP_ENV"
	EnvPort       = "DFRESH_APP_PORT"
	EnvDBDSN      = "DFRESH_DB_DSN"
	EnvDBHost     = "DFRESH_DB_HOST"
	EnvDBUser     = "DFRESH_DB_USER"
	EnvDBName     = "DFRESH_DB_NAME"
	EnvRedisURL   = "DFRESH_REDIS_URL"
	EnvJWTSecret  = "DFRESH_JWT_SECRET"
	EnvJWTIssuer  = "DFRESH_JWT_ISSUER"
	EnvJWTExpMins = "DFRESH_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
