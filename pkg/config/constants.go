package config

// EnvPrefix is the envconfig prefix shared by every section.
const EnvPrefix = "STORELANE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "STORELANE_DB_DSN"
	EnvDBHost = "STORELANE_DB_HOST"
	EnvDBUser = "STORELANE_DB_USER"
	EnvDBName = "STORELANE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
