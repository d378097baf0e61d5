package config

// EnvPrefix is passed to envconfig; field tags carry the full variable names.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Env variable names shared between Load, tests, and ops tooling.
const (
	EnvAppEnv   = "PLUGINBAZAAR_APP_ENV"
	EnvPort     = "PLUGINBAZAAR_APP_PORT"
	EnvLogLevel = "PLUGINBAZAAR_LOG_LEVEL"

	EnvDBDSN      = "PLUGINBAZAAR_DB_DSN"
	EnvDBHost     = "PLUGINBAZAAR_DB_HOST"
	EnvDBPort     = "PLUGINBAZAAR_DB_PORT"
	EnvDBUser     = "PLUGINBAZAAR_DB_USER"
	EnvDBPassword = "PLUGINBAZAAR_DB_PASSWORD"
	EnvDBName     = "PLUGINBAZAAR_DB_NAME"

	EnvRedisURL = "PLUGINBAZAAR_REDIS_URL"

	EnvGCPProjectID = "PLUGINBAZAAR_GCP_PROJECT_ID"

	EnvPubSubOrdersTopic = "PLUGINBAZAAR_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub   = "PLUGINBAZAAR_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvPubSubDomainTopic = "PLUGINBAZAAR_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub   = "PLUGINBAZAAR_PUBSUB_DOMAIN_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
