package constants

const (
	PARAMETER_PATH         = "/irtracker"
	API_URL                = "/irtracker/API_URL"
	DOCUMENT_BUCKET        = "/irtracker/DOCUMENT_BUCKET"
	ALLOWED_ORIGINS        = "/irtracker/ALLOWED_ORIGINS"
	REFERENCE_CACHE_TTL    = "/irtracker/REFERENCE_CACHE_TTL"
	SESSION_WINDOW         = "/irtracker/SESSION_WINDOW"
	DATABASE_RDS_PROXY_URL = "/irtracker/DATABASE_RDS_PROXY_URL"
	DATABASE_RDS_ENDPOINT  = "/irtracker/DATABASE_RDS_ENDPOINT"
	DATABASE_PORT          = "/irtracker/DATABASE_PORT"
	DATABASE_NAME          = "/irtracker/DATABASE_NAME"
	DATABASE_USERNAME      = "/irtracker/DATABASE_USERNAME"
	DATABASE_PASSWORD      = "/irtracker/DATABASE_PASSWORD"
	SSL_MODE               = "/irtracker/SSL_MODE"
	DRIVER_NAME            = "postgres"
	SQLITE_DRIVER_NAME     = "sqlite3"
)

// Console environment variables
const (
	ENV_API_URL       = "IRTRACKER_API_URL"
	ENV_SESSION_DB    = "IRTRACKER_SESSION_DB"
	ENV_POLL_INTERVAL = "IRTRACKER_POLL_INTERVAL"
	ENV_LOG_LEVEL     = "LOG_LEVEL"
	ENV_IS_LOCAL      = "IS_LOCAL"
)
