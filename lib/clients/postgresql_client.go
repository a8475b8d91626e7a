package clients

import (
	"database/sql"
	"fmt"

	"irtracker/lib/constants"

	_ "github.com/lib/pq"
)

// NewPostgresSQLClient opens the session database with connection pooling sized for Lambda
func NewPostgresSQLClient(host, port, dbname, user, password, sslMode string) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslMode,
	)

	db, err := sql.Open(constants.DRIVER_NAME, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// PostgresParams reads the connection settings from SSM parameters, preferring the RDS proxy
func PostgresParams(params map[string]string) (host, port, dbname, user, password, sslMode string) {
	host = params[constants.DATABASE_RDS_PROXY_URL]
	if host == "" {
		host = params[constants.DATABASE_RDS_ENDPOINT]
	}
	sslMode = params[constants.SSL_MODE]
	if sslMode == "" {
		sslMode = "require"
	}
	return host,
		params[constants.DATABASE_PORT],
		params[constants.DATABASE_NAME],
		params[constants.DATABASE_USERNAME],
		params[constants.DATABASE_PASSWORD],
		sslMode
}
