package util

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/denisenkom/go-mssqldb"

	"github.com/xtraq/xtraq/internal/logger"
	"github.com/xtraq/xtraq/internal/xerrors"
)

// ConnectionConfig holds SQL Server connection parameters.
type ConnectionConfig struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	ApplicationName string

	// MaxOpenRetries and RetryDelayMs bound the reconnect loop in Connect,
	// per spec §4.1/§7 ("transient failures are retried up to
	// maxOpenRetries with retryDelayMs spacing").
	MaxOpenRetries int
	RetryDelayMs   int
}

// buildDSN constructs a sqlserver:// connection string from config,
// matching the DSN shape github.com/denisenkom/go-mssqldb expects.
func buildDSN(config *ConnectionConfig) string {
	query := url.Values{}
	query.Set("database", config.Database)
	if config.ApplicationName != "" {
		query.Set("app name", config.ApplicationName)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(config.User, config.Password),
		Host:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// Connect opens a SQL Server connection, retrying a failed open up to
// config.MaxOpenRetries times spaced config.RetryDelayMs apart. The retry
// loop is a small bounded reconnect-sleep-repeat, not a generic backoff
// library, since the policy is intentionally dumb per spec §7.2 — logical
// query errors are never retried, only connection-open failures.
func Connect(ctx context.Context, config *ConnectionConfig) (*sql.DB, error) {
	log := logger.Get()
	dsn := buildDSN(config)

	log.Debug("connecting to sql server",
		"host", config.Host,
		"port", config.Port,
		"database", config.Database,
		"application_name", config.ApplicationName,
	)

	var lastErr error
	attempts := config.MaxOpenRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		conn, err := sql.Open("sqlserver", dsn)
		if err != nil {
			lastErr = err
		} else if pingErr := conn.PingContext(ctx); pingErr != nil {
			lastErr = pingErr
			conn.Close()
		} else {
			log.Debug("sql server connection established", "attempt", attempt+1)
			return conn, nil
		}

		log.Debug("sql server connection attempt failed", "attempt", attempt+1, "error", lastErr)

		if attempt < attempts-1 && config.RetryDelayMs > 0 {
			select {
			case <-time.After(time.Duration(config.RetryDelayMs) * time.Millisecond):
			case <-ctx.Done():
				return nil, xerrors.Database("mssql.connect", ctx.Err())
			}
		}
	}

	return nil, xerrors.Database("mssql.connect", lastErr)
}
