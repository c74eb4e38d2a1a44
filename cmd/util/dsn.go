package util

import (
	"strconv"
	"strings"

	"github.com/xtraq/xtraq/internal/xerrors"
)

// ParseConnectionString reads an ADO.NET-style SQL Server connection string
// ("Server=host,port;Database=db;User Id=user;Password=pass;") into a
// ConnectionConfig. This is the format spec.md's `GeneratorConnectionString`
// config key documents, and the shape every SQL Server client library
// (including the one driving internal/mssql) accepts as its canonical
// connection string form.
func ParseConnectionString(raw string) (*ConnectionConfig, error) {
	cfg := &ConnectionConfig{Port: 1433}

	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		value := strings.TrimSpace(kv[1])

		switch key {
		case "server", "data source", "addr", "address", "network address":
			host, port := splitHostPort(value)
			cfg.Host = host
			if port > 0 {
				cfg.Port = port
			}
		case "database", "initial catalog":
			cfg.Database = value
		case "user id", "uid", "user":
			cfg.User = value
		case "password", "pwd":
			cfg.Password = value
		case "app name", "application name":
			cfg.ApplicationName = value
		}
	}

	if cfg.Host == "" {
		return nil, xerrors.Config("util.parseConnectionString", errMissingServer)
	}
	if cfg.Database == "" {
		return nil, xerrors.Config("util.parseConnectionString", errMissingDatabase)
	}
	return cfg, nil
}

func splitHostPort(value string) (string, int) {
	sep := ","
	if strings.Contains(value, ":") && !strings.Contains(value, ",") {
		sep = ":"
	}
	parts := strings.SplitN(value, sep, 2)
	if len(parts) == 1 {
		return parts[0], 0
	}
	port, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return parts[0], 0
	}
	return parts[0], port
}

type dsnError string

func (e dsnError) Error() string { return string(e) }

const (
	errMissingServer   = dsnError("connection string is missing Server=")
	errMissingDatabase = dsnError("connection string is missing Database=")
)
