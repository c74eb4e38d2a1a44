package mssql

import (
	"github.com/jmoiron/sqlx"

	"github.com/xtraq/xtraq/internal/xerrors"
)

// sqlxIn wraps sqlx.In, translating its error into the package's standard
// DatabaseError wrapping so every query-building call site handles errors
// uniformly.
func sqlxIn(query string, args ...interface{}) (string, []interface{}, error) {
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, xerrors.Database("mssql.expandIn", err)
	}
	return expanded, expandedArgs, nil
}
