package mssql

import (
	"context"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

type userDefinedTypeRow struct {
	Schema      string `db:"schema_name"`
	Name        string `db:"name"`
	BaseSqlType string `db:"base_sql_type"`
	MaxLength   int    `db:"max_length"`
	Precision   int    `db:"precision"`
	Scale       int    `db:"scale"`
	IsNullable  bool   `db:"is_nullable"`
}

// ListUserDefinedTypes returns every scalar alias type (CREATE TYPE ... FROM
// ...) visible in schemas, feeding the type resolver's user-defined-type
// metadata callback and the userDefinedTypes snapshot artifact family.
func (c *Client) ListUserDefinedTypes(ctx context.Context, schemas []string) ([]schemamodel.UserDefinedTypeInfo, error) {
	query := `SELECT
			s.name AS schema_name,
			t.name AS name,
			bt.name AS base_sql_type,
			t.max_length AS max_length,
			t.precision AS precision,
			t.scale AS scale,
			t.is_nullable AS is_nullable
		FROM sys.types t
		JOIN sys.schemas s ON t.schema_id = s.schema_id
		JOIN sys.types bt ON t.system_type_id = bt.user_type_id AND bt.is_user_defined = 0
		WHERE t.is_user_defined = 1 AND t.is_table_type = 0`

	var args []interface{}
	if len(schemas) > 0 {
		withIn, inArgs, err := sqlxIn(query+` AND s.name IN (?) ORDER BY s.name, t.name`, schemas)
		if err != nil {
			return nil, err
		}
		query = c.db.Rebind(withIn)
		args = inArgs
	} else {
		query += ` ORDER BY s.name, t.name`
	}

	var rows []userDefinedTypeRow
	if err := c.query(ctx, "mssql.listUserDefinedTypes", &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]schemamodel.UserDefinedTypeInfo, 0, len(rows))
	for _, r := range rows {
		info := schemamodel.UserDefinedTypeInfo{
			Schema:      r.Schema,
			Name:        r.Name,
			BaseSqlType: r.BaseSqlType,
		}
		if requiresPrecision(r.BaseSqlType) {
			precision, scale := r.Precision, r.Scale
			info.Precision = &precision
			info.Scale = &scale
		}
		maxLen := normalizeMaxLength(r.BaseSqlType, r.MaxLength)
		if maxLen != 0 {
			info.MaxLength = &maxLen
		}
		isNullable := r.IsNullable
		info.IsNullable = &isNullable
		out = append(out, info)
	}
	return out, nil
}
