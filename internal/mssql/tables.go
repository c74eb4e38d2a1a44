package mssql

import (
	"context"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

// TableRef is one base table or view's identity, without its columns —
// enough for the snapshot writer's candidate list before filtering to
// referenced-only.
type TableRef struct {
	Schema string
	Name   string
}

type tableRefRow struct {
	Schema string `db:"schema_name"`
	Name   string `db:"name"`
}

// ListTables returns every base table and view visible in schemas (or every
// schema when schemas is empty), feeding the snapshot writer's table
// candidate list.
func (c *Client) ListTables(ctx context.Context, schemas []string) ([]TableRef, error) {
	query := `SELECT s.name AS schema_name, o.name AS name
		FROM sys.objects o
		JOIN sys.schemas s ON o.schema_id = s.schema_id
		WHERE o.type IN ('U', 'V')`

	var args []interface{}
	if len(schemas) > 0 {
		withIn, inArgs, err := sqlxIn(query+` AND s.name IN (?) ORDER BY s.name, o.name`, schemas)
		if err != nil {
			return nil, err
		}
		query = c.db.Rebind(withIn)
		args = inArgs
	} else {
		query += ` ORDER BY s.name, o.name`
	}

	var rows []tableRefRow
	if err := c.query(ctx, "mssql.listTables", &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]TableRef, 0, len(rows))
	for _, r := range rows {
		out = append(out, TableRef{Schema: r.Schema, Name: r.Name})
	}
	return out, nil
}

type tableColumnRow struct {
	Name       string `db:"name"`
	SqlType    string `db:"sql_type"`
	IsNullable bool   `db:"is_nullable"`
	MaxLength  int    `db:"max_length"`
	Precision  int    `db:"precision"`
	Scale      int    `db:"scale"`
}

// ListTableColumns returns the columns of a base table or view, ordinal
// ordered, for the JSON enricher's table-metadata resolver callback.
func (c *Client) ListTableColumns(ctx context.Context, schema, table string) ([]schemamodel.Column, error) {
	const query = `SELECT
			c.name AS name,
			t.name AS sql_type,
			c.is_nullable AS is_nullable,
			c.max_length AS max_length,
			c.precision AS precision,
			c.scale AS scale
		FROM sys.columns c
		JOIN sys.objects o ON c.object_id = o.object_id
		JOIN sys.schemas s ON o.schema_id = s.schema_id
		JOIN sys.types t ON c.user_type_id = t.user_type_id
		WHERE s.name = @p1 AND o.name = @p2
		ORDER BY c.column_id`

	var rows []tableColumnRow
	if err := c.query(ctx, "mssql.listTableColumns", &rows, query, schema, table); err != nil {
		return nil, err
	}

	out := make([]schemamodel.Column, 0, len(rows))
	for _, r := range rows {
		col := schemamodel.Column{
			Name:         r.Name,
			PropertyName: r.Name,
			SqlTypeName:  r.SqlType,
			IsNullable:   r.IsNullable,
			MaxLength:    normalizeMaxLength(r.SqlType, r.MaxLength),
			SourceSchema: schema,
			SourceTable:  table,
			SourceColumn: r.Name,
		}
		if requiresPrecision(r.SqlType) && r.Precision > 0 {
			precision := r.Precision
			col.Precision = &precision
			scale := r.Scale
			col.Scale = &scale
		}
		out = append(out, col)
	}
	return out, nil
}

// requiresPrecision reports whether sqlType is a type class where
// Precision/Scale are meaningful, per spec §3's type-normalization
// invariant (decimal/numeric and the time-valued types).
func requiresPrecision(sqlType string) bool {
	switch sqlType {
	case "decimal", "numeric", "datetime2", "datetimeoffset", "time":
		return true
	default:
		return false
	}
}
