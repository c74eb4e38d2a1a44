package mssql

import (
	"context"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

type describedColumnRow struct {
	Name       string `db:"name"`
	SqlType    string `db:"system_type_name"`
	IsNullable bool   `db:"is_nullable"`
	MaxLength  int    `db:"max_length"`
}

// DescribeFirstResultSet asks sys.dm_exec_describe_first_result_set to
// shape an arbitrary SQL statement's first result set — the fallback the
// analyzer uses for views and other system objects it cannot statically
// resolve a projection for.
func (c *Client) DescribeFirstResultSet(ctx context.Context, sqlStatement string) ([]schemamodel.Column, error) {
	const query = `SELECT
			name,
			system_type_name,
			is_nullable,
			max_length
		FROM sys.dm_exec_describe_first_result_set(@p1, NULL, 0)
		ORDER BY column_ordinal`

	var rows []describedColumnRow
	if err := c.query(ctx, "mssql.describeFirstResultSet", &rows, query, sqlStatement); err != nil {
		return nil, err
	}

	out := make([]schemamodel.Column, 0, len(rows))
	for _, r := range rows {
		baseType, maxLen := splitSystemTypeName(r.SqlType, r.MaxLength)
		out = append(out, schemamodel.Column{
			Name:         r.Name,
			PropertyName: r.Name,
			SqlTypeName:  baseType,
			IsNullable:   r.IsNullable,
			MaxLength:    maxLen,
		})
	}
	return out, nil
}

// splitSystemTypeName extracts the base type name from
// system_type_name's "varchar(50)"-shaped value; the length suffix is
// ignored in favor of the already byte-oriented max_length column.
func splitSystemTypeName(systemTypeName string, maxLength int) (string, int) {
	for i, r := range systemTypeName {
		if r == '(' {
			return systemTypeName[:i], normalizeMaxLength(systemTypeName[:i], maxLength)
		}
	}
	return systemTypeName, normalizeMaxLength(systemTypeName, maxLength)
}
