package mssql

import (
	"context"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

type tableTypeRow struct {
	Schema string `db:"schema_name"`
	Name   string `db:"name"`
	TypeID int    `db:"user_type_id"`
}

// ListTableTypes returns every user-defined table type visible in schemas
// (or every schema when schemas is empty). The TypeID each row carries is
// passed to ListTableTypeColumns to fetch its column shape.
func (c *Client) ListTableTypes(ctx context.Context, schemas []string) ([]schemamodel.TableTypeInfo, error) {
	query := `SELECT s.name AS schema_name, tt.name AS name, tt.user_type_id AS user_type_id
		FROM sys.table_types tt
		JOIN sys.schemas s ON tt.schema_id = s.schema_id`

	var args []interface{}
	if len(schemas) > 0 {
		withIn, inArgs, err := sqlxIn(query+` WHERE s.name IN (?) ORDER BY s.name, tt.name`, schemas)
		if err != nil {
			return nil, err
		}
		query = c.db.Rebind(withIn)
		args = inArgs
	} else {
		query += ` ORDER BY s.name, tt.name`
	}

	var rows []tableTypeRow
	if err := c.query(ctx, "mssql.listTableTypes", &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]schemamodel.TableTypeInfo, 0, len(rows))
	for _, r := range rows {
		cols, err := c.ListTableTypeColumns(ctx, r.TypeID)
		if err != nil {
			return nil, err
		}
		out = append(out, schemamodel.TableTypeInfo{
			Schema:  r.Schema,
			Name:    r.Name,
			Columns: cols,
		})
	}
	return out, nil
}

type tableTypeColumnRow struct {
	Name       string `db:"name"`
	SqlType    string `db:"sql_type"`
	IsNullable bool   `db:"is_nullable"`
	MaxLength  int    `db:"max_length"`
}

// ListTableTypeColumns returns the ordinal-ordered columns of a table type
// identified by its sys.types.user_type_id.
func (c *Client) ListTableTypeColumns(ctx context.Context, userTypeID int) ([]schemamodel.TableTypeColumn, error) {
	const query = `SELECT
			c.name AS name,
			t.name AS sql_type,
			c.is_nullable AS is_nullable,
			c.max_length AS max_length
		FROM sys.columns c
		JOIN sys.types t ON c.user_type_id = t.user_type_id
		WHERE c.object_id = TYPE_ID(
			(SELECT s.name + '.' + tt.name FROM sys.table_types tt JOIN sys.schemas s ON tt.schema_id = s.schema_id WHERE tt.user_type_id = @p1)
		)
		ORDER BY c.column_id`

	var rows []tableTypeColumnRow
	if err := c.query(ctx, "mssql.listTableTypeColumns", &rows, query, userTypeID); err != nil {
		return nil, err
	}

	out := make([]schemamodel.TableTypeColumn, 0, len(rows))
	for _, r := range rows {
		out = append(out, schemamodel.TableTypeColumn{
			Name:       r.Name,
			SqlType:    r.SqlType,
			IsNullable: r.IsNullable,
			MaxLength:  normalizeMaxLength(r.SqlType, r.MaxLength),
		})
	}
	return out, nil
}
