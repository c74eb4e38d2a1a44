package mssql

import "context"

// schemaRow holds one row of sys.schemas.
type schemaRow struct {
	Name string `db:"name"`
}

// ListSchemas returns every user schema in the database, excluding the
// built-in principal-owned schemas (sys, INFORMATION_SCHEMA, guest,
// db_* fixed roles) that never carry application objects.
func (c *Client) ListSchemas(ctx context.Context) ([]string, error) {
	const query = `SELECT s.name
		FROM sys.schemas s
		WHERE s.name NOT IN ('sys', 'INFORMATION_SCHEMA', 'guest')
			AND s.name NOT LIKE 'db[_]%'
			AND s.principal_id <> 4
		ORDER BY s.name`

	var rows []schemaRow
	if err := c.query(ctx, "mssql.listSchemas", &rows, query); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	return names, nil
}
