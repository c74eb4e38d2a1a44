package mssql

import "context"

// FunctionRef is one user-defined function's identity, without its return
// shape — enough for the snapshot writer's candidate list before filtering
// to referenced-only.
type FunctionRef struct {
	Schema string
	Name   string
}

type functionRefRow struct {
	Schema string `db:"schema_name"`
	Name   string `db:"name"`
}

// ListFunctions returns every scalar, inline-table-valued, and
// multi-statement-table-valued function visible in schemas (or every schema
// when schemas is empty).
func (c *Client) ListFunctions(ctx context.Context, schemas []string) ([]FunctionRef, error) {
	query := `SELECT s.name AS schema_name, o.name AS name
		FROM sys.objects o
		JOIN sys.schemas s ON o.schema_id = s.schema_id
		WHERE o.type IN ('FN', 'IF', 'TF')`

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

	var rows []functionRefRow
	if err := c.query(ctx, "mssql.listFunctions", &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]FunctionRef, 0, len(rows))
	for _, r := range rows {
		out = append(out, FunctionRef{Schema: r.Schema, Name: r.Name})
	}
	return out, nil
}

// GetFunctionDefinition returns the raw T-SQL body of a function, the same
// way GetProcedureDefinition does for procedures, so the JSON-shape
// heuristic in internal/orchestrator can parse a scalar function's
// `RETURN (SELECT ... FOR JSON ...)` body.
func (c *Client) GetFunctionDefinition(ctx context.Context, schema, name string) (string, error) {
	const query = `SELECT m.definition
		FROM sys.sql_modules m
		JOIN sys.objects o ON m.object_id = o.object_id
		JOIN sys.schemas s ON o.schema_id = s.schema_id
		WHERE s.name = @p1 AND o.name = @p2 AND o.type IN ('FN', 'IF', 'TF')`

	var defs []struct {
		Definition string `db:"definition"`
	}
	if err := c.query(ctx, "mssql.getFunctionDefinition", &defs, query, schema, name); err != nil {
		return "", err
	}
	if len(defs) == 0 {
		return "", nil
	}
	return defs[0].Definition, nil
}

// FunctionReturnInfo is a scalar function's return-type shape, answering
// the analyzer's third pluggable resolver callback (scalar function return
// type) and seeding FunctionJsonDescriptor construction for functions that
// return JSON text.
type FunctionReturnInfo struct {
	SqlTypeName string
	MaxLength   int
	IsNullable  bool
}

type functionReturnRow struct {
	SqlType   string `db:"sql_type"`
	MaxLength int    `db:"max_length"`
}

// ListFunctionReturns returns the scalar return type of a user-defined
// function. Table-valued functions are out of scope for this lookup; a
// function found to be table-valued returns (nil, nil) so the caller can
// fall back to describeFirstResultSet instead.
func (c *Client) ListFunctionReturns(ctx context.Context, schema, function string) (*FunctionReturnInfo, error) {
	const query = `SELECT t.name AS sql_type, p.max_length AS max_length
		FROM sys.parameters p
		JOIN sys.objects o ON p.object_id = o.object_id
		JOIN sys.schemas s ON o.schema_id = s.schema_id
		JOIN sys.types t ON p.user_type_id = t.user_type_id
		WHERE s.name = @p1 AND o.name = @p2 AND p.parameter_id = 0 AND o.type IN ('FN', 'IF', 'TF')`

	var rows []functionReturnRow
	if err := c.query(ctx, "mssql.listFunctionReturns", &rows, query, schema, function); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return &FunctionReturnInfo{
		SqlTypeName: rows[0].SqlType,
		MaxLength:   normalizeMaxLength(rows[0].SqlType, rows[0].MaxLength),
		IsNullable:  true,
	}, nil
}
