package mssql

import (
	"context"
	"database/sql"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

// ProcedureSummary is one row of the procedure catalog: enough for the
// planner to decide whether a procedure needs refreshing, without paying
// for its full definition text.
type ProcedureSummary struct {
	Schema        string
	Name          string
	ModifiedTicks int64
}

type procedureRow struct {
	SchemaName string `db:"schema_name"`
	Name       string `db:"name"`
	ModifyDate sql.NullTime `db:"modify_date"`
}

// ListProcedures returns every stored procedure in schemaFilter (or every
// schema when schemaFilter is empty), with its stable modified tick.
func (c *Client) ListProcedures(ctx context.Context, schemaFilter []string) ([]ProcedureSummary, error) {
	query := `SELECT s.name AS schema_name, p.name AS name, p.modify_date AS modify_date
		FROM sys.procedures p
		JOIN sys.schemas s ON p.schema_id = s.schema_id`

	var args []interface{}
	if len(schemaFilter) > 0 {
		withIn, inArgs, err := sqlxIn(query+` WHERE s.name IN (?) ORDER BY s.name, p.name`, schemaFilter)
		if err != nil {
			return nil, err
		}
		query = c.db.Rebind(withIn)
		args = inArgs
	} else {
		query += ` ORDER BY s.name, p.name`
	}

	var rows []procedureRow
	if err := c.query(ctx, "mssql.listProcedures", &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]ProcedureSummary, 0, len(rows))
	for _, r := range rows {
		ticks := int64(0)
		if r.ModifyDate.Valid {
			ticks = toTicks(r.ModifyDate.Time)
		}
		out = append(out, ProcedureSummary{
			Schema:        r.SchemaName,
			Name:          r.Name,
			ModifiedTicks: ticks,
		})
	}
	return out, nil
}

// GetProcedureDefinition returns the raw T-SQL body of a procedure, as
// stored by sys.sql_modules, for the content analyzer to parse.
func (c *Client) GetProcedureDefinition(ctx context.Context, schema, name string) (string, error) {
	const query = `SELECT m.definition
		FROM sys.sql_modules m
		JOIN sys.procedures p ON m.object_id = p.object_id
		JOIN sys.schemas s ON p.schema_id = s.schema_id
		WHERE s.name = @p1 AND p.name = @p2`

	var defs []struct {
		Definition string `db:"definition"`
	}
	if err := c.query(ctx, "mssql.getProcedureDefinition", &defs, query, schema, name); err != nil {
		return "", err
	}
	if len(defs) == 0 {
		return "", nil
	}
	return defs[0].Definition, nil
}

type parameterRow struct {
	Name        string        `db:"name"`
	TypeName    string        `db:"type_name"`
	MaxLength   int           `db:"max_length"`
	Precision   int           `db:"precision"`
	Scale       int           `db:"scale"`
	IsOutput    bool          `db:"is_output"`
	HasDefault  bool          `db:"has_default_value"`
	IsTableType bool          `db:"is_table_type"`
	UserTypeSchema sql.NullString `db:"user_type_schema"`
	UserTypeName   sql.NullString `db:"user_type_name"`
}

// ListProcedureInputs returns every non-output parameter of a procedure, in
// ordinal position order.
func (c *Client) ListProcedureInputs(ctx context.Context, schema, name string) ([]schemamodel.Parameter, error) {
	rows, err := c.listParameters(ctx, schema, name)
	if err != nil {
		return nil, err
	}

	out := make([]schemamodel.Parameter, 0, len(rows))
	for _, r := range rows {
		if r.IsOutput {
			continue
		}
		out = append(out, r.toParameter())
	}
	return out, nil
}

// ListProcedureOutputs returns every OUTPUT parameter of a procedure,
// rendered as Columns per ProcedureDescriptor.OutputFields.
func (c *Client) ListProcedureOutputs(ctx context.Context, schema, name string) ([]schemamodel.Column, error) {
	rows, err := c.listParameters(ctx, schema, name)
	if err != nil {
		return nil, err
	}

	out := make([]schemamodel.Column, 0)
	for _, r := range rows {
		if !r.IsOutput {
			continue
		}
		out = append(out, schemamodel.Column{
			Name:         r.Name,
			PropertyName: r.Name,
			SqlTypeName:  r.TypeName,
			IsNullable:   true,
			MaxLength:    r.MaxLength,
		})
	}
	return out, nil
}

func (c *Client) listParameters(ctx context.Context, schema, name string) ([]parameterRow, error) {
	const query = `SELECT
			par.name AS name,
			t.name AS type_name,
			par.max_length AS max_length,
			par.precision AS precision,
			par.scale AS scale,
			par.is_output AS is_output,
			par.has_default_value AS has_default_value,
			par.is_table_type AS is_table_type,
			ts.name AS user_type_schema,
			t.name AS user_type_name
		FROM sys.parameters par
		JOIN sys.procedures p ON par.object_id = p.object_id
		JOIN sys.schemas s ON p.schema_id = s.schema_id
		JOIN sys.types t ON par.user_type_id = t.user_type_id
		LEFT JOIN sys.schemas ts ON t.schema_id = ts.schema_id
		WHERE s.name = @p1 AND p.name = @p2 AND par.parameter_id > 0
		ORDER BY par.parameter_id`

	var rows []parameterRow
	if err := c.query(ctx, "mssql.listProcedureInputs", &rows, query, schema, name); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *parameterRow) toParameter() schemamodel.Parameter {
	p := schemamodel.Parameter{
		Name:        trimAt(r.Name),
		SqlTypeName: r.TypeName,
		IsNullable:  true,
		MaxLength:   normalizeMaxLength(r.TypeName, r.MaxLength),
		IsOutput:    r.IsOutput,
		HasDefault:  r.HasDefault,
		IsTableType: r.IsTableType,
	}
	if r.Precision > 0 {
		precision := int(r.Precision)
		p.Precision = &precision
	}
	if r.Scale > 0 {
		scale := int(r.Scale)
		p.Scale = &scale
	}
	if r.IsTableType && r.UserTypeSchema.Valid {
		p.UserTypeRef = schemamodel.FormatTypeRef("", r.UserTypeSchema.String, r.UserTypeName.String)
	}
	return p
}

// trimAt strips the leading "@" SQL Server prefixes parameter names with.
func trimAt(name string) string {
	if len(name) > 0 && name[0] == '@' {
		return name[1:]
	}
	return name
}

// normalizeMaxLength converts sys.parameters.max_length's byte-oriented
// encoding (nvarchar/nchar report double-byte length, -1 means MAX) into
// the character-oriented MaxLength the rest of the pipeline expects.
func normalizeMaxLength(sqlType string, raw int) int {
	if raw < 0 {
		return -1
	}
	switch sqlType {
	case "nvarchar", "nchar":
		return raw / 2
	default:
		return raw
	}
}
