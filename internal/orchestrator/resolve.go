package orchestrator

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/xtraq/xtraq/internal/analyzer"
	"github.com/xtraq/xtraq/internal/codegen"
	"github.com/xtraq/xtraq/internal/diagnostics"
	"github.com/xtraq/xtraq/internal/jsonenrich"
	"github.com/xtraq/xtraq/internal/mssql"
	"github.com/xtraq/xtraq/internal/schemamodel"
	"github.com/xtraq/xtraq/internal/typeresolve"
)

// functionBodySelectRe finds where a function's body actually starts
// parsing from: sys.sql_modules hands back the full CREATE FUNCTION text,
// header included, and the analyzer's statement splitter has no notion of
// a CREATE/AS/BEGIN preamble — its dispatch only looks at each
// semicolon-delimited chunk's own leading keyword. A scalar function's body
// is conventionally a single RETURN with no preceding statement to supply
// that separating semicolon, so without this the header keyword "create"
// would be what the dispatcher sees, never "select".
var functionBodySelectRe = regexp.MustCompile(`(?i)\bselect\b`)

// resolveParameterTypes normalizes every parameter's SqlTypeName through the
// type resolver: a plain sys type passes through unchanged, while a
// user-defined scalar alias (e.g. "Email") is rewritten to its base type —
// spec §4.3's three-tier lookup, applied here to procedure parameters rather
// than result-set columns.
func resolveParameterTypes(params []schemamodel.Parameter, resolver *typeresolve.Resolver) {
	for i := range params {
		p := &params[i]
		if p.IsTableType {
			continue
		}
		resolved := resolver.Resolve(p.SqlTypeName, p.MaxLength, p.Precision, p.Scale, p.IsNullable)
		p.SqlTypeName = resolved.SqlType
		p.MaxLength = resolved.MaxLength
		p.Precision = resolved.Precision
		p.Scale = resolved.Scale
	}
}

// resolveColumnTypes is resolveParameterTypes' counterpart for
// ProcedureDescriptor.OutputFields.
func resolveColumnTypes(cols []schemamodel.Column, resolver *typeresolve.Resolver) {
	for i := range cols {
		c := &cols[i]
		resolved := resolver.Resolve(c.SqlTypeName, c.MaxLength, c.Precision, c.Scale, c.IsNullable)
		c.SqlTypeName = resolved.SqlType
		c.MaxLength = resolved.MaxLength
		c.Precision = resolved.Precision
		c.Scale = resolved.Scale
	}
}

// tableColumnCache memoizes ListTableColumns per (schema, table) — the
// analyzer and JSON enricher both resolve the same base-table columns
// repeatedly while walking many procedures.
type tableColumnCache struct {
	client *mssql.Client
	mu     sync.Mutex
	cache  map[string][]schemamodel.Column
}

func newTableColumnCache(client *mssql.Client) *tableColumnCache {
	return &tableColumnCache{client: client, cache: map[string][]schemamodel.Column{}}
}

func (c *tableColumnCache) get(ctx context.Context, schema, table string) ([]schemamodel.Column, error) {
	key := strings.ToLower(schema + "." + table)

	c.mu.Lock()
	if cols, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return cols, nil
	}
	c.mu.Unlock()

	cols, err := c.client.ListTableColumns(ctx, schema, table)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = cols
	c.mu.Unlock()
	return cols, nil
}

// buildFunctionArtifacts enumerates every user-defined function in
// effectiveSchemas and describes its return shape. A scalar function whose
// body is a single `RETURN (SELECT ... FOR JSON ...)` gets a
// FunctionJsonDescriptor built from parsing that body with the same
// statement analyzer procedures use, so JSON_QUERY(schema.func(...)) columns
// can later expand against it during enrichment (spec §4.4 step 4).
func buildFunctionArtifacts(ctx context.Context, client *mssql.Client, diag *diagnostics.Handle, effectiveSchemas []string) ([]*schemamodel.FunctionArtifact, error) {
	refs, err := client.ListFunctions(ctx, effectiveSchemas)
	if err != nil {
		return nil, err
	}

	out := make([]*schemamodel.FunctionArtifact, 0, len(refs))
	for _, ref := range refs {
		returnInfo, retErr := client.ListFunctionReturns(ctx, ref.Schema, ref.Name)
		if retErr != nil {
			return nil, retErr
		}
		if returnInfo == nil {
			// Table-valued function: out of scope for the scalar return-type
			// artifact this pass builds.
			continue
		}

		artifact := &schemamodel.FunctionArtifact{
			Schema:        ref.Schema,
			Name:          ref.Name,
			ReturnSqlType: returnInfo.SqlTypeName,
			MaxLength:     returnInfo.MaxLength,
			IsNullable:    returnInfo.IsNullable,
		}

		if isJsonCapableReturnType(returnInfo.SqlTypeName) {
			definition, defErr := client.GetFunctionDefinition(ctx, ref.Schema, ref.Name)
			if defErr == nil && definition != "" {
				if descriptor, ok := describeFunctionJson(definition, ref.Schema, ref.Name, diag); ok {
					artifact.Json = &descriptor
				}
			}
		}

		out = append(out, artifact)
	}
	return out, nil
}

func isJsonCapableReturnType(sqlType string) bool {
	return strings.EqualFold(sqlType, "nvarchar") || strings.EqualFold(sqlType, "varchar")
}

// describeFunctionJson parses a scalar function's body looking for a
// FOR JSON-producing SELECT, reusing the procedure analyzer's own statement
// parser rather than a second bespoke one.
func describeFunctionJson(definition, schema, name string, diag *diagnostics.Handle) (schemamodel.FunctionJsonDescriptor, bool) {
	loc := functionBodySelectRe.FindStringIndex(definition)
	if loc == nil {
		return schemamodel.FunctionJsonDescriptor{}, false
	}
	body := definition[loc[0]:]

	subjectName := schema + "." + name
	content := analyzer.Parse(body, schema, subjectName, analyzer.ResolverContext{
		ColumnType:     func(string, string, string) (string, int, bool, bool) { return "", 0, false, false },
		UserType:       func(string) (string, int, bool) { return "", 0, false },
		FunctionReturn: func(string, string) (string, bool) { return "", false },
	}, diag)

	for _, rs := range content.ResultSets {
		if !rs.ReturnsJson {
			continue
		}
		names := make([]string, len(rs.Columns))
		includeNulls := false
		for i, col := range rs.Columns {
			names[i] = col.PropertyName
			if col.JsonIncludeNullValues {
				includeNulls = true
			}
		}
		return schemamodel.FunctionJsonDescriptor{
			Schema:            schema,
			Name:              name,
			ReturnsJson:       true,
			ReturnsJsonArray:  rs.ReturnsJsonArray,
			RootTypeName:      codegen.PascalCase(name) + "Json",
			IncludeNullValues: includeNulls,
			ColumnNames:       names,
		}, true
	}
	return schemamodel.FunctionJsonDescriptor{}, false
}

// functionJSONIndex builds the in-memory FunctionJSONLookup the JSON
// enricher consults while the snapshot this run is producing is not yet
// written (so the snapshot provider's own TryGetFunctionJsonDescriptor has
// nothing to read from yet).
func functionJSONIndex(functions []*schemamodel.FunctionArtifact) jsonenrich.FunctionJSONLookup {
	byKey := make(map[string]schemamodel.FunctionJsonDescriptor, len(functions))
	for _, f := range functions {
		if f.Json == nil {
			continue
		}
		byKey[strings.ToLower(f.Schema+"."+f.Name)] = *f.Json
	}
	return func(schema, name string) (schemamodel.FunctionJsonDescriptor, bool) {
		d, ok := byKey[strings.ToLower(schema+"."+name)]
		return d, ok
	}
}
