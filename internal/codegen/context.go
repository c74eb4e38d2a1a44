package codegen

import (
	"fmt"
	"sort"
	"strings"
)

// ContextProcedure is the minimal shape GenerateContext needs to emit one
// aggregating method: enough to name the method, import the procedure's
// schema package, and call its Exec function.
type ContextProcedure struct {
	Schema   string
	Name     string // unqualified procedure name
	HasInput bool
}

// GenerateContext emits the aggregating Context type exposing one method per
// procedure across every generated schema package — the single entry point
// spec §4.8 calls "an aggregating context generator", modeled after an ORM
// DbContext: one struct wrapping *sql.DB, one method per stored procedure.
func GenerateContext(opts Options, procs []ContextProcedure) File {
	refs := make([]ProcRef, len(procs))
	bySchema := map[string][]ContextProcedure{}
	for i, p := range procs {
		refs[i] = ProcRef{Schema: p.Schema, Name: p.Name}
		bySchema[p.Schema] = append(bySchema[p.Schema], p)
	}
	methodNames := ResolveMethodNames(refs)

	schemas := make([]string, 0, len(bySchema))
	for s := range bySchema {
		schemas = append(schemas, s)
	}
	sort.Strings(schemas)

	imports := newImportSet()
	imports.add("context")
	imports.add("database/sql")

	var body strings.Builder
	body.WriteString("// Context is the aggregating entry point generated for every stored\n")
	body.WriteString("// procedure this run resolved: one method per procedure, regardless of\n")
	body.WriteString("// which schema package it lives in.\n")
	body.WriteString("type Context struct {\n\tdb *sql.DB\n}\n\n")
	body.WriteString("// NewContext wraps an already-open *sql.DB for calling generated procedures.\n")
	body.WriteString("func NewContext(db *sql.DB) *Context {\n\treturn &Context{db: db}\n}\n\n")

	for _, schema := range schemas {
		pkgPath := opts.ModulePath + "/" + packageNameFor(schema)
		imports.add(pkgPath)
		pkgName := packageNameFor(schema)

		procsInSchema := bySchema[schema]
		sort.Slice(procsInSchema, func(i, j int) bool { return procsInSchema[i].Name < procsInSchema[j].Name })

		for _, p := range procsInSchema {
			typeName := ProcedureTypeName(p.Name)
			methodName := methodNames[ProcRef{Schema: p.Schema, Name: p.Name}]
			resultType := pkgName + "." + ResultTypeName(typeName)
			execFunc := pkgName + "." + execFuncName(typeName)

			fmt.Fprintf(&body, "// %s calls %s.%s and scans its result sets.\n", methodName, schema, p.Name)
			if p.HasInput {
				inputType := pkgName + "." + InputTypeName(typeName)
				fmt.Fprintf(&body, "func (c *Context) %s(ctx context.Context, input %s) (*%s, error) {\n", methodName, inputType, resultType)
				fmt.Fprintf(&body, "\trows, err := %s(ctx, c.db, input)\n", execFunc)
			} else {
				fmt.Fprintf(&body, "func (c *Context) %s(ctx context.Context) (*%s, error) {\n", methodName, resultType)
				fmt.Fprintf(&body, "\trows, err := %s(ctx, c.db)\n", execFunc)
			}
			body.WriteString("\tif err != nil {\n\t\treturn nil, err\n\t}\n")
			body.WriteString("\tdefer rows.Close()\n\n")
			fmt.Fprintf(&body, "\tresult := &%s{}\n", resultType)
			body.WriteString("\tif err := result.Scan(rows); err != nil {\n\t\treturn nil, err\n\t}\n")
			body.WriteString("\treturn result, nil\n}\n\n")
		}
	}

	var out strings.Builder
	out.WriteString("package xtraq\n\n")
	out.WriteString(imports.render())
	out.WriteString(body.String())

	return File{
		Schema:   "",
		FileName: "context.go",
		Source:   NormalizeWhitespace(out.String()),
	}
}
