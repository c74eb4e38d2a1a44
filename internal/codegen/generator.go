// Package codegen emits Go client bindings from resolved procedure
// descriptors: table-type DTOs, per-procedure result/input/output types and
// scan methods, and an aggregating context exposing one method per
// procedure. It never touches a database or the filesystem itself — callers
// feed it schemamodel values and take the returned source text.
package codegen

import (
	"fmt"
	"strings"

	"github.com/xtraq/xtraq/internal/diagnostics"
	"github.com/xtraq/xtraq/internal/schemamodel"
	"github.com/xtraq/xtraq/internal/template"
)

// ExecResolver answers the live descriptor of a procedure referenced by an
// EXEC placeholder result set, so the generator can expand it without the
// snapshot provider's own I/O details leaking into this package.
type ExecResolver func(schema, name string) (*schemamodel.ProcedureDescriptor, bool)

// Options configures one generation run.
type Options struct {
	ModulePath                       string // e.g. "github.com/acme/appdb" — used to qualify cross-schema package imports
	EmitJsonIncludeNullValues        bool
	EnableMinimalApiExtensions       bool
	EnableEntityFrameworkIntegration bool
	TemplateRoot                     string // filesystem override checked before the embedded defaults; empty skips that tier
}

// Generator emits one Go source file per procedure. It is not safe for
// concurrent use — create one per goroutine if generating in parallel.
type Generator struct {
	opts            Options
	execResolver    ExecResolver
	diag            *diagnostics.Handle
	templates       *template.Coordinator
	execCache       map[string]*schemamodel.ProcedureDescriptor
	jsonColumnTypes map[string]bool // schema.typeName already emitted, across every file this Generator produces
}

// NewGenerator builds a Generator. diag defaults to a fresh handle if nil.
// templates defaults to a Coordinator with no filesystem root configured,
// so template lookups fall straight through to the compiled-in defaults.
func NewGenerator(opts Options, execResolver ExecResolver, diag *diagnostics.Handle) *Generator {
	if diag == nil {
		diag = diagnostics.New()
	}
	return &Generator{
		opts:            opts,
		execResolver:    execResolver,
		diag:            diag,
		templates:       template.NewCoordinator(opts.TemplateRoot),
		execCache:       map[string]*schemamodel.ProcedureDescriptor{},
		jsonColumnTypes: map[string]bool{},
	}
}

// File is one generated source file, named for the package it belongs to.
type File struct {
	Schema   string
	FileName string
	Source   string
}

// GenerateProcedure emits the complete source for one procedure: input
// type, output type (if it has output parameters), one type per surviving
// result set, the aggregate Result type, and a Scan method that reads every
// set from *sql.Rows in order.
func (g *Generator) GenerateProcedure(proc *schemamodel.ProcedureDescriptor) File {
	typeName := ProcedureTypeName(proc.Name)
	sets := g.expandResultSets(proc, 0, map[string]bool{})

	var body strings.Builder
	imports := newImportSet()

	g.writeInputType(&body, imports, typeName, proc.InputParameters)
	g.writeOutputType(&body, imports, typeName, proc.OutputFields)

	setTypeNames := make([]string, len(sets))
	for i, rs := range sets {
		setTypeNames[i] = g.writeResultSetType(&body, imports, proc.Schema, typeName, rs)
	}
	g.writeAggregateResultType(&body, typeName, sets, setTypeNames)
	g.writeScanMethod(&body, imports, typeName, sets, setTypeNames)
	g.writeExecFunction(&body, imports, proc, typeName)

	if g.opts.EnableMinimalApiExtensions {
		g.writeMinimalAPIRoute(&body, imports, proc, typeName)
	}
	if g.opts.EnableEntityFrameworkIntegration {
		g.writeEFAdapter(&body, imports, typeName)
	}

	var out strings.Builder
	out.WriteString("package " + packageNameFor(proc.Schema) + "\n\n")
	out.WriteString(imports.render())
	out.WriteString(body.String())

	return File{
		Schema:   proc.Schema,
		FileName: strings.ToLower(typeName) + ".go",
		Source:   NormalizeWhitespace(out.String()),
	}
}

// expandResultSets replaces EXEC placeholder sets with the target
// procedure's own result sets (virtually, never persisted back to the
// snapshot), per spec §4.8 step 1. depth caps runaway EXEC chains at 8
// levels; visited prevents infinite recursion on a cyclic EXEC graph.
func (g *Generator) expandResultSets(proc *schemamodel.ProcedureDescriptor, depth int, visited map[string]bool) []schemamodel.ResultSet {
	var out []schemamodel.ResultSet
	for _, rs := range proc.ResultSets {
		if !rs.IsExecPlaceholder() {
			out = append(out, rs)
			continue
		}
		if depth >= 8 {
			g.diag.Warn(proc.Schema+"."+proc.Name, "exec-expansion-depth", "EXEC expansion truncated at depth 8 for %s.%s", rs.ExecSourceSchema, rs.ExecSourceProcedure)
			continue
		}
		key := strings.ToLower(rs.ExecSourceSchema + "." + rs.ExecSourceProcedure)
		if visited[key] {
			g.diag.Warn(proc.Schema+"."+proc.Name, "exec-expansion-cycle", "EXEC cycle detected at %s", key)
			continue
		}

		target, found := g.resolveExecTarget(rs.ExecSourceSchema, rs.ExecSourceProcedure)
		if !found {
			g.diag.Warn(proc.Schema+"."+proc.Name, "exec-expansion-missing", "EXEC target %s not found in snapshot", key)
			continue
		}

		visited[key] = true
		targetPrefix := ProcedureTypeName(target.Name)
		for _, targetRs := range g.expandResultSets(target, depth+1, visited) {
			if len(targetRs.Columns) == 0 {
				continue
			}
			named := targetRs
			named.Name = targetPrefix + PascalCase(targetRs.Name)
			named.ExecSourceSchema = rs.ExecSourceSchema
			named.ExecSourceProcedure = rs.ExecSourceProcedure
			out = append(out, named)
		}
	}
	return out
}

func (g *Generator) resolveExecTarget(schema, name string) (*schemamodel.ProcedureDescriptor, bool) {
	key := strings.ToLower(schema + "." + name)
	if cached, ok := g.execCache[key]; ok {
		return cached, cached != nil
	}
	if g.execResolver == nil {
		g.execCache[key] = nil
		return nil, false
	}
	target, found := g.execResolver(schema, name)
	if !found {
		g.execCache[key] = nil
		return nil, false
	}
	g.execCache[key] = target
	return target, true
}

func (g *Generator) writeInputType(body *strings.Builder, imports *importSet, typeName string, params []schemamodel.Parameter) {
	var inputs []schemamodel.Parameter
	for _, p := range params {
		if !p.IsOutput {
			inputs = append(inputs, p)
		}
	}
	if len(inputs) == 0 {
		return
	}

	name := InputTypeName(typeName)
	fmt.Fprintf(body, "// %s holds the input parameters of %s.\n", name, typeName)
	fmt.Fprintf(body, "type %s struct {\n", name)
	for _, p := range inputs {
		fieldName := PascalCase(p.Name)
		goType := GoFieldType(p.SqlTypeName, p.IsNullable)
		imports.addFor(p.SqlTypeName)
		fmt.Fprintf(body, "\t%s %s\n", fieldName, goType)
	}
	body.WriteString("}\n\n")
}

func (g *Generator) writeOutputType(body *strings.Builder, imports *importSet, typeName string, outputs []schemamodel.Column) {
	if len(outputs) == 0 {
		return
	}
	name := OutputTypeName(typeName)
	fmt.Fprintf(body, "// %s holds the output parameters of %s.\n", name, typeName)
	fmt.Fprintf(body, "type %s struct {\n", name)
	for _, c := range outputs {
		fieldName := PascalCase(c.Name)
		goType := GoFieldType(c.SqlTypeName, c.IsNullable)
		imports.addFor(c.SqlTypeName)
		fmt.Fprintf(body, "\t%s %s\n", fieldName, goType)
	}
	body.WriteString("}\n\n")
}

func (g *Generator) writeAggregateResultType(body *strings.Builder, typeName string, sets []schemamodel.ResultSet, setTypeNames []string) {
	name := ResultTypeName(typeName)
	fmt.Fprintf(body, "// %s aggregates every result set %s produces.\n", name, typeName)
	fmt.Fprintf(body, "type %s struct {\n", name)
	for i, rs := range sets {
		fieldName := PascalCase(rs.Name)
		if rs.ReturnsJson {
			if rs.ReturnsJsonArray {
				fmt.Fprintf(body, "\t%s []%s\n", fieldName, setTypeNames[i])
			} else {
				fmt.Fprintf(body, "\t%s *%s\n", fieldName, setTypeNames[i])
			}
			fmt.Fprintf(body, "\t%sRawJson string\n", fieldName)
		} else {
			fmt.Fprintf(body, "\t%s []%s\n", fieldName, setTypeNames[i])
		}
	}
	body.WriteString("}\n\n")
}

func packageNameFor(schema string) string {
	return strings.ToLower(PascalCase(schema))
}
