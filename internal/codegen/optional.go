package codegen

import (
	"strings"

	"github.com/xtraq/xtraq/internal/schemamodel"
	"github.com/xtraq/xtraq/internal/template"
)

// fallbackMinimalAPIRoute is the hard-coded template used when neither the
// configured template root nor the embedded defaults have
// minimal_api_route.tmpl, per spec §4.9: "the generator uses a hard-coded
// fallback string that remains functionally complete."
const fallbackMinimalAPIRoute = `// Register{{TypeName}}Route mounts {{TypeName}} on mux at path, decoding the request
// body as {{InputType}} and writing the {{ResultType}} result as JSON.
func Register{{TypeName}}Route(mux *http.ServeMux, path string, db *sql.DB) {
	mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
{{#HasInput}}
		var input {{InputType}}
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

{{/HasInput}}
		rows, err := {{ExecFunc}}(req.Context(), db{{#HasInput}}, input{{/HasInput}})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		result := &{{ResultType}}{}
		if err := result.Scan(rows); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result)
	})
}
`

const fallbackEFAdapter = `// {{TypeName}}EntityName is the keyless-entity name {{TypeName}} registers under
// for consumers building an ORM mapping table from generated procedures.
const {{TypeName}}EntityName = "{{TypeName}}"

// New{{TypeName}}Result constructs a zero-value {{ResultType}} for an ORM materializer.
func New{{TypeName}}Result() *{{ResultType}} {
	return &{{ResultType}}{}
}
`

// writeMinimalAPIRoute emits a net/http handler wiring the procedure's
// Input type to an HTTP route, gated on Options.EnableMinimalApiExtensions.
// Regeneration with the flag off never calls this, so the block simply
// never appears — there is nothing to retract.
func (g *Generator) writeMinimalAPIRoute(body *strings.Builder, imports *importSet, proc *schemamodel.ProcedureDescriptor, typeName string) {
	imports.add("context")
	imports.add("database/sql")
	imports.add("encoding/json")
	imports.add("net/http")

	tmpl, ok := g.templates.TryLoad("minimal_api_route.tmpl")
	if !ok {
		tmpl = fallbackMinimalAPIRoute
	}

	model := template.Model{
		"TypeName":   typeName,
		"ResultType": ResultTypeName(typeName),
		"InputType":  InputTypeName(typeName),
		"ExecFunc":   execFuncName(typeName),
		"HasInput":   hasInputParameters(proc.InputParameters),
	}
	body.WriteString(template.Render(tmpl, model))
	body.WriteString("\n")
}

// writeEFAdapter emits a thin adapter letting an Entity-Framework-style
// consumer register this procedure's Result type as a queryable keyless
// entity, gated on Options.EnableEntityFrameworkIntegration. Go has no EF
// equivalent, so this mirrors the shape with a registry consumers can key
// their own ORM mapping off — name, Go type, and a factory.
func (g *Generator) writeEFAdapter(body *strings.Builder, imports *importSet, typeName string) {
	tmpl, ok := g.templates.TryLoad("ef_adapter.tmpl")
	if !ok {
		tmpl = fallbackEFAdapter
	}

	model := template.Model{
		"TypeName":   typeName,
		"ResultType": ResultTypeName(typeName),
	}
	body.WriteString(template.Render(tmpl, model))
	body.WriteString("\n")
}

func hasInputParameters(params []schemamodel.Parameter) bool {
	for _, p := range params {
		if !p.IsOutput {
			return true
		}
	}
	return false
}

func execFuncName(typeName string) string {
	return "Exec" + typeName
}
