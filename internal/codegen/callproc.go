package codegen

import (
	"fmt"
	"strings"

	"github.com/xtraq/xtraq/internal/schemamodel"
	"github.com/xtraq/xtraq/internal/util"
)

// writeExecFunction emits the package-level function that actually invokes
// the stored procedure: it builds the "EXEC schema.name @Name = @p1, ..."
// call text, binds each input field as a named parameter, and returns the
// raw *sql.Rows for Result.Scan to consume. Kept separate from Result so a
// caller can run the statement inside its own transaction.
func (g *Generator) writeExecFunction(body *strings.Builder, imports *importSet, proc *schemamodel.ProcedureDescriptor, typeName string) {
	imports.add("context")
	imports.add("database/sql")

	var inputs []schemamodel.Parameter
	for _, p := range proc.InputParameters {
		if !p.IsOutput {
			inputs = append(inputs, p)
		}
	}

	funcName := execFuncName(typeName)
	sig := fmt.Sprintf("func %s(ctx context.Context, db *sql.DB", funcName)
	if len(inputs) > 0 {
		sig += fmt.Sprintf(", input %s", InputTypeName(typeName))
	}
	sig += ") (*sql.Rows, error) {"

	fmt.Fprintf(body, "// %s calls %s.%s and returns the driver rows for Result.Scan.\n", funcName, proc.Schema, proc.Name)
	body.WriteString(sig + "\n")

	if len(inputs) == 0 {
		fmt.Fprintf(body, "\treturn db.QueryContext(ctx, %q)\n", "EXEC "+qualifiedProcName(proc))
		body.WriteString("}\n\n")
		return
	}

	var callText strings.Builder
	callText.WriteString("EXEC " + qualifiedProcName(proc) + " ")
	var args []string
	for i, p := range inputs {
		if i > 0 {
			callText.WriteString(", ")
		}
		callText.WriteString(fmt.Sprintf("@%s = @p%d", p.Name, i+1))
		args = append(args, fmt.Sprintf("sql.Named(\"p%d\", input.%s)", i+1, PascalCase(p.Name)))
	}
	fmt.Fprintf(body, "\treturn db.QueryContext(ctx, %q,\n", callText.String())
	for _, a := range args {
		fmt.Fprintf(body, "\t\t%s,\n", a)
	}
	body.WriteString("\t)\n")
	body.WriteString("}\n\n")
}

// qualifiedProcName always schema-qualifies, unlike
// util.QualifyEntityNameWithQuotes's same-schema-omits-qualifier rule: an
// EXEC call embedded in generated Go source has no implicit "current
// schema" to omit it against.
func qualifiedProcName(proc *schemamodel.ProcedureDescriptor) string {
	return util.QuoteIdentifier(proc.Schema) + "." + util.QuoteIdentifier(proc.Name)
}
