package analyzer

import (
	"fmt"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

// parseExecStatement handles a direct EXEC/EXECUTE of another procedure.
// Per spec §4.2, it is recorded in executedProcedures and synthesizes a
// placeholder ResultSet {execSourceSchema, execSourceProcedure, columns=[]}
// in body order — the snapshot/codegen stages later expand it lazily into
// the callee's own result sets.
func (p *Parser) parseExecStatement(tokens []Token) error {
	i := 1
	if i < len(tokens) && tokens[i].Kind == TokenVariable {
		if i+1 < len(tokens) && tokens[i+1].Text == "=" {
			i += 2
		}
	}
	if i >= len(tokens) {
		return fmt.Errorf("exec statement has no target procedure name")
	}

	name, _ := readQualifiedName(tokens[i:])
	if name == "" {
		return fmt.Errorf("exec statement target could not be read")
	}

	schema, proc := splitSchemaTable(name, p.currentSchema)
	ref := schema + "." + proc
	p.content.ExecutedProcedures = append(p.content.ExecutedProcedures, ref)

	p.content.ResultSets = append(p.content.ResultSets, schemamodel.ResultSet{
		Index:               len(p.content.ResultSets),
		Name:                fmt.Sprintf("Result%d", len(p.content.ResultSets)+1),
		ExecSourceSchema:    schema,
		ExecSourceProcedure: proc,
		Columns:             nil,
	})

	return nil
}
