package snapshot

import "github.com/xtraq/xtraq/internal/schemamodel"

// requiredRefs is the result of walking a procedure set's dependency graph:
// the tables, table types, user-defined scalar types, and functions that
// must be present in the snapshot for those procedures (and anything they
// EXEC) to be fully described.
type requiredRefs struct {
	tables       *RefSet
	tableTypes   *RefSet
	userTypes    *RefSet
	functions    *RefSet
	calledProcs  *RefSet
}

func newRequiredRefs() requiredRefs {
	return requiredRefs{
		tables:      NewRefSet(),
		tableTypes:  NewRefSet(),
		userTypes:   NewRefSet(),
		functions:   NewRefSet(),
		calledProcs: NewRefSet(),
	}
}

// computeRequiredRefs walks procedures transitively through
// ExecutedProcedures (cycle-safe via a visited set) and collects every
// table, table type, user type, and function any of them reference, per
// spec §4.6's dependency-filter contract. procsByKey must contain every
// procedure reachable from the initial set, keyed by "schema.name"
// (case-sensitive as stored — callers normalize before lookup).
func computeRequiredRefs(procedures []*schemamodel.ProcedureDescriptor, procsByKey map[string]*schemamodel.ProcedureDescriptor) requiredRefs {
	refs := newRequiredRefs()
	visited := map[string]bool{}

	var visit func(proc *schemamodel.ProcedureDescriptor)
	visit = func(proc *schemamodel.ProcedureDescriptor) {
		key := procKey(proc.Schema, proc.Name)
		if visited[key] {
			return
		}
		visited[key] = true

		collectFromProcedure(proc, &refs)

		for _, execRef := range proc.ExecutedProcedures {
			refs.calledProcs.Add(execRef)
			if next, ok := procsByKey[execRef]; ok {
				visit(next)
			}
		}
	}

	for _, p := range procedures {
		visit(p)
	}

	return refs
}

func collectFromProcedure(proc *schemamodel.ProcedureDescriptor, refs *requiredRefs) {
	for _, param := range proc.InputParameters {
		if param.IsTableType && param.UserTypeRef != "" {
			refs.tableTypes.Add(param.UserTypeRef)
		} else if param.UserTypeRef != "" {
			refs.userTypes.Add(param.UserTypeRef)
		}
	}

	for _, col := range proc.OutputFields {
		collectFromColumn(col, refs)
	}
	for _, rs := range proc.ResultSets {
		for _, col := range rs.Columns {
			collectFromColumn(col, refs)
		}
	}
}

func collectFromColumn(col schemamodel.Column, refs *requiredRefs) {
	if col.SourceSchema != "" && col.SourceTable != "" {
		refs.tables.Add(col.SourceSchema + "." + col.SourceTable)
	}
	if col.UserTypeSchema != "" && col.UserTypeName != "" {
		refs.userTypes.Add(col.UserTypeSchema + "." + col.UserTypeName)
	}
	if col.FunctionRef != "" {
		refs.functions.Add(col.FunctionRef)
	}
}

func procKey(schema, name string) string {
	return schema + "." + name
}
