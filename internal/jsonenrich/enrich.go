// Package jsonenrich runs the second analysis pass over a procedure's
// FOR-JSON result sets: upgrading placeholder column types against live
// table metadata, propagating forced nullability, and expanding deferred
// JSON container columns via a FunctionJsonDescriptor lookup. It performs
// no I/O itself — callers supply the two lookups it needs as plain
// functions, the same pluggable-resolver shape internal/analyzer uses.
package jsonenrich

import (
	"strings"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

// TableColumnLookup answers a base-table column's concrete type. A miss
// returns found=false and the column is left as-is.
type TableColumnLookup func(schema, table, column string) (sqlType string, maxLength int, isNullable bool, found bool)

// FunctionJSONLookup answers whether a scalar function's JSON shape is
// known, for expanding deferredJsonExpansion columns.
type FunctionJSONLookup func(schema, name string) (schemamodel.FunctionJsonDescriptor, bool)

// Stats is the per-procedure enrichment summary spec §4.4 step 5 requires.
type Stats struct {
	ResolvedColumns int
	NewConcrete     int
	Upgrades        int
}

// EnrichProcedure walks every result set of proc in place, applying the
// four rules of spec §4.4, and returns the aggregate stats across all of
// the procedure's result sets. A deferredJsonExpansion column (one
// produced by JSON_QUERY(schema.func(...))) can appear in a plain flat
// result set just as easily as inside a FOR JSON one, so every set is
// walked, not only ones with ReturnsJson set.
func EnrichProcedure(proc *schemamodel.ProcedureDescriptor, tableColumn TableColumnLookup, functionJSON FunctionJSONLookup) Stats {
	var total Stats
	for i := range proc.ResultSets {
		rs := &proc.ResultSets[i]
		total.add(enrichResultSet(rs, tableColumn, functionJSON))
	}
	return total
}

func enrichResultSet(rs *schemamodel.ResultSet, tableColumn TableColumnLookup, functionJSON FunctionJSONLookup) Stats {
	var stats Stats
	for i := range rs.Columns {
		col := &rs.Columns[i]

		if col.ForcedNullable {
			col.IsNullable = true
		}

		if col.DeferredJsonExpansion {
			if expandDeferredColumn(col, functionJSON) {
				stats.ResolvedColumns++
			}
			continue
		}

		if !col.HasSourceBinding() {
			continue
		}

		if !isUnknownType(col.SqlTypeName, col.MaxLength) {
			continue
		}

		sqlType, maxLength, isNullable, found := tableColumn(col.SourceSchema, col.SourceTable, col.SourceColumn)
		if !found {
			continue
		}

		wasEmpty := col.SqlTypeName == ""
		col.SqlTypeName = sqlType
		col.MaxLength = maxLength
		if !col.ForcedNullable {
			col.IsNullable = isNullable
		}

		stats.ResolvedColumns++
		if wasEmpty {
			stats.NewConcrete++
		} else {
			stats.Upgrades++
		}
	}
	return stats
}

// expandDeferredColumn replaces a JSON_QUERY(schema.func(...)) container
// column with a single typed column once the function's JSON shape is
// known, per spec §4.4 step 4.
func expandDeferredColumn(col *schemamodel.Column, functionJSON FunctionJSONLookup) bool {
	schema, name := splitFunctionRef(col.FunctionRef)
	if schema == "" && name == "" {
		return false
	}
	descriptor, found := functionJSON(schema, name)
	if !found {
		return false
	}

	col.SqlTypeName = descriptor.RootTypeName
	col.ReturnsJson = descriptor.ReturnsJson
	col.ReturnsJsonArray = descriptor.ReturnsJsonArray
	col.JsonIncludeNullValues = descriptor.IncludeNullValues
	col.Attributes = descriptor.ColumnNames
	if descriptor.ReturnsJsonArray {
		col.ClrTypeHint = "List<" + descriptor.RootTypeName + ">"
	} else {
		col.ClrTypeHint = descriptor.RootTypeName
	}
	col.DeferredJsonExpansion = false
	col.FunctionRef = ""
	return true
}

func splitFunctionRef(ref string) (schema, name string) {
	parts := strings.Split(ref, ".")
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return parts[len(parts)-2], parts[len(parts)-1]
	}
}

// isUnknownType reports whether a column's current type is a placeholder
// the enricher should try to upgrade: empty (never resolved), or the
// generic nvarchar(max) the analyzer assigns to JSON builtins and
// unrecognized expressions.
func isUnknownType(sqlType string, maxLength int) bool {
	if sqlType == "" {
		return true
	}
	return strings.EqualFold(sqlType, "nvarchar") && maxLength == -1
}

func (s *Stats) add(other Stats) {
	s.ResolvedColumns += other.ResolvedColumns
	s.NewConcrete += other.NewConcrete
	s.Upgrades += other.Upgrades
}
