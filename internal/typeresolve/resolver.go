// Package typeresolve answers the single question every later stage needs
// before it can talk about a column's SQL type: given a name (a user-defined
// type's reference, or a bare `sys` type name) what is its concrete base SQL
// type, maximum length, precision/scale, and nullability? It is stateless
// given a snapshot — build a Resolver once from a snapshot's
// UserDefinedTypeInfo list and consult it repeatedly; it performs no I/O.
package typeresolve

import (
	"strings"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

// Resolver answers type-reference lookups against a fixed set of
// user-defined scalar types, per spec §4.3's three-tier lookup contract:
// a typeRef is tried first as (catalog, schema, name), then (schema, name),
// finally (name) alone — all case-insensitive.
type Resolver struct {
	byCatalogSchemaName map[string]schemamodel.UserDefinedTypeInfo
	bySchemaName        map[string]schemamodel.UserDefinedTypeInfo
	byName              map[string]schemamodel.UserDefinedTypeInfo
}

// NewResolver indexes udts under all three lookup keys.
func NewResolver(udts []schemamodel.UserDefinedTypeInfo) *Resolver {
	r := &Resolver{
		byCatalogSchemaName: map[string]schemamodel.UserDefinedTypeInfo{},
		bySchemaName:        map[string]schemamodel.UserDefinedTypeInfo{},
		byName:              map[string]schemamodel.UserDefinedTypeInfo{},
	}
	for _, u := range udts {
		r.bySchemaName[foldKey(u.Schema, u.Name)] = u
		r.byName[foldKey(u.Name)] = u
		if u.Catalog != "" {
			r.byCatalogSchemaName[foldKey(u.Catalog, u.Schema, u.Name)] = u
		}
	}
	return r
}

// Resolved is the outcome of resolving one typeRef.
type Resolved struct {
	SqlType     string
	BaseSqlType string // set only when typeRef named a user-defined type
	MaxLength   int
	Precision   *int
	Scale       *int
	IsNullable  bool
	IsUserType  bool
}

// Resolve answers a typeRef, falling back to the caller-supplied
// length/precision/scale/nullability (the values as declared at the use
// site, e.g. a parameter or column) when typeRef is not a known
// user-defined type — including every `sys`-schema type, which passes
// through unmodified per spec §4.3.
func (r *Resolver) Resolve(typeRef string, length int, precision, scale *int, declaredNullable bool) Resolved {
	schema, name := splitTypeRef(typeRef)
	if strings.EqualFold(schema, "sys") {
		return Resolved{SqlType: strings.ToLower(name), MaxLength: length, Precision: precision, Scale: scale, IsNullable: declaredNullable}
	}

	udt, ok := r.lookup(typeRef, schema, name)
	if !ok {
		return Resolved{SqlType: strings.ToLower(name), MaxLength: length, Precision: precision, Scale: scale, IsNullable: declaredNullable}
	}

	resolved := Resolved{
		SqlType:     strings.ToLower(udt.BaseSqlType),
		BaseSqlType: strings.ToLower(udt.BaseSqlType),
		IsUserType:  true,
		IsNullable:  udt.EffectiveNullable(),
	}
	if udt.MaxLength != nil {
		resolved.MaxLength = *udt.MaxLength
	} else {
		resolved.MaxLength = length
	}
	if udt.Precision != nil {
		resolved.Precision = udt.Precision
	} else {
		resolved.Precision = precision
	}
	if udt.Scale != nil {
		resolved.Scale = udt.Scale
	} else {
		resolved.Scale = scale
	}
	return resolved
}

func (r *Resolver) lookup(typeRef, schema, name string) (schemamodel.UserDefinedTypeInfo, bool) {
	if u, ok := r.byCatalogSchemaName[foldKey(typeRef)]; ok {
		return u, true
	}
	if u, ok := r.bySchemaName[foldKey(schema, name)]; ok {
		return u, true
	}
	if u, ok := r.byName[foldKey(name)]; ok {
		return u, true
	}
	return schemamodel.UserDefinedTypeInfo{}, false
}

// splitTypeRef splits a catalog?.schema.name reference into (schema, name),
// discarding any catalog component — the three-tier lookup handles catalog
// matching separately.
func splitTypeRef(typeRef string) (schema, name string) {
	parts := strings.Split(typeRef, ".")
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return parts[len(parts)-2], parts[len(parts)-1]
	}
}

func foldKey(parts ...string) string {
	joined := strings.Join(parts, ".")
	return strings.ToLower(joined)
}
