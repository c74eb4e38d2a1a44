package schemamodel

import "strings"

// TableTypeInfo describes a user-defined table type, used both by procedure
// inputs (table-valued parameters) and as its own snapshot artifact family.
type TableTypeInfo struct {
	Catalog string               `json:"Catalog,omitempty"`
	Schema  string               `json:"Schema"`
	Name    string               `json:"Name"`
	Columns []TableTypeColumn    `json:"Columns,omitempty"`
}

// TableTypeColumn is one column of a TableTypeInfo.
type TableTypeColumn struct {
	Name       string `json:"Name"`
	SqlType    string `json:"SqlType"`
	IsNullable bool   `json:"IsNullable"`
	MaxLength  int    `json:"MaxLength,omitempty"`
}

// UserDefinedTypeInfo describes a scalar CLR/SQL alias type (e.g.
// `CREATE TYPE dbo.Email FROM nvarchar(256)`).
type UserDefinedTypeInfo struct {
	Catalog     string `json:"Catalog,omitempty"`
	Schema      string `json:"Schema"`
	Name        string `json:"Name"`
	BaseSqlType string `json:"BaseSqlType"`
	MaxLength   *int   `json:"MaxLength,omitempty"`
	Precision   *int   `json:"Precision,omitempty"`
	Scale       *int   `json:"Scale,omitempty"`
	IsNullable  *bool  `json:"IsNullable,omitempty"`
}

// EffectiveNullable applies the "leading underscore forces non-null"
// naming convention on top of the stored IsNullable flag.
func (u *UserDefinedTypeInfo) EffectiveNullable() bool {
	if strings.HasPrefix(u.Name, "_") {
		return false
	}
	if u.IsNullable == nil {
		return true
	}
	return *u.IsNullable
}

// FunctionJsonDescriptor enables expansion of a deferred JSON container
// column (one produced by a scalar function returning JSON text) into a
// concretely typed column during enrichment.
type FunctionJsonDescriptor struct {
	Schema            string   `json:"Schema"`
	Name              string   `json:"Name"`
	ReturnsJson       bool     `json:"ReturnsJson"`
	ReturnsJsonArray  bool     `json:"ReturnsJsonArray,omitempty"`
	RootTypeName      string   `json:"RootTypeName"`
	IncludeNullValues bool     `json:"IncludeNullValues,omitempty"`
	ColumnNames       []string `json:"ColumnNames,omitempty"`
}

// FormatTypeRef renders the catalog?.schema.name form used for TypeRef
// fields throughout the snapshot, with sys-schema types rendered as
// "sys.<name>" regardless of catalog.
func FormatTypeRef(catalog, schema, name string) string {
	if strings.EqualFold(schema, "sys") {
		return "sys." + name
	}
	return normalizeTypeRef(catalog, schema, name)
}
