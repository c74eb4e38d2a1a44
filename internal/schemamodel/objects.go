package schemamodel

// TableArtifact is the snapshot's persisted shape for one base table — only
// what the analyzer/enricher/generator need: its columns, keyed the same
// way ProcedureDescriptor.OutputFields are.
type TableArtifact struct {
	Catalog string   `json:"Catalog,omitempty"`
	Schema  string   `json:"Schema"`
	Name    string   `json:"Name"`
	Columns []Column `json:"Columns,omitempty"`
}

// TypeRef returns this table's normalized cross-reference key.
func (t *TableArtifact) TypeRef() string {
	return normalizeTypeRef(t.Catalog, t.Schema, t.Name)
}

// FunctionArtifact is the snapshot's persisted shape for one scalar or
// table-valued function: its return type, and — when the function's return
// value is itself JSON text — the descriptor the JSON enricher consults to
// expand deferredJsonExpansion columns.
type FunctionArtifact struct {
	Catalog       string                  `json:"Catalog,omitempty"`
	Schema        string                  `json:"Schema"`
	Name          string                  `json:"Name"`
	ReturnSqlType string                  `json:"ReturnSqlType,omitempty"`
	MaxLength     int                     `json:"MaxLength,omitempty"`
	IsNullable    bool                    `json:"IsNullable,omitempty"`
	Json          *FunctionJsonDescriptor `json:"Json,omitempty"`
}

// TypeRef returns this function's normalized cross-reference key.
func (f *FunctionArtifact) TypeRef() string {
	return normalizeTypeRef(f.Catalog, f.Schema, f.Name)
}
