// Package schemamodel is the shared vocabulary between the content analyzer,
// the snapshot writer/reader, and the code generator — the same role the
// teacher's internal/ir package plays between its builder, parser, and diff
// engine. Every type here is a plain, JSON-serializable value; nothing in
// this package performs I/O or mutates a descriptor after construction.
package schemamodel

// ProcedureDescriptor is the immutable, fully-resolved description of one
// stored procedure. It is created by the analyzer from live SQL text,
// persisted by the snapshot writer, read back by the schema provider, and
// consumed — never mutated — by the generator.
type ProcedureDescriptor struct {
	Catalog            string       `json:"Catalog,omitempty"`
	Schema             string       `json:"Schema"`
	Name               string       `json:"Name"`
	OperationName      string       `json:"OperationName"`
	ModifiedTicks      int64        `json:"ModifiedTicks"`
	InputParameters    []Parameter  `json:"InputParameters,omitempty"`
	OutputFields       []Column     `json:"OutputFields,omitempty"`
	ResultSets         []ResultSet  `json:"ResultSets,omitempty"`
	ExecutedProcedures []string     `json:"ExecutedProcedures,omitempty"`
}

// TypeRef returns the normalized three-part reference (catalog?.schema.name)
// used to key cross-references between descriptors, matching the format
// Parameter.UserTypeRef and the snapshot index use.
func (p *ProcedureDescriptor) TypeRef() string {
	return normalizeTypeRef(p.Catalog, p.Schema, p.Name)
}

// normalizeTypeRef builds the catalog?.schema.name string used throughout
// the snapshot as the canonical cross-reference key.
func normalizeTypeRef(catalog, schema, name string) string {
	if catalog == "" {
		return schema + "." + name
	}
	return catalog + "." + schema + "." + name
}

// Parameter describes one entry of ProcedureDescriptor.InputParameters.
type Parameter struct {
	Name         string `json:"Name"`
	SqlTypeName  string `json:"SqlTypeName"`
	IsNullable   bool   `json:"IsNullable"`
	MaxLength    int    `json:"MaxLength,omitempty"`
	Precision    *int   `json:"Precision,omitempty"`
	Scale        *int   `json:"Scale,omitempty"`
	IsOutput     bool   `json:"IsOutput,omitempty"`
	HasDefault   bool   `json:"HasDefault,omitempty"`
	IsTableType  bool   `json:"IsTableType,omitempty"`
	UserTypeRef  string `json:"UserTypeRef,omitempty"`
}
