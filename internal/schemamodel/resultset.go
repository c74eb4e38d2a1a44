package schemamodel

// ResultSet is one ordered entry of ProcedureDescriptor.ResultSets; position
// in the slice is significant and matches SQL source order.
type ResultSet struct {
	Index               int        `json:"Index"`
	Name                string     `json:"Name"`
	ReturnsJson         bool       `json:"ReturnsJson,omitempty"`
	ReturnsJsonArray    bool       `json:"ReturnsJsonArray,omitempty"`
	JsonRootProperty    string     `json:"JsonRootProperty,omitempty"`
	HasSelectStar       bool       `json:"HasSelectStar,omitempty"`
	ExecSourceSchema    string     `json:"ExecSourceSchema,omitempty"`
	ExecSourceProcedure string     `json:"ExecSourceProcedure,omitempty"`
	ProcedureRef        string     `json:"ProcedureRef,omitempty"`
	Columns             []Column   `json:"Columns,omitempty"`
	JsonStructure       []JsonNode `json:"JsonStructure,omitempty"`

	// RawStatement is the originating SELECT's source text, set only when
	// HasSelectStar is true and the analyzer could not enumerate the star's
	// columns statically. The orchestrator consumes it once, via
	// describeFirstResultSet(sqlStatement), to backfill Columns before this
	// descriptor is persisted; never serialized.
	RawStatement string `json:"-"`
}

// IsExecPlaceholder reports whether this set is a reference to another
// procedure's result sets rather than a directly projected SELECT — the
// generator expands it lazily rather than the analyzer or writer.
func (r *ResultSet) IsExecPlaceholder() bool {
	return r.ExecSourceProcedure != "" && len(r.Columns) == 0
}

// JsonNode describes one level of the emitted JSON hierarchy for a
// FOR JSON result set. Column aliases containing "." denote nesting; a
// JsonNode's Children mirror that structure for the generator's nested
// record synthesis.
type JsonNode struct {
	Path     string     `json:"Path"`
	IsArray  bool       `json:"IsArray,omitempty"`
	Children []JsonNode `json:"Children,omitempty"`
}
