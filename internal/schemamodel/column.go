package schemamodel

// Column (also referred to as FieldDescriptor in spec prose) describes one
// projected field of a ResultSet, or one entry of
// ProcedureDescriptor.OutputFields.
type Column struct {
	Name                  string `json:"Name"`
	PropertyName          string `json:"PropertyName"`
	SqlTypeName           string `json:"SqlTypeName"`
	ClrTypeHint           string `json:"ClrTypeHint,omitempty"`
	IsNullable            bool   `json:"IsNullable"`
	MaxLength             int    `json:"MaxLength,omitempty"`
	Precision             *int   `json:"Precision,omitempty"`
	Scale                 *int   `json:"Scale,omitempty"`
	SourceSchema          string `json:"SourceSchema,omitempty"`
	SourceTable           string `json:"SourceTable,omitempty"`
	SourceColumn          string `json:"SourceColumn,omitempty"`
	ReturnsJson           bool   `json:"ReturnsJson,omitempty"`
	ReturnsJsonArray      bool   `json:"ReturnsJsonArray,omitempty"`
	ReturnsUnknownJson    bool   `json:"ReturnsUnknownJson,omitempty"`
	JsonRootProperty      string `json:"JsonRootProperty,omitempty"`
	JsonIncludeNullValues bool   `json:"JsonIncludeNullValues,omitempty"`
	JsonElementSqlType    string `json:"JsonElementSqlType,omitempty"`
	FunctionRef           string `json:"FunctionRef,omitempty"`
	DeferredJsonExpansion bool   `json:"DeferredJsonExpansion,omitempty"`
	Attributes            []string `json:"Attributes,omitempty"`
	UserTypeSchema        string `json:"UserTypeSchema,omitempty"`
	UserTypeName          string `json:"UserTypeName,omitempty"`

	// ForcedNullable records that nullability was promoted true by a join
	// side or CAST/CONVERT rule rather than read directly off the binding;
	// persisted rather than recomputed on read, per the analyzer's own
	// determination at parse time.
	ForcedNullable bool `json:"ForcedNullable,omitempty"`
}

// HasSourceBinding reports whether the column's value is traceable back to a
// concrete base-table column, as opposed to an expression or literal.
func (c *Column) HasSourceBinding() bool {
	return c.SourceSchema != "" && c.SourceTable != "" && c.SourceColumn != ""
}

// IsNestedPath reports whether PropertyName denotes a nested JSON object
// path ("Parent.Child") rather than a flat projected column.
func (c *Column) IsNestedPath() bool {
	for _, r := range c.PropertyName {
		if r == '.' {
			return true
		}
	}
	return false
}
