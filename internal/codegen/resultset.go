package codegen

import (
	"fmt"
	"strings"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

// writeResultSetType emits the Go type one result set materializes into and
// returns its name. A FOR JSON set gets the nested-record tree from
// nested.go; a flat set gets one struct field per projected column, in
// source order.
func (g *Generator) writeResultSetType(body *strings.Builder, imports *importSet, schema, typeName string, rs schemamodel.ResultSet) string {
	setTypeName := ResultSetTypeName(typeName, rs.Name)

	if rs.ReturnsJson {
		imports.add("encoding/json")
		return g.writeJsonRecordType(body, imports, schema, setTypeName, rs.Columns)
	}

	// Collect field types first: a deferred-JSON column may need its own
	// struct declared ahead of this one, and Go type declarations cannot
	// nest inside this struct's braces.
	type field struct {
		name   string
		goType string
	}
	fields := make([]field, len(rs.Columns))
	for i, col := range rs.Columns {
		fieldName := PascalCase(col.Name)
		if col.ReturnsJson {
			imports.add("encoding/json")
			goType, structName := jsonColumnGoType(col)
			g.writeJsonColumnStructOnce(body, imports, schema, structName, col.Attributes)
			fields[i] = field{name: fieldName, goType: goType}
			continue
		}
		imports.addFor(col.SqlTypeName)
		fields[i] = field{name: fieldName, goType: GoFieldType(col.SqlTypeName, col.IsNullable)}
	}

	fmt.Fprintf(body, "// %s is one row of the %q result set.\n", setTypeName, rs.Name)
	fmt.Fprintf(body, "type %s struct {\n", setTypeName)
	for _, f := range fields {
		fmt.Fprintf(body, "\t%s %s\n", f.name, f.goType)
	}
	body.WriteString("}\n\n")
	return setTypeName
}

// writeScanMethod emits the Scan function that materializes *sql.Rows into
// the procedure's aggregate Result type, one result set at a time, per
// spec §4.8 steps 2-3: an ordinal lookup built once per set from
// rows.Columns(), nullable columns staged through the matching
// database/sql.Null* wrapper before being copied into the pointer field,
// and a json.Unmarshal path for FOR JSON sets that also keeps the raw text.
func (g *Generator) writeScanMethod(body *strings.Builder, imports *importSet, typeName string, sets []schemamodel.ResultSet, setTypeNames []string) {
	imports.add("database/sql")
	imports.add("fmt")

	resultType := ResultTypeName(typeName)
	fmt.Fprintf(body, "// Scan reads every result set %s produces from rows, in order.\n", typeName)
	fmt.Fprintf(body, "func (r *%s) Scan(rows *sql.Rows) error {\n", resultType)

	for i, rs := range sets {
		setTypeName := setTypeNames[i]
		fieldName := PascalCase(rs.Name)

		if i > 0 {
			body.WriteString("\tif !rows.NextResultSet() {\n")
			fmt.Fprintf(body, "\t\treturn fmt.Errorf(%q)\n", "missing result set "+rs.Name)
			body.WriteString("\t}\n")
		}

		if rs.ReturnsJson {
			writeJsonSetScan(body, imports, fieldName, setTypeName, rs.ReturnsJsonArray, rs.JsonRootProperty)
			continue
		}
		writeFlatSetScan(body, imports, fieldName, setTypeName, rs.Columns)
	}

	body.WriteString("\treturn rows.Err()\n")
	body.WriteString("}\n\n")
}

func writeFlatSetScan(body *strings.Builder, imports *importSet, fieldName, setTypeName string, columns []schemamodel.Column) {
	fmt.Fprintf(body, "\tcols, err := rows.Columns()\n")
	body.WriteString("\tif err != nil {\n\t\treturn err\n\t}\n")
	body.WriteString("\tidx := make(map[string]int, len(cols))\n")
	body.WriteString("\tfor i, c := range cols {\n\t\tidx[c] = i\n\t}\n\n")

	body.WriteString("\tfor rows.Next() {\n")
	fmt.Fprintf(body, "\t\trow, err := scan%sRow(rows, idx)\n", setTypeName)
	body.WriteString("\t\tif err != nil {\n\t\t\treturn err\n\t\t}\n")
	fmt.Fprintf(body, "\t\tr.%s = append(r.%s, *row)\n", fieldName, fieldName)
	body.WriteString("\t}\n")
	body.WriteString("\tif err := rows.Err(); err != nil {\n\t\treturn err\n\t}\n\n")

	writeRowScanHelper(body, imports, setTypeName, columns)
}

// writeRowScanHelper emits the package-level scanXxxRow helper used by
// writeFlatSetScan. Each column is staged through a matching database/sql
// wrapper type when nullable, so a NULL never needs a zero-value default
// copied into the field by accident. A deferred-JSON column is always
// staged through sql.NullString regardless of its declared nullability,
// since the driver hands back its payload as text either way, and is then
// unmarshaled into its field rather than copied across directly.
func writeRowScanHelper(body *strings.Builder, imports *importSet, setTypeName string, columns []schemamodel.Column) {
	fmt.Fprintf(body, "func scan%sRow(rows *sql.Rows, idx map[string]int) (*%s, error) {\n", setTypeName, setTypeName)
	body.WriteString("\ttargets := make([]interface{}, len(idx))\n")
	for _, col := range columns {
		varName := scanVarName(col.Name)
		if col.ReturnsJson {
			fmt.Fprintf(body, "\tvar %s sql.NullString\n", varName)
			fmt.Fprintf(body, "\ttargets[idx[%q]] = &%s\n", col.Name, varName)
			continue
		}
		t := MapSqlType(col.SqlTypeName)
		imports.addFor(col.SqlTypeName)
		if col.IsNullable && t.Name != "[]byte" {
			wrapper := nullWrapperFor(t.ScanKind)
			fmt.Fprintf(body, "\tvar %s sql.%s\n", varName, wrapper)
		} else {
			fmt.Fprintf(body, "\tvar %s %s\n", varName, t.Name)
		}
		fmt.Fprintf(body, "\ttargets[idx[%q]] = &%s\n", col.Name, varName)
	}
	body.WriteString("\tif err := rows.Scan(targets...); err != nil {\n\t\treturn nil, err\n\t}\n\n")

	fmt.Fprintf(body, "\trow := &%s{}\n", setTypeName)
	for _, col := range columns {
		varName := scanVarName(col.Name)
		fieldName := PascalCase(col.Name)
		if col.ReturnsJson {
			imports.add("encoding/json")
			writeJsonColumnAssignment(body, fieldName, varName)
			continue
		}
		t := MapSqlType(col.SqlTypeName)
		writeFieldAssignment(body, fieldName, varName, t, col.IsNullable)
	}
	body.WriteString("\treturn row, nil\n}\n\n")
}

// writeJsonColumnAssignment unmarshals a deferred-JSON column's raw text
// into its field, mirroring writeJsonSetScan's unwrap-then-decode shape for
// a single column embedded in an otherwise flat row.
func writeJsonColumnAssignment(body *strings.Builder, fieldName, varName string) {
	fmt.Fprintf(body, "\tif %s.Valid && %s.String != \"\" {\n", varName, varName)
	fmt.Fprintf(body, "\t\tif err := json.Unmarshal([]byte(%s.String), &row.%s); err != nil {\n\t\t\treturn nil, err\n\t\t}\n", varName, fieldName)
	body.WriteString("\t}\n")
}

func writeFieldAssignment(body *strings.Builder, fieldName, varName string, t GoType, isNullable bool) {
	if t.Name == "[]byte" {
		fmt.Fprintf(body, "\trow.%s = %s\n", fieldName, varName)
		return
	}

	dest := "row." + fieldName

	if !isNullable {
		// decimal.Decimal and uuid.UUID both implement sql.Scanner, so the
		// scan variable already holds the destination type.
		fmt.Fprintf(body, "\t%s = %s\n", dest, convertExpr(varName, t))
		return
	}

	fmt.Fprintf(body, "\tif %s.Valid {\n", varName)
	fmt.Fprintf(body, "\t\tv := %s\n", convertExpr(varName+"."+nullWrapperField(t.ScanKind), t))
	fmt.Fprintf(body, "\t\t%s = &v\n", dest)
	fmt.Fprintf(body, "\t}\n")
}

// convertExpr renders the Go expression that turns a scanned value into t's
// destination representation. decimal.Decimal and uuid.UUID only need
// string parsing when they were staged through sql.NullString (the
// nullable path); the non-nullable path scans directly into the target
// type via its sql.Scanner implementation.
func convertExpr(raw string, t GoType) string {
	isStringStaged := strings.HasSuffix(raw, ".String")
	switch {
	case t.Name == "int8":
		return fmt.Sprintf("int8(%s)", raw)
	case t.Name == "float32":
		return fmt.Sprintf("float32(%s)", raw)
	case t.Name == "decimal.Decimal" && isStringStaged:
		return fmt.Sprintf("decimal.RequireFromString(%s)", raw)
	case t.Name == "uuid.UUID" && isStringStaged:
		return fmt.Sprintf("uuid.MustParse(%s)", raw)
	default:
		return raw
	}
}

// nullWrapperField is the accessor field name of the database/sql.Null*
// wrapper nullWrapperFor(scanKind) selects.
func nullWrapperField(scanKind string) string {
	switch scanKind {
	case "Byte":
		return "Byte"
	case "Int16":
		return "Int16"
	case "Int32":
		return "Int32"
	case "Int64":
		return "Int64"
	case "Bool":
		return "Bool"
	case "Float64":
		return "Float64"
	case "Time":
		return "Time"
	default:
		return "String"
	}
}

func scanVarName(columnName string) string {
	return "v" + PascalCase(columnName)
}

func nullWrapperFor(scanKind string) string {
	switch scanKind {
	case "Byte":
		return "NullByte"
	case "Int16":
		return "NullInt16"
	case "Int32":
		return "NullInt32"
	case "Int64":
		return "NullInt64"
	case "Bool":
		return "NullBool"
	case "Float64":
		return "NullFloat64"
	case "Time":
		return "NullTime"
	default:
		return "NullString"
	}
}

// writeJsonSetScan emits the scan path for a FOR JSON result set: the query
// surfaces exactly one text/nvarchar(max) column holding the JSON payload,
// which is captured raw and also unmarshaled into the nested record type.
// ROOT('name') wraps the payload in a single-key object (spec §4.8 step 3),
// so that key is unwrapped before the array/object is deserialized into the
// field's own shape.
func writeJsonSetScan(body *strings.Builder, imports *importSet, fieldName, setTypeName string, isArray bool, rootProperty string) {
	varName := "raw" + fieldName
	fmt.Fprintf(body, "\tvar %s sql.NullString\n", varName)
	fmt.Fprintf(body, "\tif !rows.Next() {\n\t\treturn fmt.Errorf(%q)\n\t}\n", "missing JSON result set "+fieldName)
	fmt.Fprintf(body, "\tif err := rows.Scan(&%s); err != nil {\n\t\treturn err\n\t}\n", varName)
	fmt.Fprintf(body, "\tr.%sRawJson = %s.String\n", fieldName, varName)
	fmt.Fprintf(body, "\tif %s.Valid && %s.String != \"\" {\n", varName, varName)

	payloadExpr := fmt.Sprintf("[]byte(%s.String)", varName)
	if rootProperty != "" {
		rootVar := "root" + fieldName
		fmt.Fprintf(body, "\t\tvar %s map[string]json.RawMessage\n", rootVar)
		fmt.Fprintf(body, "\t\tif err := json.Unmarshal([]byte(%s.String), &%s); err != nil {\n\t\t\treturn err\n\t\t}\n", varName, rootVar)
		payloadExpr = fmt.Sprintf("%s[%q]", rootVar, rootProperty)
	}

	if isArray {
		fmt.Fprintf(body, "\t\tif err := json.Unmarshal(%s, &r.%s); err != nil {\n\t\t\treturn err\n\t\t}\n", payloadExpr, fieldName)
	} else {
		fmt.Fprintf(body, "\t\tvar parsed %s\n", setTypeName)
		fmt.Fprintf(body, "\t\tif err := json.Unmarshal(%s, &parsed); err != nil {\n\t\t\treturn err\n\t\t}\n", payloadExpr)
		fmt.Fprintf(body, "\t\tr.%s = &parsed\n", fieldName)
	}
	body.WriteString("\t}\n")
	body.WriteString("\tif err := rows.Err(); err != nil {\n\t\treturn err\n\t}\n\n")
}
