package codegen

import (
	"fmt"
	"strings"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

// TableTypeName is the Pascal-case Go type name for a table type, shared by
// the DTO this file emits and any procedure input field that references it
// as a table-valued parameter.
func TableTypeName(name string) string {
	return PascalCase(name)
}

// GenerateTableType emits one DTO struct per user-defined table type — the
// row shape a table-valued parameter's caller populates before passing it to
// an Exec function. Table-valued parameters themselves are plain Go slices
// of this type; Exec never builds a TVP wire value itself (that is
// database/sql driver territory), so this file only needs the row shape.
func GenerateTableType(tt *schemamodel.TableTypeInfo) File {
	typeName := TableTypeName(tt.Name)
	imports := newImportSet()

	var body strings.Builder
	fmt.Fprintf(&body, "// %s is the row shape of the %s.%s table type.\n", typeName, tt.Schema, tt.Name)
	fmt.Fprintf(&body, "type %s struct {\n", typeName)
	for _, col := range tt.Columns {
		fieldName := PascalCase(col.Name)
		goType := GoFieldType(col.SqlType, col.IsNullable)
		imports.addFor(col.SqlType)
		fmt.Fprintf(&body, "\t%s %s\n", fieldName, goType)
	}
	body.WriteString("}\n")

	var out strings.Builder
	out.WriteString("package " + packageNameFor(tt.Schema) + "\n\n")
	out.WriteString(imports.render())
	out.WriteString(body.String())

	return File{
		Schema:   tt.Schema,
		FileName: strings.ToLower(typeName) + "_tabletype.go",
		Source:   NormalizeWhitespace(out.String()),
	}
}
