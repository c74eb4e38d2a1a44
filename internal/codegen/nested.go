package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

// jsonNode is the nested-record tree built from "."-separated column
// aliases — spec §4.8 step 4: "For columns containing '.', construct
// nested record types recursively; the root type references the nested
// ones by property name." Underscores remain literal, so only "." splits.
type jsonNode struct {
	children map[string]*jsonNode
	column   *schemamodel.Column // set only on a leaf
	order    int
}

// buildJsonTree groups a FOR-JSON result set's flat column list by their
// dotted PropertyName into a tree, preserving source order for determinism.
func buildJsonTree(columns []schemamodel.Column) *jsonNode {
	root := &jsonNode{children: map[string]*jsonNode{}}
	for i, col := range columns {
		parts := strings.Split(col.PropertyName, ".")
		cur := root
		for depth, part := range parts {
			if part == "" {
				continue
			}
			child, ok := cur.children[part]
			if !ok {
				child = &jsonNode{children: map[string]*jsonNode{}, order: i}
				cur.children[part] = child
			}
			cur = child
			if depth == len(parts)-1 {
				c := col
				cur.column = &c
			}
		}
	}
	return root
}

// writeJsonRecordType emits rootTypeName and every nested record type its
// tree requires, returning rootTypeName unchanged for caller convenience.
func (g *Generator) writeJsonRecordType(body *strings.Builder, imports *importSet, schema, rootTypeName string, columns []schemamodel.Column) string {
	tree := buildJsonTree(columns)
	g.emitNodeType(body, imports, schema, rootTypeName, tree)
	return rootTypeName
}

func (g *Generator) emitNodeType(body *strings.Builder, imports *importSet, schema, typeName string, node *jsonNode) {
	type field struct {
		name  string
		order int
		text  string
	}
	var fields []field

	names := make([]string, 0, len(node.children))
	for name := range node.children {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return node.children[names[i]].order < node.children[names[j]].order })

	for _, name := range names {
		child := node.children[name]
		fieldName := SanitizeJSONAlias(name)

		if len(child.children) > 0 {
			childTypeName := typeName + PascalCase(name)
			g.emitNodeType(body, imports, schema, childTypeName, child)
			fields = append(fields, field{name: fieldName, order: child.order, text: fmt.Sprintf("\t%s *%s `json:\"%s,omitempty\"`\n", fieldName, childTypeName, name)})
			continue
		}

		col := child.column
		if col == nil {
			continue
		}

		if col.ReturnsJson {
			imports.add("encoding/json")
			fieldType, structName := jsonColumnGoType(*col)
			g.writeJsonColumnStructOnce(body, imports, schema, structName, col.Attributes)
			fields = append(fields, field{name: fieldName, order: child.order, text: fmt.Sprintf("\t%s %s `json:\"%s,omitempty\"`\n", fieldName, fieldType, name)})
			continue
		}

		imports.addFor(col.SqlTypeName)
		goType := GoFieldType(col.SqlTypeName, col.IsNullable)
		fields = append(fields, field{name: fieldName, order: child.order, text: fmt.Sprintf("\t%s %s `json:\"%s,omitempty\"`\n", fieldName, goType, name)})
	}

	fmt.Fprintf(body, "type %s struct {\n", typeName)
	for _, f := range fields {
		body.WriteString(f.text)
	}
	body.WriteString("}\n\n")
}

// jsonColumnGoType resolves the Go field type for a column whose JSON shape
// came from deferred function expansion (spec §4.4 step 4): a named struct
// with one json.RawMessage field per property the function's FOR JSON body
// projected, when that field list is known, or json.RawMessage itself
// otherwise — the function's own column types are never visible from here.
// Returns the struct type name to emit, or "" when no named type is needed.
func jsonColumnGoType(col schemamodel.Column) (fieldType string, structTypeName string) {
	if len(col.Attributes) == 0 {
		if col.ReturnsJsonArray {
			return "[]json.RawMessage", ""
		}
		return "json.RawMessage", ""
	}
	if col.ReturnsJsonArray {
		return "[]" + col.SqlTypeName, col.SqlTypeName
	}
	return "*" + col.SqlTypeName, col.SqlTypeName
}

// writeJsonColumnStructOnce emits structName (with one json.RawMessage field
// per fieldNames entry) the first time it is needed for schema's package;
// later columns referencing the same function within the same schema reuse
// the declaration already written to an earlier file in that package.
func (g *Generator) writeJsonColumnStructOnce(body *strings.Builder, imports *importSet, schema, structName string, fieldNames []string) {
	if structName == "" {
		return
	}
	key := strings.ToLower(schema + "." + structName)
	if g.jsonColumnTypes[key] {
		return
	}
	g.jsonColumnTypes[key] = true

	imports.add("encoding/json")
	fmt.Fprintf(body, "// %s is the shape of a JSON_QUERY-projected function column; its field\n", structName)
	fmt.Fprintf(body, "// types are not known at generation time, so each is kept as raw JSON.\n")
	fmt.Fprintf(body, "type %s struct {\n", structName)
	for _, name := range fieldNames {
		fmt.Fprintf(body, "\t%s json.RawMessage `json:\"%s,omitempty\"`\n", SanitizeJSONAlias(name), name)
	}
	body.WriteString("}\n\n")
}
