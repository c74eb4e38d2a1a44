package analyzer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

// tableBinding tracks one FROM-clause or JOIN-clause table reference, so
// column projections of the form alias.column (or table.column) can be
// traced back to a concrete (schema, table) pair.
type tableBinding struct {
	schema         string
	table          string
	alias          string
	forcedNullable bool // true when reached only through a non-preserved outer-join side
}

// parseSelectStatement handles a single top-level SELECT, building one
// ResultSet per spec §4.2's result-set-detection contract. rawStatement is
// the statement's original source text, carried onto the ResultSet only
// when its star projection could not be statically enumerated, so the
// orchestrator can later resolve it via describeFirstResultSet.
func (p *Parser) parseSelectStatement(tokens []Token, rawStatement string) error {
	p.content.ContainsSelect = true

	if containsKeyword(tokens, "openjson") {
		p.content.ContainsOpenJson = true
	}

	fromIdx := findTopLevelKeyword(tokens, "from", 0)
	var projectionTokens, fromTokens []Token
	if fromIdx < 0 {
		projectionTokens = tokens[1:]
	} else {
		projectionTokens = tokens[1:fromIdx]
		fromTokens = tokens[fromIdx+1:]
	}

	bindings, hasOuterJoin := parseFromClause(fromTokens, p.currentSchema)

	forJSON, jsonRoot, jsonArray, jsonIncludeNulls := detectForJSON(tokens)

	columns, structure := p.parseProjection(projectionTokens, bindings, hasOuterJoin)

	rs := schemamodel.ResultSet{
		Index:            len(p.content.ResultSets),
		Name:             fmt.Sprintf("Result%d", len(p.content.ResultSets)+1),
		Columns:          columns,
		ReturnsJson:      forJSON,
		ReturnsJsonArray: forJSON && jsonArray,
		JsonRootProperty: jsonRoot,
		HasSelectStar:    containsStar(projectionTokens),
	}
	if rs.HasSelectStar && len(rs.Columns) == 0 {
		rs.RawStatement = rawStatement
	}
	if forJSON {
		rs.JsonStructure = structure
		if jsonIncludeNulls {
			for i := range rs.Columns {
				rs.Columns[i].JsonIncludeNullValues = true
			}
		}
	}

	p.content.ResultSets = append(p.content.ResultSets, rs)
	return nil
}

// parseInsertSelect only cares whether an INSERT statement embeds a nested
// SELECT (for OPENJSON/containsSelect signaling); INSERT never itself
// produces a ResultSet.
func (p *Parser) parseInsertSelect(tokens []Token) error {
	if containsKeyword(tokens, "select") {
		p.content.ContainsSelect = true
	}
	if containsKeyword(tokens, "openjson") {
		p.content.ContainsOpenJson = true
	}
	return nil
}

// parseFromClause extracts table bindings from a FROM clause plus any JOIN
// clauses, tagging bindings reached only through a LEFT/RIGHT/FULL OUTER
// join as forcedNullable — the non-preserved side of the join per spec
// §4.2's nullability rule (b).
func parseFromClause(tokens []Token, currentSchema string) ([]tableBinding, bool) {
	var bindings []tableBinding
	hasOuterJoin := false
	i := 0
	depth := 0
	pendingOuter := false

	for i < len(tokens) {
		t := tokens[i]
		lower := strings.ToLower(t.Text)

		switch {
		case t.Kind == TokenPunct && t.Text == "(":
			depth++
			i++
			continue
		case t.Kind == TokenPunct && t.Text == ")":
			if depth > 0 {
				depth--
			}
			i++
			continue
		case depth > 0:
			i++
			continue
		case lower == "left" || lower == "right" || lower == "full":
			// LEFT: the joined table is the non-preserved side; RIGHT: every
			// table bound so far is; FULL: both are.
			if lower != "right" {
				pendingOuter = true
			}
			if lower != "left" {
				for k := range bindings {
					bindings[k].forcedNullable = true
				}
			}
			hasOuterJoin = true
			i++
			continue
		case lower == "join" || lower == "inner" || lower == "cross":
			i++
			continue
		case lower == "on":
			// Skip the join predicate up to the next JOIN/WHERE/GROUP/etc.
			for i < len(tokens) {
				l := strings.ToLower(tokens[i].Text)
				if l == "join" || l == "left" || l == "right" || l == "full" || l == "inner" ||
					l == "where" || l == "group" || l == "order" || l == "for" {
					break
				}
				i++
			}
			pendingOuter = false
			continue
		case lower == "where" || lower == "group" || lower == "order" || lower == "for":
			return bindings, hasOuterJoin
		case t.Kind == TokenIdent || t.Kind == TokenQuotedIdent:
			name, consumed := readQualifiedName(tokens[i:])
			i += consumed
			schema, table := splitSchemaTable(name, currentSchema)
			alias := table
			if i < len(tokens) {
				if strings.ToLower(tokens[i].Text) == "as" {
					i++
				}
				if i < len(tokens) && (tokens[i].Kind == TokenIdent || tokens[i].Kind == TokenQuotedIdent) &&
					!isClauseKeyword(tokens[i].Text) {
					alias = identText(tokens[i])
					i++
				}
			}
			bindings = append(bindings, tableBinding{
				schema:         schema,
				table:          table,
				alias:          alias,
				forcedNullable: pendingOuter,
			})
			pendingOuter = false
			continue
		default:
			i++
		}
	}

	return bindings, hasOuterJoin
}

func isClauseKeyword(text string) bool {
	switch strings.ToLower(text) {
	case "on", "where", "group", "order", "for", "join", "left", "right", "full", "inner", "cross":
		return true
	default:
		return false
	}
}

// parseProjection splits the SELECT list on top-level commas and resolves
// each item against bindings.
func (p *Parser) parseProjection(tokens []Token, bindings []tableBinding, hasOuterJoin bool) ([]schemamodel.Column, []schemamodel.JsonNode) {
	items := splitTopLevel(tokens, ",")

	var columns []schemamodel.Column
	for _, item := range items {
		if len(item) == 1 && item[0].Text == "*" {
			continue // select-star columns are not individually enumerable without a live schema
		}
		col := p.parseColumnItem(item, bindings)
		columns = append(columns, col)
	}

	return columns, buildJsonStructure(columns)
}

// parseColumnItem resolves one projection item into a Column, applying
// CAST/CONVERT capture, source-column binding, and nullability promotion.
func (p *Parser) parseColumnItem(tokens []Token, bindings []tableBinding) schemamodel.Column {
	tokens = trimEdgeParens(tokens)
	if len(tokens) == 0 {
		return schemamodel.Column{}
	}

	alias, exprTokens := splitAlias(tokens)

	lower := strings.ToLower(exprTokens[0].Text)
	switch lower {
	case "cast":
		return p.parseCast(exprTokens, alias)
	case "convert":
		return p.parseConvert(exprTokens, alias)
	case "json_query", "json_value", "json_modify":
		return p.parseJSONBuiltin(lower, exprTokens, alias)
	case "null":
		name := alias
		if name == "" {
			name = "Expr"
		}
		return schemamodel.Column{Name: name, PropertyName: name, SqlTypeName: "", IsNullable: true}
	}

	if schema, table, column, forcedNullable, ok := resolveQualifiedColumn(exprTokens, bindings); ok {
		name := alias
		if name == "" {
			name = column
		}
		sqlType, maxLen, isNullable, found := p.resolvers.ColumnType(schema, table, column)
		col := schemamodel.Column{
			Name:         name,
			PropertyName: name,
			SqlTypeName:  sqlType,
			MaxLength:    maxLen,
			IsNullable:   isNullable,
			SourceSchema: schema,
			SourceTable:  table,
			SourceColumn: column,
		}
		if !found {
			p.diag.Info(p.subjectName, "column-type-miss", "%s.%s.%s", schema, table, column)
		}
		if forcedNullable {
			col.IsNullable = true
			col.ForcedNullable = true
		}
		return col
	}

	name := alias
	if name == "" {
		name = exprText(exprTokens)
	}
	return schemamodel.Column{Name: name, PropertyName: name, ReturnsUnknownJson: false}
}

// parseCast handles CAST(expr AS Type[(len)]).
func (p *Parser) parseCast(tokens []Token, alias string) schemamodel.Column {
	asIdx := findTopLevelKeyword(tokens, "as", 0)
	if asIdx < 0 {
		return schemamodel.Column{Name: alias, PropertyName: alias}
	}
	typeTokens := trimEdgeParens(tokens)
	_ = typeTokens
	inner := tokens[1:]
	inner = trimEdgeParens(inner)
	asIdx = findTopLevelKeyword(inner, "as", 0)
	if asIdx < 0 || asIdx+1 >= len(inner) {
		return schemamodel.Column{Name: alias, PropertyName: alias}
	}
	sqlType, maxLen, precision, scale := parseTypeSpec(inner[asIdx+1:])
	name := alias
	if name == "" {
		name = "Expr"
	}
	col := schemamodel.Column{Name: name, PropertyName: name, SqlTypeName: sqlType, MaxLength: maxLen}
	if precision != nil {
		col.Precision = precision
	}
	if scale != nil {
		col.Scale = scale
	}
	return col
}

// parseConvert handles CONVERT(Type[(len)], expr).
func (p *Parser) parseConvert(tokens []Token, alias string) schemamodel.Column {
	inner := trimEdgeParens(tokens[1:])
	parts := splitTopLevel(inner, ",")
	name := alias
	if name == "" {
		name = "Expr"
	}
	if len(parts) == 0 {
		return schemamodel.Column{Name: name, PropertyName: name}
	}
	sqlType, maxLen, precision, scale := parseTypeSpec(parts[0])
	col := schemamodel.Column{Name: name, PropertyName: name, SqlTypeName: sqlType, MaxLength: maxLen}
	if precision != nil {
		col.Precision = precision
	}
	if scale != nil {
		col.Scale = scale
	}
	return col
}

// parseJSONBuiltin handles JSON_QUERY/JSON_VALUE/JSON_MODIFY, which are
// never serialized as external function references (spec §4.2). A
// JSON_QUERY wrapping a scalar function call is the deferredJsonExpansion
// shape the enricher later resolves via FunctionJsonDescriptor.
func (p *Parser) parseJSONBuiltin(fn string, tokens []Token, alias string) schemamodel.Column {
	name := alias
	if name == "" {
		name = "Expr"
	}
	col := schemamodel.Column{Name: name, PropertyName: name, SqlTypeName: "nvarchar", MaxLength: -1, IsNullable: true}

	if fn == "json_query" {
		inner := trimEdgeParens(tokens[1:])
		args := splitTopLevel(inner, ",")
		if len(args) > 0 {
			if schema, fnName, ok := detectFunctionCall(args[0]); ok {
				col.DeferredJsonExpansion = true
				col.FunctionRef = schemamodel.FormatTypeRef("", schema, fnName)
				if sqlType, found := p.resolvers.FunctionReturn(schema, fnName); found {
					col.JsonElementSqlType = sqlType
				}
			}
		}
	}
	return col
}

// resolveQualifiedColumn recognizes the alias.column / table.column shape
// and maps alias back to its bound (schema, table), carrying forward the
// binding's own forcedNullable rather than re-deriving it from the
// resolved table name, since two bindings can share a table name under
// different aliases.
func resolveQualifiedColumn(tokens []Token, bindings []tableBinding) (schema, table, column string, forcedNullable bool, ok bool) {
	if len(tokens) != 3 || tokens[1].Text != "." {
		return "", "", "", false, false
	}
	aliasOrTable := identText(tokens[0])
	col := identText(tokens[2])

	for _, b := range bindings {
		if strings.EqualFold(b.alias, aliasOrTable) || strings.EqualFold(b.table, aliasOrTable) {
			return b.schema, b.table, col, b.forcedNullable, true
		}
	}
	if len(bindings) == 1 {
		return bindings[0].schema, bindings[0].table, col, bindings[0].forcedNullable, true
	}
	return "", "", "", false, false
}

// detectFunctionCall recognizes "schema.func(...)" or "func(...)".
func detectFunctionCall(tokens []Token) (schema, name string, ok bool) {
	if len(tokens) < 3 {
		return "", "", false
	}
	if tokens[1].Text == "." && len(tokens) >= 5 && tokens[3].Text == "(" {
		return identText(tokens[0]), identText(tokens[2]), true
	}
	if tokens[1].Text == "(" {
		return "", identText(tokens[0]), true
	}
	return "", "", false
}

// splitAlias separates a trailing "AS alias" or implicit "expr alias" from
// the expression tokens.
func splitAlias(tokens []Token) (alias string, expr []Token) {
	if len(tokens) == 0 {
		return "", tokens
	}
	if len(tokens) >= 2 {
		last := tokens[len(tokens)-1]
		prev := tokens[len(tokens)-2]
		if strings.ToLower(prev.Text) == "as" && (last.Kind == TokenIdent || last.Kind == TokenQuotedIdent) {
			return identText(last), tokens[:len(tokens)-2]
		}
	}
	if len(tokens) >= 2 {
		last := tokens[len(tokens)-1]
		if (last.Kind == TokenIdent || last.Kind == TokenQuotedIdent) && tokens[len(tokens)-2].Text != "." {
			return identText(last), tokens[:len(tokens)-1]
		}
	}
	return "", tokens
}

func identText(t Token) string {
	if t.Kind == TokenQuotedIdent {
		return unquoteIdent(t.Text)
	}
	return t.Text
}

func exprText(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Text)
	}
	return sb.String()
}

// parseTypeSpec reads a "Type" or "Type(len)" or "Type(p,s)" token
// sequence into its base name plus numeric qualifiers.
func parseTypeSpec(tokens []Token) (sqlType string, maxLength int, precision, scale *int) {
	if len(tokens) == 0 {
		return "", 0, nil, nil
	}
	sqlType = strings.ToLower(identText(tokens[0]))
	if len(tokens) < 2 || tokens[1].Text != "(" {
		return sqlType, 0, nil, nil
	}
	inner := trimEdgeParens(tokens[1:])
	parts := splitTopLevel(inner, ",")
	if len(parts) == 1 {
		text := exprText(parts[0])
		if strings.EqualFold(text, "max") {
			return sqlType, -1, nil, nil
		}
		if n, err := strconv.Atoi(text); err == nil {
			return sqlType, n, nil, nil
		}
	} else if len(parts) == 2 {
		p, err1 := strconv.Atoi(exprText(parts[0]))
		s, err2 := strconv.Atoi(exprText(parts[1]))
		if err1 == nil && err2 == nil {
			return sqlType, 0, &p, &s
		}
	}
	return sqlType, 0, nil, nil
}

// trimEdgeParens drops one layer of enclosing parentheses, if the whole
// token slice is wrapped in exactly one.
func trimEdgeParens(tokens []Token) []Token {
	if len(tokens) < 2 || tokens[0].Text != "(" || tokens[len(tokens)-1].Text != ")" {
		return tokens
	}
	depth := 0
	for i, t := range tokens {
		if t.Text == "(" {
			depth++
		} else if t.Text == ")" {
			depth--
			if depth == 0 && i != len(tokens)-1 {
				return tokens
			}
		}
	}
	return tokens[1 : len(tokens)-1]
}

// splitTopLevel splits tokens on sep at paren depth 0.
func splitTopLevel(tokens []Token, sep string) [][]Token {
	var out [][]Token
	var cur []Token
	depth := 0
	for _, t := range tokens {
		switch t.Text {
		case "(":
			depth++
		case ")":
			depth--
		}
		if depth == 0 && t.Text == sep {
			out = append(out, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	out = append(out, cur)
	return out
}

// findTopLevelKeyword returns the index of keyword at paren depth 0,
// starting from start, or -1 if absent.
func findTopLevelKeyword(tokens []Token, keyword string, start int) int {
	depth := 0
	for i := start; i < len(tokens); i++ {
		switch tokens[i].Text {
		case "(":
			depth++
		case ")":
			depth--
		}
		if depth == 0 && strings.EqualFold(tokens[i].Text, keyword) {
			return i
		}
	}
	return -1
}

func containsKeyword(tokens []Token, keyword string) bool {
	for _, t := range tokens {
		if strings.EqualFold(t.Text, keyword) {
			return true
		}
	}
	return false
}

func containsStar(tokens []Token) bool {
	for _, t := range tokens {
		if t.Text == "*" {
			return true
		}
	}
	return false
}

// readQualifiedName reads a schema.name or name sequence starting at
// tokens[0], returning the dotted text and the number of tokens consumed.
func readQualifiedName(tokens []Token) (string, int) {
	if len(tokens) == 0 {
		return "", 0
	}
	name := identText(tokens[0])
	i := 1
	for i+1 < len(tokens) && tokens[i].Text == "." {
		name += "." + identText(tokens[i+1])
		i += 2
	}
	return name, i
}

// splitSchemaTable splits a dotted name into (schema, table), defaulting
// to currentSchema when unqualified.
func splitSchemaTable(name, currentSchema string) (schema, table string) {
	parts := strings.Split(name, ".")
	if len(parts) == 1 {
		return currentSchema, parts[0]
	}
	return parts[len(parts)-2], parts[len(parts)-1]
}

// detectForJSON scans the tail of a SELECT's tokens for a top-level
// FOR JSON PATH|AUTO clause and its ROOT/WITHOUT_ARRAY_WRAPPER/
// INCLUDE_NULL_VALUES options.
func detectForJSON(tokens []Token) (forJSON bool, rootProperty string, isArray bool, includeNulls bool) {
	forIdx := -1
	depth := 0
	for i, t := range tokens {
		switch t.Text {
		case "(":
			depth++
		case ")":
			depth--
		}
		if depth == 0 && strings.EqualFold(t.Text, "for") && i+1 < len(tokens) && strings.EqualFold(tokens[i+1].Text, "json") {
			forIdx = i
		}
	}
	if forIdx < 0 {
		return false, "", false, false
	}

	isArray = true
	rest := tokens[forIdx+2:]
	for i := 0; i < len(rest); i++ {
		lower := strings.ToLower(rest[i].Text)
		switch lower {
		case "without_array_wrapper":
			isArray = false
		case "root":
			if i+1 < len(rest) && rest[i+1].Text == "(" {
				j := i + 2
				for j < len(rest) && rest[j].Text != ")" {
					if rest[j].Kind == TokenString {
						rootProperty = strings.Trim(rest[j].Text, "'")
					}
					j++
				}
			}
		case "include_null_values":
			includeNulls = true
		}
	}

	return true, rootProperty, isArray, includeNulls
}

// buildJsonStructure builds the nested JsonNode tree implied by "."-joined
// property aliases, per spec §3's jsonStructure contract.
func buildJsonStructure(columns []schemamodel.Column) []schemamodel.JsonNode {
	type node struct {
		children map[string]*node
	}
	root := &node{children: map[string]*node{}}

	for _, col := range columns {
		parts := strings.Split(col.PropertyName, ".")
		cur := root
		for _, part := range parts {
			if part == "" {
				continue
			}
			child, ok := cur.children[part]
			if !ok {
				child = &node{children: map[string]*node{}}
				cur.children[part] = child
			}
			cur = child
		}
	}

	var convert func(n *node, path string) []schemamodel.JsonNode
	convert = func(n *node, path string) []schemamodel.JsonNode {
		if len(n.children) == 0 {
			return nil
		}
		var out []schemamodel.JsonNode
		for name, child := range n.children {
			childPath := name
			if path != "" {
				childPath = path + "." + name
			}
			out = append(out, schemamodel.JsonNode{
				Path:     childPath,
				Children: convert(child, childPath),
			})
		}
		return out
	}

	return convert(root, "")
}
