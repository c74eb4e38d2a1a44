package analyzer

import (
	"strings"

	"github.com/xtraq/xtraq/internal/diagnostics"
)

// Parser walks the token stream of one procedure body and accumulates a
// ProcedureContent, in the same processStatement-dispatch idiom as the
// teacher's internal/ir.Parser: a struct holding parse state, a top-level
// dispatch switch over statement kinds, and dedicated parseXxx methods that
// build schemamodel nodes directly rather than a generic AST the caller
// re-walks.
type Parser struct {
	currentSchema string
	resolvers     ResolverContext
	diag          *diagnostics.Handle
	content       *ProcedureContent
	subjectName   string // schema.procedure, for diagnostic tagging
}

// Parse analyzes sqlText (one procedure's body) and returns its content
// plus any diagnostics recorded along the way. It never panics: a
// statement the recursive-descent walker cannot handle is recorded as a
// parse error and parsing continues with the next statement; if every
// statement fails, the fallback lexical parser (see fallback.go) takes
// over and UsedFallbackParser is set.
func Parse(sqlText, currentSchema, subjectName string, resolvers ResolverContext, diag *diagnostics.Handle) *ProcedureContent {
	if diag == nil {
		diag = diagnostics.New()
	}

	p := &Parser{
		currentSchema: currentSchema,
		resolvers:     resolvers,
		diag:          diag,
		subjectName:   subjectName,
		content:       &ProcedureContent{},
	}

	statements := splitStatements(sqlText)
	p.content.Statements = statements

	succeeded := 0
	for _, stmt := range statements {
		if err := p.processStatement(stmt); err != nil {
			p.content.ParseErrorCount++
			if p.content.FirstParseError == "" {
				p.content.FirstParseError = err.Error()
			}
			p.diag.Warn(p.subjectName, "parse-fallback", "%v", err)
			continue
		}
		succeeded++
	}

	if succeeded == 0 && len(statements) > 0 {
		fallbackParse(sqlText, p.content)
		p.content.UsedFallbackParser = true
	}

	return p.content
}

// processStatement dispatches one top-level statement to its parser by
// leading keyword, mirroring the teacher's processStatement switch over
// pg_query node kinds.
func (p *Parser) processStatement(stmt string) error {
	tokens := significantTokens(Tokenize(stmt))
	if len(tokens) == 0 {
		return nil
	}

	lead := strings.ToLower(tokens[0].Text)
	switch lead {
	case "select":
		return p.parseSelectStatement(tokens, stmt)
	case "exec", "execute":
		return p.parseExecStatement(tokens)
	case "insert":
		p.content.ContainsInsert = true
		return p.parseInsertSelect(tokens)
	case "update":
		p.content.ContainsUpdate = true
		return nil
	case "delete":
		p.content.ContainsDelete = true
		return nil
	case "merge":
		p.content.ContainsMerge = true
		return nil
	default:
		// Declarations, control flow (IF/WHILE/BEGIN/SET), and anything
		// else the generator never needs a result-set shape for.
		return nil
	}
}

// significantTokens drops comments and the trailing EOF marker so callers
// can index straight into meaningful lexemes.
func significantTokens(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind == TokenComment || t.Kind == TokenEOF {
			continue
		}
		out = append(out, t)
	}
	return out
}

// splitStatements breaks a procedure body into top-level statements on ';'
// boundaries, tracking paren depth and string/bracket literals so a
// semicolon inside a subquery or string never splits early.
func splitStatements(sqlText string) []string {
	var out []string
	var buf strings.Builder
	depth := 0
	runes := []rune(sqlText)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case '\'':
			buf.WriteRune(r)
			i++
			for i < len(runes) {
				buf.WriteRune(runes[i])
				if runes[i] == '\'' {
					if i+1 < len(runes) && runes[i+1] == '\'' {
						i++
						buf.WriteRune(runes[i])
						i++
						continue
					}
					break
				}
				i++
			}
			continue
		case ';':
			if depth == 0 {
				if s := strings.TrimSpace(buf.String()); s != "" {
					out = append(out, s)
				}
				buf.Reset()
				continue
			}
		}
		buf.WriteRune(r)
	}

	if s := strings.TrimSpace(buf.String()); s != "" {
		out = append(out, s)
	}
	return out
}
