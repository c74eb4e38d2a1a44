package analyzer

import "strings"

// fallbackParse is the lexical fallback used when every top-level
// statement in a procedure body fails recursive-descent parsing (e.g. a
// T-SQL construct the tokenizer's keyword set does not branch on). It never
// fails: it only extracts the signals the snapshot/codegen stages can still
// use without a full result-set shape — the executed-procedure list and the statement-kind
// booleans — scanned directly off the token stream. Result sets in this
// mode are left empty, per spec §4.2.
func fallbackParse(sqlText string, content *ProcedureContent) {
	tokens := significantTokens(Tokenize(sqlText))

	for i, t := range tokens {
		lower := strings.ToLower(t.Text)
		switch lower {
		case "select":
			content.ContainsSelect = true
		case "insert":
			content.ContainsInsert = true
		case "update":
			content.ContainsUpdate = true
		case "delete":
			content.ContainsDelete = true
		case "merge":
			content.ContainsMerge = true
		case "openjson":
			content.ContainsOpenJson = true
		case "exec", "execute":
			if ref, ok := readExecTarget(tokens[i+1:]); ok {
				content.ExecutedProcedures = append(content.ExecutedProcedures, ref)
			}
		}
	}
}

// readExecTarget reads the procedure name following an EXEC/EXECUTE
// keyword, tolerating a leading "@status =" return-value assignment.
func readExecTarget(tokens []Token) (string, bool) {
	i := 0
	if i < len(tokens) && tokens[i].Kind == TokenVariable {
		if i+1 < len(tokens) && tokens[i+1].Text == "=" {
			i += 2
		}
	}
	if i >= len(tokens) {
		return "", false
	}
	name, _ := readQualifiedName(tokens[i:])
	if name == "" {
		return "", false
	}
	return name, true
}
