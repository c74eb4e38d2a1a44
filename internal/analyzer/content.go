package analyzer

import "github.com/xtraq/xtraq/internal/schemamodel"

// ProcedureContent is the analyzer's output for one procedure body: the
// statement-shape booleans, the ordered result sets, and the parser's own
// health signals (never an error — a parse failure degrades to the
// fallback lexical parser rather than aborting the run).
type ProcedureContent struct {
	ContainsSelect   bool
	ContainsInsert   bool
	ContainsUpdate   bool
	ContainsDelete   bool
	ContainsMerge    bool
	ContainsOpenJson bool

	Statements         []string
	ResultSets         []schemamodel.ResultSet
	ExecutedProcedures []string

	ParseErrorCount    int
	UsedFallbackParser bool
	FirstParseError    string
}
