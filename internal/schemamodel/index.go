package schemamodel

// SnapshotIndex is the manifest for incremental snapshot/build runs: every
// persisted artifact is represented by a lightweight entry carrying its
// content hash, so the planner can compare against a prior run without
// reading every artifact body.
type SnapshotIndex struct {
	SchemaVersion     int                    `json:"SchemaVersion"`
	Fingerprint       string                 `json:"Fingerprint"`
	Parser            ParserInfo             `json:"Parser"`
	Stats             IndexStats             `json:"Stats"`
	Procedures        []ProcedureIndexEntry  `json:"Procedures,omitempty"`
	TableTypes        []ObjectIndexEntry     `json:"TableTypes,omitempty"`
	UserDefinedTypes  []ObjectIndexEntry     `json:"UserDefinedTypes,omitempty"`
	Tables            []ObjectIndexEntry     `json:"Tables,omitempty"`
	Functions         []ObjectIndexEntry     `json:"Functions,omitempty"`
}

// ParserInfo records the tool and parser grammar versions that produced an
// index, so a parser upgrade is detectable even when the target database
// has not changed.
type ParserInfo struct {
	ToolVersion    string `json:"ToolVersion"`
	ParserVersion  string `json:"ParserVersion"`
}

// IndexStats summarizes the counts of each artifact family in an index, for
// the CLI's run summary.
type IndexStats struct {
	ProcedureCount       int `json:"ProcedureCount"`
	TableTypeCount       int `json:"TableTypeCount"`
	UserDefinedTypeCount int `json:"UserDefinedTypeCount"`
	TableCount           int `json:"TableCount"`
	FunctionCount        int `json:"FunctionCount"`
}

// ProcedureIndexEntry is one procedure's manifest row: its artifact
// location, content hash, and the modified-tick used by the planner to
// detect staleness, plus per-result-set summary metadata the build phase
// needs without re-reading the full artifact.
type ProcedureIndexEntry struct {
	Schema        string                 `json:"Schema"`
	Name          string                 `json:"Name"`
	File          string                 `json:"File"`
	Hash          string                 `json:"Hash"`
	ModifiedTicks int64                  `json:"ModifiedTicks"`
	ResultSets    []ResultSetIndexEntry  `json:"ResultSets,omitempty"`
}

// ResultSetIndexEntry summarizes one result set for the index, enough for
// the planner's EXEC-caller invalidation walk without opening the artifact.
type ResultSetIndexEntry struct {
	Index               int    `json:"Index"`
	Name                string `json:"Name"`
	ExecSourceSchema    string `json:"ExecSourceSchema,omitempty"`
	ExecSourceProcedure string `json:"ExecSourceProcedure,omitempty"`
}

// ObjectIndexEntry is the manifest row shared by table types, user-defined
// types, tables, and functions — non-procedure artifacts that do not carry
// a modified-tick (they are recomputed whenever referenced, not
// independently tracked for staleness).
type ObjectIndexEntry struct {
	Schema string `json:"Schema"`
	Name   string `json:"Name"`
	File   string `json:"File"`
	Hash   string `json:"Hash"`
}
