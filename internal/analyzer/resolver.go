package analyzer

// ColumnTypeResolver answers the concrete SQL type of a base-table or view
// column. A miss returns ("", 0, false, false) — the analyzer never
// performs I/O itself, so every resolver is a pure callback supplied by the
// caller (backed by a snapshot-aware cache in production, and by a map in
// tests).
type ColumnTypeResolver func(schema, table, column string) (sqlType string, maxLength int, isNullable bool, found bool)

// UserTypeResolver answers a user-defined scalar type's base type, given
// its normalized catalog?.schema.name reference.
type UserTypeResolver func(typeRef string) (baseSqlType string, maxLength int, found bool)

// FunctionReturnResolver answers a scalar function's return type.
type FunctionReturnResolver func(schema, function string) (sqlType string, found bool)

// ResolverContext bundles the three pluggable resolver callbacks the
// analyzer consults while walking a procedure body. It performs no I/O of
// its own — a missing resolution always yields a placeholder type rather
// than blocking or erroring, per spec §4.2's resolver-callback contract.
type ResolverContext struct {
	ColumnType     ColumnTypeResolver
	UserType       UserTypeResolver
	FunctionReturn FunctionReturnResolver
}

// noopResolverContext is used when the caller supplies no resolvers (e.g.
// parsing in isolation, before a snapshot index exists); every lookup
// misses cleanly.
func noopResolverContext() ResolverContext {
	return ResolverContext{
		ColumnType:     func(string, string, string) (string, int, bool, bool) { return "", 0, false, false },
		UserType:       func(string) (string, int, bool) { return "", 0, false },
		FunctionReturn: func(string, string) (string, bool) { return "", false },
	}
}
