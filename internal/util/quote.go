// Package util holds small, dependency-free helpers shared by the metadata
// client, content analyzer, and code generator.
package util

import (
	"strings"
	"unicode"
)

// reservedWords are the T-SQL reserved keywords (SQL Server 2019 reference,
// https://docs.microsoft.com/en-us/sql/t-sql/language-elements/reserved-keywords-transact-sql).
// An identifier that collides with one of these needs bracket quoting when
// embedded back into generated SQL text (e.g. EXEC-forwarding lookups).
var reservedWords = map[string]bool{
	"add": true, "all": true, "alter": true, "and": true, "any": true,
	"as": true, "asc": true, "authorization": true, "backup": true,
	"begin": true, "between": true, "break": true, "browse": true,
	"bulk": true, "by": true, "cascade": true, "case": true, "check": true,
	"checkpoint": true, "close": true, "clustered": true, "coalesce": true,
	"collate": true, "column": true, "commit": true, "compute": true,
	"constraint": true, "contains": true, "containstable": true,
	"continue": true, "convert": true, "create": true, "cross": true,
	"current": true, "current_date": true, "current_time": true,
	"current_timestamp": true, "current_user": true, "cursor": true,
	"database": true, "dbcc": true, "deallocate": true, "declare": true,
	"default": true, "delete": true, "deny": true, "desc": true,
	"disk": true, "distinct": true, "distributed": true, "double": true,
	"drop": true, "dump": true, "else": true, "end": true, "errlvl": true,
	"escape": true, "except": true, "exec": true, "execute": true,
	"exists": true, "exit": true, "external": true, "fetch": true,
	"file": true, "fillfactor": true, "for": true, "foreign": true,
	"freetext": true, "freetexttable": true, "from": true, "full": true,
	"function": true, "goto": true, "grant": true, "group": true,
	"having": true, "holdlock": true, "identity": true, "identitycol": true,
	"identity_insert": true, "if": true, "in": true, "index": true,
	"inner": true, "insert": true, "intersect": true, "into": true,
	"is": true, "join": true, "key": true, "kill": true, "left": true,
	"like": true, "lineno": true, "load": true, "merge": true,
	"national": true, "nocheck": true, "nonclustered": true, "not": true,
	"null": true, "nullif": true, "of": true, "off": true, "offsets": true,
	"on": true, "open": true, "opendatasource": true, "openquery": true,
	"openrowset": true, "openxml": true, "option": true, "or": true,
	"order": true, "outer": true, "over": true, "percent": true,
	"pivot": true, "plan": true, "precision": true, "primary": true,
	"print": true, "proc": true, "procedure": true, "public": true,
	"raiserror": true, "read": true, "readtext": true, "reconfigure": true,
	"references": true, "replication": true, "restore": true,
	"restrict": true, "return": true, "revert": true, "revoke": true,
	"right": true, "rollback": true, "rowcount": true, "rowguidcol": true,
	"rule": true, "save": true, "schema": true, "securityaudit": true,
	"select": true, "semantickeyphrasetable": true, "session_user": true,
	"set": true, "setuser": true, "shutdown": true, "some": true,
	"statistics": true, "system_user": true, "table": true,
	"tablesample": true, "textsize": true, "then": true, "to": true,
	"top": true, "tran": true, "transaction": true, "trigger": true,
	"truncate": true, "try_convert": true, "tsequal": true, "union": true,
	"unique": true, "unpivot": true, "update": true, "updatetext": true,
	"use": true, "user": true, "values": true, "varying": true,
	"view": true, "waitfor": true, "when": true, "where": true,
	"while": true, "with": true, "writetext": true,
}

// NeedsQuoting reports whether identifier must be wrapped in brackets to be
// used as a T-SQL identifier: it is a reserved word, starts with a digit, or
// contains a character other than a letter, digit, underscore, or `$` `#`
// `@` (SQL Server's allowed non-leading identifier punctuation).
func NeedsQuoting(identifier string) bool {
	if identifier == "" {
		return true
	}

	if reservedWords[strings.ToLower(identifier)] {
		return true
	}

	for i, r := range identifier {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' && r != '@' && r != '#' {
				return true
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' && r != '#' {
			return true
		}
	}

	return false
}

// QuoteIdentifier brackets an identifier if NeedsQuoting reports true,
// escaping any literal `]` by doubling it per T-SQL bracket-quoting rules.
func QuoteIdentifier(identifier string) string {
	if !NeedsQuoting(identifier) {
		return identifier
	}
	return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
}

// QualifyEntityNameWithQuotes returns the schema-qualified, bracket-quoted
// reference to an entity, omitting the schema qualifier when entitySchema
// matches targetSchema (the schema the emitted reference lives in).
func QualifyEntityNameWithQuotes(entitySchema, entityName, targetSchema string) string {
	quotedName := QuoteIdentifier(entityName)

	if entitySchema == targetSchema {
		return quotedName
	}

	quotedSchema := QuoteIdentifier(entitySchema)
	return quotedSchema + "." + quotedName
}
