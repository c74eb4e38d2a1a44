package analyzer

import "strings"

// TokenKind classifies one lexeme of a T-SQL statement body.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenQuotedIdent // [bracketed] or "double-quoted"
	TokenKeyword
	TokenNumber
	TokenString
	TokenVariable // @name
	TokenPunct    // , ( ) . ; * = etc.
	TokenComment
)

// Token is one lexeme with its source text preserved verbatim (needed to
// reproduce CAST/CONVERT target type text and identifier casing exactly).
type Token struct {
	Kind TokenKind
	Text string
}

// keywords are the T-SQL keywords the tokenizer specifically recognizes in
// order to drive statement dispatch and clause detection. This is a small
// working subset of internal/util's full reserved-word list (reservedWords
// in quote.go) — only the words the
// analyzer branches on, not every reserved identifier.
var keywords = map[string]bool{
	"select": true, "from": true, "where": true, "join": true, "inner": true,
	"left": true, "right": true, "full": true, "outer": true, "on": true,
	"as": true, "exec": true, "execute": true, "for": true, "json": true,
	"path": true, "auto": true, "root": true, "without_array_wrapper": true,
	"include_null_values": true, "cast": true, "convert": true, "null": true,
	"insert": true, "update": true, "delete": true, "merge": true, "into": true,
	"values": true, "union": true, "all": true, "case": true, "when": true,
	"then": true, "else": true, "end": true, "and": true, "or": true,
	"not": true, "is": true, "in": true, "group": true, "by": true,
	"order": true, "having": true, "distinct": true, "top": true,
	"openjson": true, "with": true, "declare": true, "set": true,
	"begin": true, "return": true, "if": true, "while": true,
}

// Tokenize lexes sqlText into a flat token stream. It never returns an
// error — unrecognized bytes are folded into punctuation tokens one rune
// at a time, so the caller always gets a best-effort stream and decides
// whether the result is usable (this is what backs the fallback lexical
// parser when the recursive-descent parser gives up).
func Tokenize(sqlText string) []Token {
	var tokens []Token
	runes := []rune(sqlText)
	i, n := 0, len(runes)

	for i < n {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			i++
		case r == '-' && i+1 < n && runes[i+1] == '-':
			j := i
			for j < n && runes[j] != '\n' {
				j++
			}
			tokens = append(tokens, Token{Kind: TokenComment, Text: string(runes[i:j])})
			i = j
		case r == '/' && i+1 < n && runes[i+1] == '*':
			j := i + 2
			for j+1 < n && !(runes[j] == '*' && runes[j+1] == '/') {
				j++
			}
			end := j + 2
			if end > n {
				end = n
			}
			tokens = append(tokens, Token{Kind: TokenComment, Text: string(runes[i:end])})
			i = end
		case r == '[':
			j := i + 1
			for j < n && runes[j] != ']' {
				j++
			}
			end := j + 1
			if end > n {
				end = n
			}
			tokens = append(tokens, Token{Kind: TokenQuotedIdent, Text: string(runes[i:end])})
			i = end
		case r == '"':
			j := i + 1
			for j < n && runes[j] != '"' {
				j++
			}
			end := j + 1
			if end > n {
				end = n
			}
			tokens = append(tokens, Token{Kind: TokenQuotedIdent, Text: string(runes[i:end])})
			i = end
		case r == '\'':
			j := i + 1
			for j < n {
				if runes[j] == '\'' {
					if j+1 < n && runes[j+1] == '\'' {
						j += 2
						continue
					}
					break
				}
				j++
			}
			end := j + 1
			if end > n {
				end = n
			}
			tokens = append(tokens, Token{Kind: TokenString, Text: string(runes[i:end])})
			i = end
		case r == '@':
			j := i + 1
			for j < n && isIdentRune(runes[j]) {
				j++
			}
			tokens = append(tokens, Token{Kind: TokenVariable, Text: string(runes[i:j])})
			i = j
		case isIdentStart(r):
			j := i + 1
			for j < n && isIdentRune(runes[j]) {
				j++
			}
			text := string(runes[i:j])
			kind := TokenIdent
			if keywords[strings.ToLower(text)] {
				kind = TokenKeyword
			}
			tokens = append(tokens, Token{Kind: kind, Text: text})
			i = j
		case r >= '0' && r <= '9':
			j := i + 1
			for j < n && (isDigitRune(runes[j]) || runes[j] == '.') {
				j++
			}
			tokens = append(tokens, Token{Kind: TokenNumber, Text: string(runes[i:j])})
			i = j
		default:
			tokens = append(tokens, Token{Kind: TokenPunct, Text: string(r)})
			i++
		}
	}

	tokens = append(tokens, Token{Kind: TokenEOF})
	return tokens
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '#' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentRune(r rune) bool {
	return isIdentStart(r) || isDigitRune(r) || r == '$'
}

func isDigitRune(r rune) bool {
	return r >= '0' && r <= '9'
}

// unquoteIdent strips [] or "" bracketing from a quoted identifier token,
// undoing ]]-doubling the same way util.QuoteIdentifier applies it.
func unquoteIdent(text string) string {
	if len(text) < 2 {
		return text
	}
	inner := text[1 : len(text)-1]
	if text[0] == '[' {
		return strings.ReplaceAll(inner, "]]", "]")
	}
	return strings.ReplaceAll(inner, `""`, `"`)
}
