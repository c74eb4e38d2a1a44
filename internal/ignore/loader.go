// Package ignore loads and evaluates the wildcard-aware ignore lists that
// keep schemas and procedures out of a snapshot/build run: the
// IgnoredSchemas and IgnoredProcedures keys of xtraq.toml (spec §6.2), plus
// a standalone .xtraqignore file for callers that prefer not to edit the
// main config.
package ignore

import (
	"os"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the default name of the standalone ignore file.
const FileName = ".xtraqignore"

// Config holds the patterns used to exclude schemas and procedures from a
// run. Patterns are shell-style globs matched with path.Match against
// "schema" or "schema.procedure".
type Config struct {
	Schemas    []string `toml:"schemas,omitempty"`
	Procedures []string `toml:"procedures,omitempty"`
}

// tomlFile is the on-disk shape of .xtraqignore, grouping patterns the way
// xtraq.toml groups its own ignore keys.
type tomlFile struct {
	Schemas    tomlPatterns `toml:"schemas,omitempty"`
	Procedures tomlPatterns `toml:"procedures,omitempty"`
}

type tomlPatterns struct {
	Patterns []string `toml:"patterns,omitempty"`
}

// Load reads .xtraqignore from the current directory. It returns a nil
// Config and nil error if the file does not exist — the feature is
// optional.
func Load() (*Config, error) {
	return LoadFromPath(FileName)
}

// LoadFromPath reads an ignore file from filePath. It returns a nil Config
// and nil error if the file does not exist.
func LoadFromPath(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var raw tomlFile
	if _, err := toml.DecodeFile(filePath, &raw); err != nil {
		return nil, err
	}

	return &Config{
		Schemas:    raw.Schemas.Patterns,
		Procedures: raw.Procedures.Patterns,
	}, nil
}

// Merge returns a Config combining c with additional schema/procedure
// patterns sourced from xtraq.toml, so a standalone .xtraqignore file and
// inline config entries compose rather than one silently overriding the
// other. c may be nil.
func Merge(c *Config, schemas, procedures []string) *Config {
	out := &Config{}
	if c != nil {
		out.Schemas = append(out.Schemas, c.Schemas...)
		out.Procedures = append(out.Procedures, c.Procedures...)
	}
	out.Schemas = append(out.Schemas, schemas...)
	out.Procedures = append(out.Procedures, procedures...)
	return out
}

// MatchesSchema reports whether schema is excluded by any configured
// schema pattern. Matching is case-insensitive.
func (c *Config) MatchesSchema(schema string) bool {
	if c == nil {
		return false
	}
	return matchAny(c.Schemas, schema)
}

// MatchesProcedure reports whether schema.procedure is excluded by any
// configured procedure pattern. Patterns may target the bare procedure name
// or the schema-qualified form; matching is case-insensitive.
func (c *Config) MatchesProcedure(schema, procedure string) bool {
	if c == nil {
		return false
	}
	qualified := schema + "." + procedure
	return matchAny(c.Procedures, qualified) || matchAny(c.Procedures, procedure)
}

func matchAny(patterns []string, subject string) bool {
	subject = strings.ToLower(subject)
	for _, p := range patterns {
		ok, err := path.Match(strings.ToLower(p), subject)
		if err == nil && ok {
			return true
		}
	}
	return false
}
