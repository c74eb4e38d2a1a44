package codegen

import (
	"sort"
	"strings"
)

// importSet collects the set of import paths one generated file needs,
// kept distinct from hand-written import blocks so adding a cross-schema
// or SQL-type-driven dependency never requires touching emission code that
// doesn't care about imports.
type importSet struct {
	paths map[string]bool
}

func newImportSet() *importSet {
	return &importSet{paths: map[string]bool{}}
}

func (s *importSet) add(path string) {
	if path != "" {
		s.paths[path] = true
	}
}

// addFor registers the import (if any) that sqlType's Go representation
// needs.
func (s *importSet) addFor(sqlType string) {
	if t := MapSqlType(sqlType); t.Import != "" {
		s.add(t.Import)
	}
}

func (s *importSet) render() string {
	if len(s.paths) == 0 {
		return ""
	}
	sorted := make([]string, 0, len(s.paths))
	for p := range s.paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	var sb strings.Builder
	sb.WriteString("import (\n")
	for _, p := range sorted {
		sb.WriteString("\t\"" + p + "\"\n")
	}
	sb.WriteString(")\n\n")
	return sb.String()
}
