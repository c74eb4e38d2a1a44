package codegen

import "strings"

// NormalizeWhitespace enforces the generator's deterministic output rule
// (spec §4.8, "Deterministic output"): every run of consecutive blank lines
// collapses to a single blank line, and the file ends in exactly one
// trailing newline.
// Two generation runs over byte-identical input must therefore produce
// byte-identical source, which is what lets the build phase skip rewriting
// an unchanged file.
func NormalizeWhitespace(source string) string {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	blankRun := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blankRun++
			if blankRun > 1 {
				continue
			}
		} else {
			blankRun = 0
		}
		out = append(out, line)
	}

	result := strings.Join(out, "\n")
	return strings.TrimRight(result, "\n") + "\n"
}
