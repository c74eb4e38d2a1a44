// Package template is the trivial substitution engine the generator uses
// for its optional emission blocks (spec §4.9): tryLoad(name) checks a
// configured filesystem root before falling back to templates compiled
// into the binary, and render(template, model) does nested substitution
// over an explicit {{field}}/{{#section}}...{{/section}} syntax — nothing
// resembling text/template's pipelines or control structures, since the
// contract only ever needs field substitution and optional-block toggling.
package template

import (
	"embed"
	"os"
	"path/filepath"
)

//go:embed defaults
var defaultTemplates embed.FS

// Model is the nested substitution context: string/bool scalars plus
// []Model values for repeating sections.
type Model map[string]interface{}

// Coordinator resolves and renders templates. The zero value is usable —
// it has no filesystem root configured, so every lookup falls straight
// through to the embedded defaults.
type Coordinator struct {
	fsRoot string
}

// NewCoordinator builds a Coordinator that checks fsRoot before the
// embedded defaults. An empty fsRoot skips that tier entirely.
func NewCoordinator(fsRoot string) *Coordinator {
	return &Coordinator{fsRoot: fsRoot}
}

// TryLoad resolves name against the configured filesystem root first, then
// the binary's embedded defaults. ok is false when neither tier has it —
// callers fall back to their own hard-coded string, per spec §4.9.
func (c *Coordinator) TryLoad(name string) (tmpl string, ok bool) {
	if c.fsRoot != "" {
		if data, err := os.ReadFile(filepath.Join(c.fsRoot, name)); err == nil {
			return string(data), true
		}
	}
	if data, err := defaultTemplates.ReadFile("defaults/" + name); err == nil {
		return string(data), true
	}
	return "", false
}

// Render substitutes model into tmpl. {{name}} is replaced with the
// stringified scalar; {{#name}}...{{/name}} is dropped entirely when
// model[name] is false/nil/missing, rendered once when true, and rendered
// once per element (with the element's own fields merged over the parent
// model) when model[name] is a []Model.
func Render(tmpl string, model Model) string {
	out, _ := renderFrom(tmpl, model)
	return out
}

// renderFrom returns the rendered prefix of tmpl plus the remainder of the
// string it did not consume, so nested calls can find their own closing
// section marker.
func renderFrom(tmpl string, model Model) (string, string) {
	var out []byte
	rest := tmpl
	for {
		open := indexOf(rest, "{{")
		if open < 0 {
			out = append(out, rest...)
			return string(out), ""
		}
		out = append(out, rest[:open]...)
		rest = rest[open+2:]

		close := indexOf(rest, "}}")
		if close < 0 {
			// Unterminated tag: emit literally rather than failing a
			// trivial substitution engine on malformed input.
			out = append(out, "{{"...)
			out = append(out, rest...)
			return string(out), ""
		}
		tag := rest[:close]
		rest = rest[close+2:]

		switch {
		case len(tag) > 0 && tag[0] == '/':
			// Closing marker for a section the caller opened; hand the
			// remainder back unconsumed.
			return string(out), "{{" + tag + "}}" + rest
		case len(tag) > 0 && tag[0] == '#':
			name := tag[1:]
			sectionBody, remainder := splitSection(rest, name)
			rest = remainder
			out = append(out, renderSection(sectionBody, name, model)...)
		default:
			out = append(out, renderScalar(tag, model)...)
		}
	}
}

// splitSection scans rest for the matching {{/name}} close marker,
// returning the section body and whatever follows the close marker.
// Nested same-named sections are not supported — the contract only needs
// one level of optional blocks.
func splitSection(rest, name string) (body, remainder string) {
	marker := "{{/" + name + "}}"
	idx := indexOf(rest, marker)
	if idx < 0 {
		return rest, ""
	}
	return rest[:idx], rest[idx+len(marker):]
}

func renderSection(body, name string, model Model) string {
	value, ok := model[name]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case bool:
		if !v {
			return ""
		}
		out, _ := renderFrom(body, model)
		return out
	case []Model:
		var sb []byte
		for _, item := range v {
			merged := mergeModel(model, item)
			out, _ := renderFrom(body, merged)
			sb = append(sb, out...)
		}
		return string(sb)
	default:
		out, _ := renderFrom(body, model)
		return out
	}
}

func mergeModel(parent, child Model) Model {
	merged := make(Model, len(parent)+len(child))
	for k, v := range parent {
		merged[k] = v
	}
	for k, v := range child {
		merged[k] = v
	}
	return merged
}

func renderScalar(name string, model Model) string {
	value, ok := model[name]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
