package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTryLoad_FallsThroughToEmbeddedDefault(t *testing.T) {
	c := NewCoordinator("")
	tmpl, ok := c.TryLoad("minimal_api_route.tmpl")
	if !ok {
		t.Fatal("expected the embedded default to load")
	}
	if !strings.Contains(tmpl, "Register{{TypeName}}Route") {
		t.Fatalf("unexpected embedded template content: %s", tmpl)
	}
}

func TestTryLoad_FilesystemRootTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	override := "// overridden\nfunc Register{{TypeName}}Route() {}\n"
	if err := os.WriteFile(filepath.Join(dir, "minimal_api_route.tmpl"), []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewCoordinator(dir)
	tmpl, ok := c.TryLoad("minimal_api_route.tmpl")
	if !ok || tmpl != override {
		t.Fatalf("expected the filesystem override, got ok=%v tmpl=%q", ok, tmpl)
	}
}

func TestTryLoad_MissingReturnsNotOK(t *testing.T) {
	c := NewCoordinator("")
	_, ok := c.TryLoad("does_not_exist.tmpl")
	if ok {
		t.Fatal("expected a missing template to report not-ok")
	}
}

func TestRender_ScalarSubstitution(t *testing.T) {
	got := Render("Hello {{Name}}!", Model{"Name": "World"})
	if got != "Hello World!" {
		t.Fatalf("got %q", got)
	}
}

func TestRender_SectionOmittedWhenFalse(t *testing.T) {
	got := Render("before{{#Flag}}middle{{/Flag}}after", Model{"Flag": false})
	if got != "beforeafter" {
		t.Fatalf("got %q", got)
	}
}

func TestRender_SectionIncludedWhenTrue(t *testing.T) {
	got := Render("before{{#Flag}}middle{{/Flag}}after", Model{"Flag": true})
	if got != "beforemiddleafter" {
		t.Fatalf("got %q", got)
	}
}

func TestRender_SectionRepeatsOverSlice(t *testing.T) {
	got := Render("{{#Items}}[{{Name}}]{{/Items}}", Model{
		"Items": []Model{{"Name": "a"}, {"Name": "b"}},
	})
	if got != "[a][b]" {
		t.Fatalf("got %q", got)
	}
}

func TestRender_MissingFieldRendersEmpty(t *testing.T) {
	got := Render("x{{Missing}}y", Model{})
	if got != "xy" {
		t.Fatalf("got %q", got)
	}
}
