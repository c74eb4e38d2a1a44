package codegen

import "testing"

func TestNormalizeWhitespace_CollapsesBlankRuns(t *testing.T) {
	in := "package x\n\n\n\nfunc a() {}\n\n\n"
	got := NormalizeWhitespace(in)
	want := "package x\n\nfunc a() {}\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeWhitespace_Idempotent(t *testing.T) {
	in := "package x\n\nfunc a() {}\n"
	once := NormalizeWhitespace(in)
	twice := NormalizeWhitespace(once)
	if once != twice {
		t.Fatalf("normalization is not idempotent: %q vs %q", once, twice)
	}
}
