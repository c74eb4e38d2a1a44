package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

func testProcedure() *schemamodel.ProcedureDescriptor {
	return &schemamodel.ProcedureDescriptor{
		Schema:        "dbo",
		Name:          "GetCustomer",
		ModifiedTicks: 100,
		ResultSets: []schemamodel.ResultSet{
			{
				Index: 0,
				Name:  "Result1",
				Columns: []schemamodel.Column{
					{Name: "Name", PropertyName: "Name", SqlTypeName: "nvarchar", SourceSchema: "dbo", SourceTable: "Customer", SourceColumn: "Name"},
				},
			},
		},
	}
}

func TestWriteAll_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 2, "test")

	proc := testProcedure()
	tables := []*schemamodel.TableArtifact{
		{Schema: "dbo", Name: "Customer", Columns: []schemamodel.Column{{Name: "Name", SqlTypeName: "nvarchar"}}},
		{Schema: "dbo", Name: "Unreferenced", Columns: nil},
	}

	index, err := w.WriteAll(context.Background(), []*schemamodel.ProcedureDescriptor{proc}, tables, nil, nil, nil)
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if len(index.Procedures) != 1 {
		t.Fatalf("expected 1 procedure entry, got %d", len(index.Procedures))
	}
	if len(index.Tables) != 1 || index.Tables[0].Name != "Customer" {
		t.Fatalf("expected only referenced table Customer, got %+v", index.Tables)
	}

	provider, err := NewProvider(dir)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	got, found, err := provider.Procedure("dbo", "GetCustomer")
	if err != nil || !found {
		t.Fatalf("Procedure lookup failed: found=%v err=%v", found, err)
	}
	if got.ModifiedTicks != 100 || len(got.ResultSets) != 1 {
		t.Fatalf("hydrated procedure mismatch: %+v", got)
	}
}

func TestWriteAll_TouchlessWhenUnchanged(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 1, "test")
	proc := testProcedure()

	if _, err := w.WriteAll(context.Background(), []*schemamodel.ProcedureDescriptor{proc}, nil, nil, nil, nil); err != nil {
		t.Fatalf("first WriteAll: %v", err)
	}

	path := filepath.Join(dir, proceduresDir, artifactFileName("", "dbo", "GetCustomer"))
	first, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	if _, err := w.WriteAll(context.Background(), []*schemamodel.ProcedureDescriptor{proc}, nil, nil, nil, nil); err != nil {
		t.Fatalf("second WriteAll: %v", err)
	}
	second, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat after rewrite: %v", err)
	}

	if first.ModTime() != second.ModTime() {
		t.Fatalf("expected unchanged artifact to be left untouched: %v vs %v", first.ModTime(), second.ModTime())
	}
}

func TestWriteAll_DeterministicIndexOrdering(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 4, "test")

	procs := []*schemamodel.ProcedureDescriptor{
		{Schema: "zeta", Name: "Bravo", ModifiedTicks: 1},
		{Schema: "alpha", Name: "Zulu", ModifiedTicks: 1},
		{Schema: "alpha", Name: "Alpha", ModifiedTicks: 1},
	}

	index, err := w.WriteAll(context.Background(), procs, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	want := []string{"alpha.Alpha", "alpha.Zulu", "zeta.Bravo"}
	for i, entry := range index.Procedures {
		got := entry.Schema + "." + entry.Name
		if got != want[i] {
			t.Fatalf("index ordering mismatch at %d: got %s want %s", i, got, want[i])
		}
	}
}
