package codegen

import (
	"strings"
	"testing"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

func procWithExec(schema, name, targetSchema, targetName string) *schemamodel.ProcedureDescriptor {
	return &schemamodel.ProcedureDescriptor{
		Schema: schema,
		Name:   name,
		ResultSets: []schemamodel.ResultSet{
			{Name: "Set1", ExecSourceSchema: targetSchema, ExecSourceProcedure: targetName},
		},
	}
}

func procWithColumns(schema, name string, cols []schemamodel.Column) *schemamodel.ProcedureDescriptor {
	return &schemamodel.ProcedureDescriptor{
		Schema: schema,
		Name:   name,
		ResultSets: []schemamodel.ResultSet{
			{Name: "Set1", Columns: cols},
		},
	}
}

func TestExpandResultSets_FlattensTwoLevelExecChain(t *testing.T) {
	leaf := procWithColumns("dbo", "Leaf", []schemamodel.Column{{Name: "ID", SqlTypeName: "int"}})
	middle := procWithExec("dbo", "Middle", "dbo", "Leaf")
	root := procWithExec("dbo", "Root", "dbo", "Middle")

	resolver := func(schema, name string) (*schemamodel.ProcedureDescriptor, bool) {
		switch strings.ToLower(schema + "." + name) {
		case "dbo.leaf":
			return leaf, true
		case "dbo.middle":
			return middle, true
		}
		return nil, false
	}

	g := NewGenerator(Options{}, resolver, nil)
	sets := g.expandResultSets(root, 0, map[string]bool{})

	if len(sets) != 1 {
		t.Fatalf("expected the EXEC chain to flatten to 1 concrete set, got %d", len(sets))
	}
	if len(sets[0].Columns) != 1 || sets[0].Columns[0].Name != "ID" {
		t.Fatalf("expected the leaf's column to surface, got %+v", sets[0].Columns)
	}
}

func TestExpandResultSets_CutsOffAtDepthEight(t *testing.T) {
	resolver := func(schema, name string) (*schemamodel.ProcedureDescriptor, bool) {
		n := name
		next := procWithExec("dbo", n, "dbo", n+"x")
		return next, true
	}
	g := NewGenerator(Options{}, resolver, nil)
	root := procWithExec("dbo", "Root", "dbo", "Level1")

	sets := g.expandResultSets(root, 0, map[string]bool{})
	if len(sets) != 0 {
		t.Fatalf("expected a runaway EXEC chain to bottom out with no concrete sets, got %d", len(sets))
	}
}

func TestExpandResultSets_DetectsCycle(t *testing.T) {
	a := procWithExec("dbo", "A", "dbo", "B")
	b := procWithExec("dbo", "B", "dbo", "A")

	resolver := func(schema, name string) (*schemamodel.ProcedureDescriptor, bool) {
		switch strings.ToLower(name) {
		case "a":
			return a, true
		case "b":
			return b, true
		}
		return nil, false
	}

	g := NewGenerator(Options{}, resolver, nil)
	sets := g.expandResultSets(a, 0, map[string]bool{})
	if len(sets) != 0 {
		t.Fatalf("expected a cyclic EXEC graph to produce no concrete sets, got %d", len(sets))
	}
}

func TestGenerateProcedure_OptionalBlocksAreAbsentWhenDisabled(t *testing.T) {
	proc := procWithColumns("dbo", "GetOrder", []schemamodel.Column{{Name: "ID", SqlTypeName: "int"}})
	g := NewGenerator(Options{}, nil, nil)
	file := g.GenerateProcedure(proc)

	if strings.Contains(file.Source, "RegisterGetOrderRoute") {
		t.Fatalf("minimal API route emitted with EnableMinimalApiExtensions off:\n%s", file.Source)
	}
	if strings.Contains(file.Source, "GetOrderEntityName") {
		t.Fatalf("EF adapter emitted with EnableEntityFrameworkIntegration off:\n%s", file.Source)
	}
}

func TestGenerateProcedure_OptionalBlocksPresentWhenEnabled(t *testing.T) {
	proc := procWithColumns("dbo", "GetOrder", []schemamodel.Column{{Name: "ID", SqlTypeName: "int"}})
	g := NewGenerator(Options{EnableMinimalApiExtensions: true, EnableEntityFrameworkIntegration: true}, nil, nil)
	file := g.GenerateProcedure(proc)

	if !strings.Contains(file.Source, "RegisterGetOrderRoute") {
		t.Fatalf("expected minimal API route in output:\n%s", file.Source)
	}
	if !strings.Contains(file.Source, "GetOrderEntityName") {
		t.Fatalf("expected EF adapter in output:\n%s", file.Source)
	}
}

func TestGenerateProcedure_DeterministicAcrossRuns(t *testing.T) {
	proc := procWithColumns("dbo", "GetOrder", []schemamodel.Column{
		{Name: "ID", SqlTypeName: "int"},
		{Name: "Total", SqlTypeName: "decimal", IsNullable: true},
	})
	g := NewGenerator(Options{}, nil, nil)
	first := g.GenerateProcedure(proc)
	second := g.GenerateProcedure(proc)

	if first.Source != second.Source {
		t.Fatalf("generation is not deterministic:\n--- first ---\n%s\n--- second ---\n%s", first.Source, second.Source)
	}
}
