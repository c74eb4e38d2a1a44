package jsonenrich

import (
	"testing"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

func TestEnrichProcedure_UpgradesUnknownColumn(t *testing.T) {
	proc := &schemamodel.ProcedureDescriptor{
		ResultSets: []schemamodel.ResultSet{
			{
				ReturnsJson: true,
				Columns: []schemamodel.Column{
					{Name: "Name", PropertyName: "Name", SourceSchema: "dbo", SourceTable: "Customer", SourceColumn: "Name"},
				},
			},
		},
	}

	tableColumn := func(schema, table, column string) (string, int, bool, bool) {
		if schema == "dbo" && table == "Customer" && column == "Name" {
			return "nvarchar", 100, false, true
		}
		return "", 0, false, false
	}

	stats := EnrichProcedure(proc, tableColumn, func(string, string) (schemamodel.FunctionJsonDescriptor, bool) {
		return schemamodel.FunctionJsonDescriptor{}, false
	})

	if stats.ResolvedColumns != 1 || stats.NewConcrete != 1 || stats.Upgrades != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	col := proc.ResultSets[0].Columns[0]
	if col.SqlTypeName != "nvarchar" || col.MaxLength != 100 {
		t.Fatalf("column not upgraded: %+v", col)
	}
}

func TestEnrichProcedure_ForcedNullablePropagates(t *testing.T) {
	proc := &schemamodel.ProcedureDescriptor{
		ResultSets: []schemamodel.ResultSet{
			{
				ReturnsJson: true,
				Columns: []schemamodel.Column{
					{Name: "Note", PropertyName: "Note", SqlTypeName: "nvarchar", MaxLength: 50, IsNullable: false, ForcedNullable: true},
				},
			},
		},
	}

	EnrichProcedure(proc, noopTableColumn, noopFunctionJSON)

	if !proc.ResultSets[0].Columns[0].IsNullable {
		t.Fatalf("expected forcedNullable column to become nullable")
	}
}

func TestEnrichProcedure_ExpandsDeferredJsonColumn(t *testing.T) {
	proc := &schemamodel.ProcedureDescriptor{
		ResultSets: []schemamodel.ResultSet{
			{
				ReturnsJson: true,
				Columns: []schemamodel.Column{
					{
						Name:                  "Address",
						PropertyName:          "Address",
						DeferredJsonExpansion: true,
						FunctionRef:           "dbo.AddressAsJson",
					},
				},
			},
		},
	}

	functionJSON := func(schema, name string) (schemamodel.FunctionJsonDescriptor, bool) {
		if schema == "dbo" && name == "AddressAsJson" {
			return schemamodel.FunctionJsonDescriptor{
				Schema: "dbo", Name: "AddressAsJson",
				ReturnsJson: true, ReturnsJsonArray: false,
				RootTypeName: "Address",
			}, true
		}
		return schemamodel.FunctionJsonDescriptor{}, false
	}

	stats := EnrichProcedure(proc, noopTableColumn, functionJSON)
	if stats.ResolvedColumns != 1 {
		t.Fatalf("expected 1 resolved column, got %+v", stats)
	}

	col := proc.ResultSets[0].Columns[0]
	if col.DeferredJsonExpansion || col.SqlTypeName != "Address" || col.ClrTypeHint != "Address" {
		t.Fatalf("column not expanded correctly: %+v", col)
	}
}

func noopTableColumn(string, string, string) (string, int, bool, bool) { return "", 0, false, false }
func noopFunctionJSON(string, string) (schemamodel.FunctionJsonDescriptor, bool) {
	return schemamodel.FunctionJsonDescriptor{}, false
}
