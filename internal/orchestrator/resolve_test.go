package orchestrator

import (
	"testing"

	"github.com/xtraq/xtraq/internal/schemamodel"
	"github.com/xtraq/xtraq/internal/typeresolve"
)

func intPtr(n int) *int { return &n }

func TestResolveParameterTypes(t *testing.T) {
	resolver := typeresolve.NewResolver([]schemamodel.UserDefinedTypeInfo{
		{Schema: "dbo", Name: "Email", BaseSqlType: "nvarchar", MaxLength: intPtr(256)},
	})

	params := []schemamodel.Parameter{
		{Name: "@Email", SqlTypeName: "dbo.Email"},
		{Name: "@Id", SqlTypeName: "sys.int"},
		{Name: "@Rows", SqlTypeName: "dbo.OrderRowType", IsTableType: true},
	}

	resolveParameterTypes(params, resolver)

	if params[0].SqlTypeName != "nvarchar" || params[0].MaxLength != 256 {
		t.Errorf("expected @Email to resolve through the user-defined type, got %+v", params[0])
	}
	if params[1].SqlTypeName != "int" {
		t.Errorf("expected @Id's sys type to pass through unchanged, got %+v", params[1])
	}
	if params[2].SqlTypeName != "dbo.OrderRowType" {
		t.Errorf("expected a table-type parameter to be skipped entirely, got %+v", params[2])
	}
}

func TestResolveColumnTypes(t *testing.T) {
	resolver := typeresolve.NewResolver([]schemamodel.UserDefinedTypeInfo{
		{Schema: "dbo", Name: "Money2", BaseSqlType: "decimal", Precision: intPtr(18), Scale: intPtr(2)},
	})

	cols := []schemamodel.Column{
		{Name: "Total", SqlTypeName: "dbo.Money2"},
	}

	resolveColumnTypes(cols, resolver)

	if cols[0].SqlTypeName != "decimal" {
		t.Fatalf("expected Total to resolve to decimal, got %q", cols[0].SqlTypeName)
	}
	if cols[0].Precision == nil || *cols[0].Precision != 18 || cols[0].Scale == nil || *cols[0].Scale != 2 {
		t.Errorf("expected precision/scale to come from the user-defined type, got %+v", cols[0])
	}
}

func TestProcedureGlobFilter(t *testing.T) {
	if f := procedureGlobFilter(""); f != nil {
		t.Fatal("expected an empty glob to produce a nil filter (match everything)")
	}

	f := procedureGlobFilter("Get*")
	if !f("dbo", "GetOrder") {
		t.Error("expected 'Get*' to match the bare name GetOrder")
	}
	if f("dbo", "DeleteOrder") {
		t.Error("did not expect 'Get*' to match DeleteOrder")
	}

	qualified := procedureGlobFilter("sales.*")
	if !qualified("sales", "GetOrder") {
		t.Error("expected 'sales.*' to match its schema-qualified form")
	}
	if qualified("dbo", "GetOrder") {
		t.Error("did not expect 'sales.*' to match a different schema")
	}
}

func TestGlobMatchIsCaseInsensitive(t *testing.T) {
	if !globMatch("GET*", "getorder") {
		t.Error("expected globMatch to be case-insensitive")
	}
	if globMatch("[", "anything") {
		t.Error("expected a malformed pattern to report no match rather than propagate an error")
	}
}

func TestInEffectiveScope(t *testing.T) {
	schemas := []string{"dbo", "Sales"}
	if !inEffectiveScope("SALES", schemas) {
		t.Error("expected inEffectiveScope to match case-insensitively")
	}
	if inEffectiveScope("hr", schemas) {
		t.Error("did not expect hr to be in scope")
	}
}

func TestProcKeyIsLowercased(t *testing.T) {
	if procKey("Dbo", "GetOrder") != procKey("dbo", "getorder") {
		t.Error("expected procKey to fold case")
	}
}

func TestIsJsonCapableReturnType(t *testing.T) {
	cases := map[string]bool{
		"nvarchar": true,
		"VARCHAR":  true,
		"int":      false,
		"bit":      false,
	}
	for sqlType, want := range cases {
		if got := isJsonCapableReturnType(sqlType); got != want {
			t.Errorf("isJsonCapableReturnType(%q) = %v, want %v", sqlType, got, want)
		}
	}
}

func TestDescribeFunctionJson(t *testing.T) {
	definition := `CREATE FUNCTION dbo.GetOrderJson(@id int)
RETURNS nvarchar(max)
AS
BEGIN
	RETURN (SELECT o.Id FROM dbo.Orders o WHERE o.Id = @id FOR JSON PATH, ROOT('order'), WITHOUT_ARRAY_WRAPPER)
END`

	descriptor, ok := describeFunctionJson(definition, "dbo", "GetOrderJson", nil)
	if !ok {
		t.Fatal("expected a FOR JSON result set to be detected")
	}
	if !descriptor.ReturnsJson || descriptor.ReturnsJsonArray {
		t.Errorf("expected ReturnsJson true and ReturnsJsonArray false (WITHOUT_ARRAY_WRAPPER), got %+v", descriptor)
	}
	if descriptor.RootTypeName != "GetOrderJsonJson" {
		t.Errorf("expected RootTypeName derived from the function name, got %q", descriptor.RootTypeName)
	}
	if len(descriptor.ColumnNames) != 1 || descriptor.ColumnNames[0] != "Id" {
		t.Errorf("expected ColumnNames to carry the projected property names, got %v", descriptor.ColumnNames)
	}
}

func TestDescribeFunctionJsonNoForJson(t *testing.T) {
	definition := `CREATE FUNCTION dbo.GetCount() RETURNS int AS BEGIN RETURN (SELECT COUNT(*) FROM dbo.Orders) END`

	_, ok := describeFunctionJson(definition, "dbo", "GetCount", nil)
	if ok {
		t.Error("expected no FOR JSON result set to be detected for a plain scalar function")
	}
}

func TestFunctionJSONIndex(t *testing.T) {
	functions := []*schemamodel.FunctionArtifact{
		{Schema: "dbo", Name: "GetOrderJson", Json: &schemamodel.FunctionJsonDescriptor{ReturnsJson: true, RootTypeName: "GetOrderJsonJson"}},
		{Schema: "dbo", Name: "GetCount"},
	}

	lookup := functionJSONIndex(functions)

	d, ok := lookup("DBO", "getorderjson")
	if !ok || d.RootTypeName != "GetOrderJsonJson" {
		t.Errorf("expected a case-insensitive hit for the JSON-capable function, got %+v, %v", d, ok)
	}
	if _, ok := lookup("dbo", "GetCount"); ok {
		t.Error("did not expect a function with no Json descriptor to be indexed")
	}
}

func TestLiveSchemasFromIndex(t *testing.T) {
	idx := &schemamodel.SnapshotIndex{
		Procedures: []schemamodel.ProcedureIndexEntry{{Schema: "dbo"}, {Schema: "sales"}},
		Tables:     []schemamodel.ObjectIndexEntry{{Schema: "sales"}},
		TableTypes: []schemamodel.ObjectIndexEntry{{Schema: "hr"}},
	}

	schemas := liveSchemasFromIndex(idx)

	seen := map[string]bool{}
	for _, s := range schemas {
		seen[s] = true
	}
	for _, want := range []string{"dbo", "sales", "hr"} {
		if !seen[want] {
			t.Errorf("expected %q among live schemas, got %v", want, schemas)
		}
	}
	if len(schemas) != 3 {
		t.Errorf("expected schemas deduplicated to 3 entries, got %d: %v", len(schemas), schemas)
	}
}
