package codegen

import "testing"

func TestPascalCase(t *testing.T) {
	tests := map[string]string{
		"get_order_by_id": "GetOrderById",
		"GetOrderByID":    "GetOrderByID",
		"123abc":          "N123abc",
		"":                "Field",
		"order-line":      "OrderLine",
	}
	for in, want := range tests {
		if got := PascalCase(in); got != want {
			t.Errorf("PascalCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeJSONAlias(t *testing.T) {
	tests := map[string]string{
		"customerID":  "customerID",
		"order.total": "order_total",
		"123field":    "_123field",
		"type":        "_type",
	}
	for in, want := range tests {
		if got := SanitizeJSONAlias(in); got != want {
			t.Errorf("SanitizeJSONAlias(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTypeNameHelpers(t *testing.T) {
	if got := ResultTypeName("GetOrder"); got != "GetOrderResult" {
		t.Fatalf("ResultTypeName = %q", got)
	}
	if got := ResultSetTypeName("GetOrder", "Lines"); got != "GetOrderLinesResult" {
		t.Fatalf("ResultSetTypeName = %q", got)
	}
	if got := InputTypeName("GetOrder"); got != "GetOrderInput" {
		t.Fatalf("InputTypeName = %q", got)
	}
	if got := OutputTypeName("GetOrder"); got != "GetOrderOutput" {
		t.Fatalf("OutputTypeName = %q", got)
	}
}
