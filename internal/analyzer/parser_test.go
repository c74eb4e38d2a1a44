package analyzer

import (
	"testing"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

func columnResolver(types map[string]map[string]string) ColumnTypeResolver {
	return func(schema, table, column string) (string, int, bool, bool) {
		cols, ok := types[schema+"."+table]
		if !ok {
			return "", 0, false, false
		}
		sqlType, ok := cols[column]
		if !ok {
			return "", 0, false, false
		}
		return sqlType, 0, false, true
	}
}

func TestParseSimpleSelect(t *testing.T) {
	resolvers := noopResolverContext()
	resolvers.ColumnType = columnResolver(map[string]map[string]string{
		"dbo.Orders": {"Id": "int", "CustomerId": "int"},
	})

	content := Parse(
		"SELECT o.Id, o.CustomerId FROM dbo.Orders o WHERE o.Id = @id",
		"dbo", "dbo.GetOrder", resolvers, nil,
	)

	if !content.ContainsSelect {
		t.Fatal("expected ContainsSelect to be true")
	}
	if len(content.ResultSets) != 1 {
		t.Fatalf("expected 1 result set, got %d", len(content.ResultSets))
	}

	rs := content.ResultSets[0]
	if len(rs.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(rs.Columns))
	}
	if rs.Columns[0].Name != "Id" || rs.Columns[0].SqlTypeName != "int" {
		t.Errorf("unexpected first column: %+v", rs.Columns[0])
	}
	if rs.Columns[1].SourceSchema != "dbo" || rs.Columns[1].SourceTable != "Orders" {
		t.Errorf("expected column to bind back to dbo.Orders, got %+v", rs.Columns[1])
	}
}

func TestParseForJsonResultSet(t *testing.T) {
	resolvers := noopResolverContext()
	resolvers.ColumnType = columnResolver(map[string]map[string]string{
		"dbo.Orders": {"Id": "int"},
	})

	content := Parse(
		"SELECT o.Id FROM dbo.Orders o FOR JSON PATH, ROOT('orders')",
		"dbo", "dbo.GetOrdersJson", resolvers, nil,
	)

	if len(content.ResultSets) != 1 {
		t.Fatalf("expected 1 result set, got %d", len(content.ResultSets))
	}
	rs := content.ResultSets[0]
	if !rs.ReturnsJson {
		t.Error("expected ReturnsJson to be true")
	}
	if !rs.ReturnsJsonArray {
		t.Error("expected ReturnsJsonArray to default true without WITHOUT_ARRAY_WRAPPER")
	}
	if rs.JsonRootProperty != "orders" {
		t.Errorf("expected JsonRootProperty 'orders', got %q", rs.JsonRootProperty)
	}
}

func TestParseForJsonWithoutArrayWrapper(t *testing.T) {
	resolvers := noopResolverContext()
	content := Parse(
		"SELECT 1 AS Id FOR JSON PATH, WITHOUT_ARRAY_WRAPPER",
		"dbo", "dbo.GetSingleton", resolvers, nil,
	)

	rs := content.ResultSets[0]
	if !rs.ReturnsJson {
		t.Error("expected ReturnsJson to be true")
	}
	if rs.ReturnsJsonArray {
		t.Error("expected ReturnsJsonArray to be false with WITHOUT_ARRAY_WRAPPER")
	}
}

func TestParseOuterJoinForcesNullable(t *testing.T) {
	resolvers := noopResolverContext()
	resolvers.ColumnType = columnResolver(map[string]map[string]string{
		"dbo.Orders":    {"Id": "int"},
		"dbo.Shipments": {"TrackingNumber": "nvarchar"},
	})

	content := Parse(
		`SELECT o.Id, s.TrackingNumber
		 FROM dbo.Orders o
		 LEFT JOIN dbo.Shipments s ON s.OrderId = o.Id`,
		"dbo", "dbo.GetOrderShipment", resolvers, nil,
	)

	rs := content.ResultSets[0]
	var tracking *schemamodel.Column
	for i := range rs.Columns {
		if rs.Columns[i].Name == "TrackingNumber" {
			tracking = &rs.Columns[i]
		}
	}
	if tracking == nil {
		t.Fatal("expected a TrackingNumber column")
	}
	if !tracking.IsNullable || !tracking.ForcedNullable {
		t.Errorf("expected the non-preserved LEFT JOIN side to be forced nullable, got %+v", tracking)
	}
}

func TestParseExecStatementRecordsPlaceholder(t *testing.T) {
	resolvers := noopResolverContext()
	content := Parse(
		"EXEC dbo.GetOrderDetails @OrderId = @OrderId",
		"dbo", "dbo.GetOrder", resolvers, nil,
	)

	if len(content.ExecutedProcedures) != 1 || content.ExecutedProcedures[0] != "dbo.GetOrderDetails" {
		t.Fatalf("expected ExecutedProcedures to record dbo.GetOrderDetails, got %v", content.ExecutedProcedures)
	}
	if len(content.ResultSets) != 1 {
		t.Fatalf("expected 1 placeholder result set, got %d", len(content.ResultSets))
	}
	rs := content.ResultSets[0]
	if !rs.IsExecPlaceholder() {
		t.Errorf("expected an EXEC placeholder result set, got %+v", rs)
	}
	if rs.ExecSourceSchema != "dbo" || rs.ExecSourceProcedure != "GetOrderDetails" {
		t.Errorf("unexpected exec source: %+v", rs)
	}
}

func TestParseSelectStarCapturesRawStatementWhenUnresolvable(t *testing.T) {
	resolvers := noopResolverContext()
	stmt := "SELECT * FROM sys.dm_os_performance_counters"

	content := Parse(stmt, "dbo", "dbo.GetCounters", resolvers, nil)

	rs := content.ResultSets[0]
	if !rs.HasSelectStar {
		t.Error("expected HasSelectStar to be true")
	}
	if len(rs.Columns) != 0 {
		t.Errorf("expected no statically enumerable columns, got %d", len(rs.Columns))
	}
	if rs.RawStatement != stmt {
		t.Errorf("expected RawStatement to carry the original source text, got %q", rs.RawStatement)
	}
}

func TestParseMultipleStatementsProduceOrderedResultSets(t *testing.T) {
	resolvers := noopResolverContext()
	resolvers.ColumnType = columnResolver(map[string]map[string]string{
		"dbo.Orders": {"Id": "int"},
	})

	content := Parse(
		`SELECT o.Id FROM dbo.Orders o;
		 UPDATE dbo.Orders SET Status = 'shipped' WHERE Id = @id;
		 SELECT o.Id FROM dbo.Orders o WHERE o.Id = @id`,
		"dbo", "dbo.ShipOrder", resolvers, nil,
	)

	if !content.ContainsUpdate {
		t.Error("expected ContainsUpdate to be true")
	}
	if len(content.ResultSets) != 2 {
		t.Fatalf("expected 2 result sets (the UPDATE produces none), got %d", len(content.ResultSets))
	}
	if content.ResultSets[0].Index != 0 || content.ResultSets[1].Index != 1 {
		t.Errorf("expected result sets indexed in source order, got %d, %d",
			content.ResultSets[0].Index, content.ResultSets[1].Index)
	}
}

func TestParseFallsBackOnUnparsableStatement(t *testing.T) {
	resolvers := noopResolverContext()
	// A bare EXEC with no target name: parseExecStatement errors, and since
	// it's the body's only statement, every statement fails and the lexical
	// fallback parser takes over.
	content := Parse("EXEC", "dbo", "dbo.Broken", resolvers, nil)

	if content.ParseErrorCount == 0 {
		t.Error("expected a recorded parse error")
	}
	if !content.UsedFallbackParser {
		t.Error("expected the fallback parser to engage when every statement fails")
	}
}
