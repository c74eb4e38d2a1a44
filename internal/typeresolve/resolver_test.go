package typeresolve

import (
	"testing"

	"github.com/xtraq/xtraq/internal/schemamodel"
)

func intPtr(n int) *int { return &n }

func TestResolve_SysTypePassesThrough(t *testing.T) {
	r := NewResolver(nil)
	got := r.Resolve("sys.nvarchar", 100, nil, nil, true)
	if got.SqlType != "nvarchar" || got.MaxLength != 100 || !got.IsNullable || got.IsUserType {
		t.Fatalf("unexpected resolution: %+v", got)
	}
}

func TestResolve_UserDefinedType(t *testing.T) {
	udts := []schemamodel.UserDefinedTypeInfo{
		{Schema: "dbo", Name: "Email", BaseSqlType: "nvarchar", MaxLength: intPtr(256)},
	}
	r := NewResolver(udts)

	got := r.Resolve("dbo.Email", 0, nil, nil, true)
	if !got.IsUserType || got.SqlType != "nvarchar" || got.MaxLength != 256 {
		t.Fatalf("unexpected resolution: %+v", got)
	}
}

func TestResolve_LeadingUnderscoreForcesNonNull(t *testing.T) {
	udts := []schemamodel.UserDefinedTypeInfo{
		{Schema: "dbo", Name: "_StrictCode", BaseSqlType: "varchar"},
	}
	r := NewResolver(udts)

	got := r.Resolve("dbo._StrictCode", 10, nil, nil, true)
	if got.IsNullable {
		t.Fatalf("expected leading underscore to force non-null, got %+v", got)
	}
}

func TestResolve_ThreeTierLookup(t *testing.T) {
	udts := []schemamodel.UserDefinedTypeInfo{
		{Catalog: "AppDb", Schema: "dbo", Name: "Phone", BaseSqlType: "varchar", MaxLength: intPtr(20)},
	}
	r := NewResolver(udts)

	tests := []struct {
		name    string
		typeRef string
	}{
		{"full three-part", "AppDb.dbo.Phone"},
		{"schema and name only", "dbo.Phone"},
		{"name only", "Phone"},
		{"case-insensitive", "DBO.phone"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Resolve(tc.typeRef, 0, nil, nil, false)
			if !got.IsUserType || got.MaxLength != 20 {
				t.Fatalf("typeRef %q: unexpected resolution %+v", tc.typeRef, got)
			}
		})
	}
}

func TestResolve_UnknownTypePassesDeclaredValues(t *testing.T) {
	r := NewResolver(nil)
	got := r.Resolve("dbo.NotRegistered", 50, nil, nil, true)
	if got.IsUserType || got.MaxLength != 50 || !got.IsNullable {
		t.Fatalf("unexpected resolution: %+v", got)
	}
}
