package codegen

import "strings"

// GoType describes the generated Go shape for one SQL type: the base type
// name, the package it needs importing from (empty for builtins), and the
// accessor method suffix used against *sql.Rows (e.g. "Int64" for an
// int64-typed ordinal read helper).
type GoType struct {
	Name      string
	Import    string
	ScanKind  string // database/sql.Null* suffix, e.g. "String", "Int64"
}

// sqlTypeTable is the fixed SQL-type-to-Go-type mapping of spec §4.8 step 5.
var sqlTypeTable = map[string]GoType{
	"tinyint":          {Name: "int8", ScanKind: "Byte"},
	"smallint":         {Name: "int16", ScanKind: "Int16"},
	"int":              {Name: "int32", ScanKind: "Int32"},
	"bigint":           {Name: "int64", ScanKind: "Int64"},
	"bit":              {Name: "bool", ScanKind: "Bool"},
	"decimal":          {Name: "decimal.Decimal", Import: "github.com/shopspring/decimal", ScanKind: "String"},
	"numeric":          {Name: "decimal.Decimal", Import: "github.com/shopspring/decimal", ScanKind: "String"},
	"money":            {Name: "decimal.Decimal", Import: "github.com/shopspring/decimal", ScanKind: "String"},
	"smallmoney":       {Name: "decimal.Decimal", Import: "github.com/shopspring/decimal", ScanKind: "String"},
	"float":            {Name: "float64", ScanKind: "Float64"},
	"real":             {Name: "float32", ScanKind: "Float64"},
	"datetime":         {Name: "time.Time", Import: "time", ScanKind: "Time"},
	"datetime2":        {Name: "time.Time", Import: "time", ScanKind: "Time"},
	"smalldatetime":    {Name: "time.Time", Import: "time", ScanKind: "Time"},
	"date":             {Name: "time.Time", Import: "time", ScanKind: "Time"},
	"time":             {Name: "time.Time", Import: "time", ScanKind: "Time"},
	"datetimeoffset":   {Name: "time.Time", Import: "time", ScanKind: "Time"},
	"uniqueidentifier": {Name: "uuid.UUID", Import: "github.com/google/uuid", ScanKind: "String"},
	"varbinary":        {Name: "[]byte", ScanKind: "Bytes"},
	"binary":           {Name: "[]byte", ScanKind: "Bytes"},
	"image":            {Name: "[]byte", ScanKind: "Bytes"},
	"char":             {Name: "string", ScanKind: "String"},
	"varchar":          {Name: "string", ScanKind: "String"},
	"text":             {Name: "string", ScanKind: "String"},
	"nchar":            {Name: "string", ScanKind: "String"},
	"nvarchar":         {Name: "string", ScanKind: "String"},
	"ntext":            {Name: "string", ScanKind: "String"},
	"xml":              {Name: "string", ScanKind: "String"},
}

// defaultGoType is used for a SQL type the table does not recognize —
// treated as opaque text rather than failing generation.
var defaultGoType = GoType{Name: "string", ScanKind: "String"}

// MapSqlType resolves sqlType (case-insensitive) to its Go representation.
func MapSqlType(sqlType string) GoType {
	if t, ok := sqlTypeTable[strings.ToLower(sqlType)]; ok {
		return t
	}
	return defaultGoType
}

// GoFieldType renders the field type for a column: the base Go type,
// pointer-wrapped when nullable (the target-language optional marker, per
// spec §4.8's nullability rule).
func GoFieldType(sqlType string, isNullable bool) string {
	t := MapSqlType(sqlType)
	if t.Name == "[]byte" {
		// A nil slice already denotes NULL; pointer-to-slice would be
		// redundant and unidiomatic.
		return t.Name
	}
	if isNullable {
		return "*" + t.Name
	}
	return t.Name
}
