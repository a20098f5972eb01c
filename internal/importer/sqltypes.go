package importer

import (
	"strings"

	"github.com/tordrt/schemadesigner/internal/schema"
)

var sqlTypes = map[string]schema.ColumnType{
	"int": schema.TypeInteger, "integer": schema.TypeInteger, "int2": schema.TypeInteger,
	"int4": schema.TypeInteger, "int8": schema.TypeInteger, "smallint": schema.TypeInteger,
	"mediumint": schema.TypeInteger, "bigint": schema.TypeInteger, "serial": schema.TypeInteger,
	"smallserial": schema.TypeInteger, "bigserial": schema.TypeInteger, "year": schema.TypeInteger,

	"real": schema.TypeFloat, "float": schema.TypeFloat, "float4": schema.TypeFloat,
	"float8": schema.TypeFloat, "double": schema.TypeFloat, "double precision": schema.TypeFloat,
	"numeric": schema.TypeFloat, "decimal": schema.TypeFloat, "money": schema.TypeFloat,

	"bool": schema.TypeBoolean, "boolean": schema.TypeBoolean, "bit": schema.TypeBoolean,

	"date": schema.TypeDate,

	"time": schema.TypeTime, "timetz": schema.TypeTime,
	"time with time zone": schema.TypeTime, "time without time zone": schema.TypeTime,

	"datetime": schema.TypeDatetime, "timestamp": schema.TypeDatetime, "timestamptz": schema.TypeDatetime,
	"timestamp with time zone": schema.TypeDatetime, "timestamp without time zone": schema.TypeDatetime,

	"enum": schema.TypeCategorical, "set": schema.TypeCategorical,
}

// MapSQLType maps a database column type onto the model's closed type set.
// Length and precision modifiers are ignored; MySQL's tinyint(1) is a
// boolean. Anything unrecognised is text.
func MapSQLType(sqlType string) schema.ColumnType {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	if t == "tinyint(1)" {
		return schema.TypeBoolean
	}
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i] + t[strings.LastIndexByte(t, ')')+1:])
	}
	t = strings.TrimSuffix(t, "[]")
	t = strings.TrimSpace(strings.TrimSuffix(t, " unsigned"))

	if typ, ok := sqlTypes[t]; ok {
		return typ
	}
	if typ := schema.ColumnType(t); typ.Valid() {
		return typ
	}
	switch {
	case strings.HasSuffix(t, "int"):
		return schema.TypeInteger
	case strings.HasPrefix(t, "timestamp"), strings.HasPrefix(t, "datetime"):
		return schema.TypeDatetime
	}
	return schema.TypeText
}
