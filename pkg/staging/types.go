package staging

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// columnType is a DuckDB column type a staged column is created with.
type columnType string

const (
	typeBigint    columnType = "BIGINT"
	typeDouble    columnType = "DOUBLE"
	typeBoolean   columnType = "BOOLEAN"
	typeTimestamp columnType = "TIMESTAMP"
	typeBlob      columnType = "BLOB"
	typeVarchar   columnType = "VARCHAR"
)

// inferType picks the narrowest type every non-nil value fits. Integers and
// floats widen to DOUBLE; any other mix, and an all-nil column, is VARCHAR.
func inferType(values []any) columnType {
	var typ columnType
	for _, v := range values {
		if v == nil {
			continue
		}
		t := typeOf(v)
		switch {
		case typ == "":
			typ = t
		case typ == t:
		case isNumeric(typ) && isNumeric(t):
			typ = typeDouble
		default:
			return typeVarchar
		}
	}
	if typ == "" {
		return typeVarchar
	}
	return typ
}

func isNumeric(t columnType) bool {
	return t == typeBigint || t == typeDouble
}

func typeOf(v any) columnType {
	switch x := v.(type) {
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return typeBigint
	case uint:
		if uint64(x) > math.MaxInt64 {
			return typeDouble
		}
		return typeBigint
	case uint64:
		if x > math.MaxInt64 {
			return typeDouble
		}
		return typeBigint
	case float32, float64:
		return typeDouble
	case bool:
		return typeBoolean
	case time.Time:
		return typeTimestamp
	case []byte:
		return typeBlob
	default:
		return typeVarchar
	}
}

// convert coerces v into the Go value the driver binds for t.
func (t columnType) convert(v any) any {
	if v == nil {
		return nil
	}
	switch t {
	case typeBigint:
		if n, ok := toInt64(v); ok {
			return n
		}
	case typeDouble:
		if f, ok := toFloat64(v); ok {
			return f
		}
	case typeVarchar:
		return toString(v)
	}
	return v
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint:
		return int64(x), x <= math.MaxInt64 //nolint:gosec // checked against MaxInt64
	case uint64:
		return int64(x), x <= math.MaxInt64 //nolint:gosec // checked against MaxInt64
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	if n, ok := toInt64(v); ok {
		return float64(n), true
	}
	return 0, false
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
