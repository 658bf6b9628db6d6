package staging

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInferType(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		values []any
		want   columnType
	}{
		{name: "all nil", values: []any{nil, nil}, want: typeVarchar},
		{name: "no values", values: nil, want: typeVarchar},
		{name: "ints", values: []any{1, int64(2), nil}, want: typeBigint},
		{name: "int and float", values: []any{1, 2.5}, want: typeDouble},
		{name: "huge unsigned", values: []any{uint64(math.MaxUint64)}, want: typeDouble},
		{name: "bools", values: []any{true, false}, want: typeBoolean},
		{name: "times", values: []any{now}, want: typeTimestamp},
		{name: "bytes", values: []any{[]byte{0x1}}, want: typeBlob},
		{name: "strings", values: []any{"a"}, want: typeVarchar},
		{name: "bool and int", values: []any{true, 1}, want: typeVarchar},
		{name: "unknown", values: []any{struct{}{}}, want: typeVarchar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferType(tt.values))
		})
	}
}

func TestColumnType_Convert(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, int64(3), typeBigint.convert(int16(3)))
	assert.InDelta(t, 3.0, typeDouble.convert(3), 0)
	assert.Equal(t, "3", typeVarchar.convert(3))
	assert.Equal(t, "0.5", typeVarchar.convert(0.5))
	assert.Equal(t, "2024-01-02T03:04:05Z", typeVarchar.convert(ts))
	assert.Equal(t, "raw", typeVarchar.convert([]byte("raw")))
	assert.Nil(t, typeBigint.convert(nil))
	assert.Equal(t, true, typeBoolean.convert(true))
}
