package grin

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatatypeSize(t *testing.T) {
	tests := []struct {
		dt   Datatype
		size int
	}{
		{Int32, 4}, {UInt32, 4}, {Float, 4}, {Date32, 4}, {Time32, 4},
		{Int64, 8}, {UInt64, 8}, {Double, 8}, {Timestamp64, 8},
		{String, 0}, {Undefined, 0},
	}
	for _, tt := range tests {
		if got := tt.dt.Size(); got != tt.size {
			t.Errorf("Expected %s size %d, got %d", tt.dt, tt.size, got)
		}
	}
}

func TestParseDatatype(t *testing.T) {
	tests := []struct {
		in   string
		want Datatype
	}{
		{"int32", Int32},
		{"timestamp64", Timestamp64},
		{"INT", Int32},
		{"LONG", Int64},
		{"DOUBLE", Double},
		{"TEXT", String},
		{"DATE", Date32},
		{"DATETIME", Timestamp64},
		{"varchar", String},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDatatype(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDatatype("BLOB")
	assert.Equal(t, UnknownDatatype, CodeOf(err))
}

func TestDatatypeText(t *testing.T) {
	b, err := json.Marshal(struct {
		T Datatype `json:"t"`
	}{Date32})
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"date32"}`, string(b))

	var out struct {
		T Datatype `json:"t"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"t":"LONG"}`), &out))
	assert.Equal(t, Int64, out.T)

	_, err = Datatype(42).MarshalText()
	assert.Error(t, err)
}

func TestTypedGetters(t *testing.T) {
	v := Int32Value(-7)
	i, err := v.Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(-7), i)

	_, err = v.Int64()
	assert.Equal(t, UnknownDatatype, CodeOf(err), "getter must match the tag")
	_, err = Date32Value(3).Int32()
	assert.Equal(t, UnknownDatatype, CodeOf(err), "date32 is not int32")

	f, err := FloatValue(1.5).Float()
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f)

	s, err := StringValue("grin").Str()
	require.NoError(t, err)
	assert.Equal(t, "grin", s)

	assert.True(t, NullValue.IsNull())
	assert.Equal(t, "<null>", NullValue.String())
}

func TestRawRoundTrip(t *testing.T) {
	values := []Value{
		Int32Value(math.MinInt32),
		UInt32Value(math.MaxUint32),
		Int64Value(-1),
		UInt64Value(math.MaxUint64),
		FloatValue(float32(math.Inf(-1))),
		DoubleValue(math.Pi),
		Date32Value(19000),
		Time32Value(86399999),
		Timestamp64Value(1700000000000),
	}
	for _, v := range values {
		t.Run(v.Type.String(), func(t *testing.T) {
			raw, err := v.Raw()
			require.NoError(t, err)
			assert.Len(t, raw, v.Type.Size())
			back, err := DecodeRaw(v.Type, raw)
			require.NoError(t, err)
			assert.True(t, back.Equal(v), "got %v, want %v", back, v)
		})
	}

	_, err := StringValue("x").Raw()
	assert.Equal(t, UnknownDatatype, CodeOf(err))
	_, err = DecodeRaw(Int64, []byte{1, 2})
	assert.Equal(t, InvalidValue, CodeOf(err))
}

func TestRawLittleEndian(t *testing.T) {
	raw, err := Int32Value(0x01020304).Raw()
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 3, 2, 1}, raw)
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		name string
		dt   Datatype
		in   any
		want Value
	}{
		{"json int", Int32, json.Number("42"), Int32Value(42)},
		{"float64 int", Int64, float64(9), Int64Value(9)},
		{"big uint", UInt64, json.Number("18446744073709551615"), UInt64Value(math.MaxUint64)},
		{"json float", Double, json.Number("3.14"), DoubleValue(3.14)},
		{"float narrowing", Float, 0.25, FloatValue(0.25)},
		{"string", String, "alice", StringValue("alice")},
		{"number as string", String, json.Number("7"), StringValue("7")},
		{"nil string", String, nil, StringValue("")},
		{"timestamp", Timestamp64, int64(1700000000000), Timestamp64Value(1700000000000)},
		{"date from string", Date32, "18000", Date32Value(18000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueOf(tt.dt, tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v (%s), want %v (%s)", got, got.Type, tt.want, tt.want.Type)
		})
	}

	_, err := ValueOf(Int32, 1.5)
	assert.Equal(t, InvalidValue, CodeOf(err))
	_, err = ValueOf(UInt32, -1)
	assert.Equal(t, InvalidValue, CodeOf(err))
	_, err = ValueOf(Undefined, 1)
	assert.Equal(t, UnknownDatatype, CodeOf(err))
}

func TestValueOfOverflow(t *testing.T) {
	tests := []struct {
		name string
		dt   Datatype
		in   any
	}{
		{"int32 above range", Int32, json.Number("3000000000")},
		{"int32 below range", Int32, int64(math.MinInt32) - 1},
		{"uint32 above range", UInt32, json.Number("5000000000")},
		{"date32 above range", Date32, float64(1 << 40)},
		{"time32 above range", Time32, "4294967296"},
		{"int64 from huge uint64", Int64, uint64(math.MaxUint64)},
		{"int64 from huge float", Int64, 1e19},
		{"timestamp from huge float", Timestamp64, -1e19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueOf(tt.dt, tt.in)
			if CodeOf(err) != InvalidValue {
				t.Errorf("Expected InvalidValue, got %v (value %v)", err, got)
			}
		})
	}

	edges := []struct {
		dt   Datatype
		in   any
		want Value
	}{
		{Int32, int64(math.MaxInt32), Int32Value(math.MaxInt32)},
		{Int32, int64(math.MinInt32), Int32Value(math.MinInt32)},
		{UInt32, json.Number("4294967295"), UInt32Value(math.MaxUint32)},
		{Int64, uint64(math.MaxInt64), Int64Value(math.MaxInt64)},
		{Double, uint64(math.MaxUint64), DoubleValue(float64(uint64(math.MaxUint64)))},
	}
	for _, tt := range edges {
		got, err := ValueOf(tt.dt, tt.in)
		require.NoError(t, err)
		assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
	}
}

func TestValueAny(t *testing.T) {
	assert.Equal(t, int32(5), Time32Value(5).Any())
	assert.Equal(t, uint64(5), UInt64Value(5).Any())
	assert.Equal(t, "x", StringValue("x").Any())
	assert.Nil(t, NullValue.Any())
	assert.Equal(t, "0.5", FloatValue(0.5).String())
}
