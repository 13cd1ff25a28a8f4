package grin

import (
	"encoding/binary"
	"math"
	"strconv"
)

// Value is one typed property value. Fixed-width values keep their raw bits
// in the low Size() bytes of bits; strings live in str.
//
// Date32 counts days since the Unix epoch, Time32 milliseconds since
// midnight and Timestamp64 milliseconds since the Unix epoch.
type Value struct {
	Type Datatype
	bits uint64
	str  string
}

// NullValue is the zero Value (Undefined).
var NullValue = Value{}

func Int32Value(v int32) Value       { return Value{Type: Int32, bits: uint64(uint32(v))} }
func UInt32Value(v uint32) Value     { return Value{Type: UInt32, bits: uint64(v)} }
func Int64Value(v int64) Value       { return Value{Type: Int64, bits: uint64(v)} }
func UInt64Value(v uint64) Value     { return Value{Type: UInt64, bits: v} }
func FloatValue(v float32) Value     { return Value{Type: Float, bits: uint64(math.Float32bits(v))} }
func DoubleValue(v float64) Value    { return Value{Type: Double, bits: math.Float64bits(v)} }
func StringValue(v string) Value     { return Value{Type: String, str: v} }
func Date32Value(v int32) Value      { return Value{Type: Date32, bits: uint64(uint32(v))} }
func Time32Value(v int32) Value      { return Value{Type: Time32, bits: uint64(uint32(v))} }
func Timestamp64Value(v int64) Value { return Value{Type: Timestamp64, bits: uint64(v)} }

// IsNull reports whether v carries no value.
func (v Value) IsNull() bool { return v.Type == Undefined }

func (v Value) want(dt Datatype, op string) error {
	if v.Type != dt {
		return UnknownDatatypef(op, "value is %s, not %s", v.Type, dt)
	}
	return nil
}

func (v Value) Int32() (int32, error)   { return int32(uint32(v.bits)), v.want(Int32, "int32") }
func (v Value) UInt32() (uint32, error) { return uint32(v.bits), v.want(UInt32, "uint32") }
func (v Value) Int64() (int64, error)   { return int64(v.bits), v.want(Int64, "int64") }
func (v Value) UInt64() (uint64, error) { return v.bits, v.want(UInt64, "uint64") }
func (v Value) Float() (float32, error) {
	return math.Float32frombits(uint32(v.bits)), v.want(Float, "float")
}
func (v Value) Double() (float64, error) {
	return math.Float64frombits(v.bits), v.want(Double, "double")
}
func (v Value) Str() (string, error)   { return v.str, v.want(String, "string") }
func (v Value) Date32() (int32, error) { return int32(uint32(v.bits)), v.want(Date32, "date32") }
func (v Value) Time32() (int32, error) { return int32(uint32(v.bits)), v.want(Time32, "time32") }
func (v Value) Timestamp64() (int64, error) {
	return int64(v.bits), v.want(Timestamp64, "timestamp64")
}

// Raw returns the little-endian storage bytes of a fixed-width value.
func (v Value) Raw() ([]byte, error) {
	n := v.Type.Size()
	if n == 0 {
		return nil, UnknownDatatypef("raw value", "%s has no fixed-width representation", v.Type)
	}
	b := make([]byte, n)
	if n == 4 {
		binary.LittleEndian.PutUint32(b, uint32(v.bits))
	} else {
		binary.LittleEndian.PutUint64(b, v.bits)
	}
	return b, nil
}

// DecodeRaw reinterprets raw storage bytes as a value of datatype dt.
func DecodeRaw(dt Datatype, b []byte) (Value, error) {
	n := dt.Size()
	if n == 0 {
		return NullValue, UnknownDatatypef("decode raw", "%s has no fixed-width representation", dt)
	}
	if len(b) < n {
		return NullValue, InvalidValuef("decode raw", "need %d bytes for %s, got %d", n, dt, len(b))
	}
	if n == 4 {
		return Value{Type: dt, bits: uint64(binary.LittleEndian.Uint32(b))}, nil
	}
	return Value{Type: dt, bits: binary.LittleEndian.Uint64(b)}, nil
}

// Equal compares type and content; floats compare by bits.
func (v Value) Equal(o Value) bool {
	return v.Type == o.Type && v.bits == o.bits && v.str == o.str
}

// Any returns the value as a plain Go value for encoding and display.
func (v Value) Any() any {
	switch v.Type {
	case Int32, Date32, Time32:
		return int32(uint32(v.bits))
	case UInt32:
		return uint32(v.bits)
	case Int64, Timestamp64:
		return int64(v.bits)
	case UInt64:
		return v.bits
	case Float:
		return math.Float32frombits(uint32(v.bits))
	case Double:
		return math.Float64frombits(v.bits)
	case String:
		return v.str
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.Type {
	case Int32, Date32, Time32:
		return strconv.FormatInt(int64(int32(uint32(v.bits))), 10)
	case UInt32, UInt64:
		return strconv.FormatUint(v.bits, 10)
	case Int64, Timestamp64:
		return strconv.FormatInt(int64(v.bits), 10)
	case Float:
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(v.bits))), 'g', -1, 32)
	case Double:
		return strconv.FormatFloat(math.Float64frombits(v.bits), 'g', -1, 64)
	case String:
		return v.str
	default:
		return "<null>"
	}
}

// ValueOf converts a decoded Go value (JSON numbers, driver values) into a
// Value of datatype dt.
func ValueOf(dt Datatype, x any) (Value, error) {
	if dt == String {
		switch s := x.(type) {
		case string:
			return StringValue(s), nil
		case []byte:
			return StringValue(string(s)), nil
		case nil:
			return StringValue(""), nil
		default:
			return StringValue(toString(x)), nil
		}
	}
	if !dt.FixedWidth() {
		return NullValue, UnknownDatatypef("value of", "cannot convert to %s", dt)
	}
	if x == nil {
		return Value{Type: dt}, nil
	}
	switch dt {
	case Float:
		f, ok := toFloat(x)
		if !ok {
			return NullValue, InvalidValuef("value of", "%v (%T) is not a float", x, x)
		}
		return FloatValue(float32(f)), nil
	case Double:
		f, ok := toFloat(x)
		if !ok {
			return NullValue, InvalidValuef("value of", "%v (%T) is not a double", x, x)
		}
		return DoubleValue(f), nil
	case UInt32, UInt64:
		u, ok := toUint(x)
		if !ok {
			return NullValue, InvalidValuef("value of", "%v (%T) is not an unsigned integer", x, x)
		}
		if dt == UInt32 {
			if u > math.MaxUint32 {
				return NullValue, InvalidValuef("value of", "%v overflows uint32", x)
			}
			return UInt32Value(uint32(u)), nil
		}
		return UInt64Value(u), nil
	default:
		i, ok := toInt(x)
		if !ok {
			return NullValue, InvalidValuef("value of", "%v (%T) is not an integer", x, x)
		}
		if dt != Int64 && dt != Timestamp64 && (i < math.MinInt32 || i > math.MaxInt32) {
			return NullValue, InvalidValuef("value of", "%v overflows %s", x, dt)
		}
		switch dt {
		case Int32:
			return Int32Value(int32(i)), nil
		case Date32:
			return Date32Value(int32(i)), nil
		case Time32:
			return Time32Value(int32(i)), nil
		case Timestamp64:
			return Timestamp64Value(i), nil
		default:
			return Int64Value(i), nil
		}
	}
}

func toInt(x any) (int64, bool) {
	switch n := x.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float64:
		return floatToInt(n)
	case float32:
		return floatToInt(float64(n))
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	case interface{ Int64() (int64, error) }:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

// floatToInt accepts whole floats within the int64 range.
func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func toUint(x any) (uint64, bool) {
	switch n := x.(type) {
	case uint64:
		return n, true
	case uint:
		return uint64(n), true
	case string:
		u, err := strconv.ParseUint(n, 10, 64)
		return u, err == nil
	case interface{ String() string }:
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return u, true
		}
	}
	i, ok := toInt(x)
	if !ok || i < 0 {
		return 0, false
	}
	return uint64(i), true
}

func toFloat(x any) (float64, bool) {
	switch n := x.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	}
	i, ok := toInt(x)
	return float64(i), ok
}

func toString(x any) string {
	switch n := x.(type) {
	case interface{ String() string }:
		return n.String()
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(n)
	}
	if i, ok := toInt(x); ok {
		return strconv.FormatInt(i, 10)
	}
	return ""
}
