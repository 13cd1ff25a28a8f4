package grin

// Row is an ordered sequence of typed values, read positionally. Reads have
// no cursor state and may be repeated.
type Row struct {
	values []Value
}

// NewRow returns a row holding vals in order.
func NewRow(vals ...Value) *Row {
	return &Row{values: append([]Value(nil), vals...)}
}

func (r *Row) Len() int { return len(r.values) }

func (r *Row) InsertValue(v Value)       { r.values = append(r.values, v) }
func (r *Row) InsertInt32(v int32)       { r.InsertValue(Int32Value(v)) }
func (r *Row) InsertUInt32(v uint32)     { r.InsertValue(UInt32Value(v)) }
func (r *Row) InsertInt64(v int64)       { r.InsertValue(Int64Value(v)) }
func (r *Row) InsertUInt64(v uint64)     { r.InsertValue(UInt64Value(v)) }
func (r *Row) InsertFloat(v float32)     { r.InsertValue(FloatValue(v)) }
func (r *Row) InsertDouble(v float64)    { r.InsertValue(DoubleValue(v)) }
func (r *Row) InsertString(v string)     { r.InsertValue(StringValue(v)) }
func (r *Row) InsertDate32(v int32)      { r.InsertValue(Date32Value(v)) }
func (r *Row) InsertTime32(v int32)      { r.InsertValue(Time32Value(v)) }
func (r *Row) InsertTimestamp64(v int64) { r.InsertValue(Timestamp64Value(v)) }

// ValueAt returns the i-th value, or InvalidValue when i is out of range.
func (r *Row) ValueAt(i int) (Value, error) {
	if i < 0 || i >= len(r.values) {
		return NullValue, InvalidValuef("row", "index %d out of range [0,%d)", i, len(r.values))
	}
	return r.values[i], nil
}

// RawAt returns the storage bytes of the i-th value. Strings have none.
func (r *Row) RawAt(i int) ([]byte, error) {
	v, err := r.ValueAt(i)
	if err != nil {
		return nil, err
	}
	return v.Raw()
}

func rowAt[T any](r *Row, i int, get func(Value) (T, error)) (T, error) {
	v, err := r.ValueAt(i)
	if err != nil {
		var zero T
		return zero, err
	}
	return get(v)
}

func (r *Row) Int32At(i int) (int32, error)       { return rowAt(r, i, Value.Int32) }
func (r *Row) UInt32At(i int) (uint32, error)     { return rowAt(r, i, Value.UInt32) }
func (r *Row) Int64At(i int) (int64, error)       { return rowAt(r, i, Value.Int64) }
func (r *Row) UInt64At(i int) (uint64, error)     { return rowAt(r, i, Value.UInt64) }
func (r *Row) FloatAt(i int) (float32, error)     { return rowAt(r, i, Value.Float) }
func (r *Row) DoubleAt(i int) (float64, error)    { return rowAt(r, i, Value.Double) }
func (r *Row) StringAt(i int) (string, error)     { return rowAt(r, i, Value.Str) }
func (r *Row) Date32At(i int) (int32, error)      { return rowAt(r, i, Value.Date32) }
func (r *Row) Time32At(i int) (int32, error)      { return rowAt(r, i, Value.Time32) }
func (r *Row) Timestamp64At(i int) (int64, error) { return rowAt(r, i, Value.Timestamp64) }
