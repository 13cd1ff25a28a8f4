package grin

import (
	"fmt"
	"strings"
)

// Datatype tags how a property value is stored.
type Datatype uint8

const (
	Undefined Datatype = iota
	Int32
	UInt32
	Int64
	UInt64
	Float
	Double
	String
	Date32
	Time32
	Timestamp64
)

var datatypeNames = [...]string{
	Undefined:   "undefined",
	Int32:       "int32",
	UInt32:      "uint32",
	Int64:       "int64",
	UInt64:      "uint64",
	Float:       "float",
	Double:      "double",
	String:      "string",
	Date32:      "date32",
	Time32:      "time32",
	Timestamp64: "timestamp64",
}

func (d Datatype) String() string {
	if int(d) < len(datatypeNames) {
		return datatypeNames[d]
	}
	return fmt.Sprintf("datatype(%d)", uint8(d))
}

// Valid reports whether d is a member of the closed enumeration.
func (d Datatype) Valid() bool { return d <= Timestamp64 }

// Size is the storage width in bytes; 0 for String and Undefined.
func (d Datatype) Size() int {
	switch d {
	case Int32, UInt32, Float, Date32, Time32:
		return 4
	case Int64, UInt64, Double, Timestamp64:
		return 8
	default:
		return 0
	}
}

// FixedWidth reports whether values of d have a raw byte representation.
func (d Datatype) FixedWidth() bool { return d.Size() > 0 }

// ParseDatatype accepts the lower case names above and common SQL and
// GART spellings (INT, LONG, FLOAT, DOUBLE, STRING, TEXT, DATE, DATETIME,
// ...). DATE and DATETIME map to Date32 and Timestamp64 here. GART schema
// documents keep them as strings, so they must be read with
// catalog.ParseGARTSchema, not through this function.
func ParseDatatype(s string) (Datatype, error) {
	for i, n := range datatypeNames {
		if s == n {
			return Datatype(i), nil
		}
	}
	switch strings.ToUpper(s) {
	case "INT", "INTEGER", "INT32":
		return Int32, nil
	case "UINT", "UINT32":
		return UInt32, nil
	case "LONG", "BIGINT", "INT64":
		return Int64, nil
	case "ULONG", "UINT64":
		return UInt64, nil
	case "FLOAT", "REAL":
		return Float, nil
	case "DOUBLE":
		return Double, nil
	case "STRING", "TEXT", "LONGSTRING", "VARCHAR", "CHAR":
		return String, nil
	case "DATE", "DATE32":
		return Date32, nil
	case "TIME", "TIME32":
		return Time32, nil
	case "DATETIME", "TIMESTAMP", "TIMESTAMP64":
		return Timestamp64, nil
	}
	return Undefined, UnknownDatatypef("parse datatype", "unknown datatype %q", s)
}

func (d Datatype) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, UnknownDatatypef("marshal datatype", "invalid datatype %d", uint8(d))
	}
	return []byte(d.String()), nil
}

func (d *Datatype) UnmarshalText(b []byte) error {
	dt, err := ParseDatatype(string(b))
	if err != nil {
		return err
	}
	*d = dt
	return nil
}
