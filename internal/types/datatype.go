package types

// DataType is the closed set of property types the contract dialect knows.
type DataType string

const (
	DataTypeString  DataType = "string"
	DataTypeInteger DataType = "integer"
	DataTypeNumber  DataType = "number"
	DataTypeArray   DataType = "array"
	DataTypeObject  DataType = "object"
	DataTypeBoolean DataType = "boolean"
)

// DataTypes lists every type in the order clients present them.
var DataTypes = []DataType{
	DataTypeString,
	DataTypeInteger,
	DataTypeNumber,
	DataTypeArray,
	DataTypeObject,
	DataTypeBoolean,
}

// ParseDataType maps a JSON literal to a DataType.
func ParseDataType(s string) (DataType, bool) {
	for _, dt := range DataTypes {
		if string(dt) == s {
			return dt, true
		}
	}
	return "", false
}

func (d DataType) Valid() bool {
	_, ok := ParseDataType(string(d))
	return ok
}

func (d DataType) String() string { return string(d) }

// Numeric reports whether minimum/maximum apply.
func (d DataType) Numeric() bool {
	return d == DataTypeInteger || d == DataTypeNumber
}

// Dialect limits enforced by the protocol.
const (
	MaxIndexedStringLength = 63
	MaxIndexedArrayItems   = 255
)

// System property names the protocol manages on every document.
const (
	SystemOwnerID   = "$ownerId"
	SystemCreatedAt = "$createdAt"
	SystemUpdatedAt = "$updatedAt"
)

var SystemProperties = []string{SystemOwnerID, SystemCreatedAt, SystemUpdatedAt}

// StringFormats are the values accepted for a string property's format.
var StringFormats = []string{
	"uri",
	"email",
	"date",
	"date-time",
	"time",
	"hostname",
	"ipv4",
	"ipv6",
	"uuid",
}

func IsSystemProperty(name string) bool {
	for _, s := range SystemProperties {
		if s == name {
			return true
		}
	}
	return false
}

func IsStringFormat(format string) bool {
	for _, f := range StringFormats {
		if f == format {
			return true
		}
	}
	return false
}
