package table

// Kind is the declared element type of a column.
type Kind int

const (
	Invalid Kind = iota
	Int16
	Int32
	Int64
	Float32
	Float64
	Bool
	Text
)

var kindNames = map[Kind]string{
	Invalid: "invalid",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Float32: "float32",
	Float64: "float64",
	Bool:    "bool",
	Text:    "text",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[Invalid]
}

// IsInteger is true for signed integer kinds of any width.
func (k Kind) IsInteger() bool {
	return k == Int16 || k == Int32 || k == Int64
}

// IsFloat is true for IEEE float kinds of any width.
func (k Kind) IsFloat() bool {
	return k == Float32 || k == Float64
}

// IsNumeric is true for integer and float kinds.
func (k Kind) IsNumeric() bool {
	return k.IsInteger() || k.IsFloat()
}

// ParseKind converts a type name such as "int32" or "float64" to a Kind.
// Unknown names return Invalid.
func ParseKind(s string) Kind {
	switch s {
	case "int8", "uint8", "int16":
		return Int16
	case "uint16", "int32":
		return Int32
	case "uint32", "int64", "uint64":
		return Int64
	case "float16", "float32":
		return Float32
	case "float64":
		return Float64
	case "bool":
		return Bool
	case "string", "text":
		return Text
	}
	return Invalid
}
