package model

// Variable describes a single memory slot: an agent memory variable,
// a message variable, an environment constant or an ADT member.
type Variable struct {
	Type string
	Name string

	// DynamicArray is set when the declared type carried an _array suffix.
	DynamicArray    bool
	StaticArray     bool
	StaticArraySize int

	// ConstantRaw holds the declared constant string ("true"/"false");
	// Constant is the parsed value once validation has run.
	ConstantRaw string
	ConstantSet bool
	Constant    bool

	// HoldsDynamicArray is true for dynamic arrays and for variables whose
	// ADT type contains one, directly or transitively.
	HoldsDynamicArray bool
	HasADTType        bool
}

// DataType is a user-declared abstract data type or one of the
// pre-registered fundamental types.
type DataType struct {
	Name              string
	Variables         []*Variable
	Fundamental       bool
	HoldsDynamicArray bool
}

// FundamentalTypes are the element types every model starts with.
// The memory manager supports exactly these; user ADTs build on them.
var FundamentalTypes = []string{"int", "double"}
