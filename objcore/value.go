package objcore

import (
	"fmt"
	"strconv"
)

type ValueKind int

const (
	KindNil ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSymbol
	KindObject
	KindClass
)

func (k ValueKind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindObject:
		return "object"
	case KindClass:
		return "class"
	default:
		return "unknown"
	}
}

// Value is a tagged runtime value. Nil, booleans, numbers, strings, and
// symbols are immediates; objects and classes are heap references.
type Value struct {
	kind ValueKind
	data any
}

func NewNil() Value               { return Value{kind: KindNil} }
func NewBool(b bool) Value        { return Value{kind: KindBool, data: b} }
func NewInt(i int64) Value        { return Value{kind: KindInt, data: i} }
func NewFloat(f float64) Value    { return Value{kind: KindFloat, data: f} }
func NewString(s string) Value    { return Value{kind: KindString, data: s} }
func NewSymbol(name string) Value { return Value{kind: KindSymbol, data: name} }

func ObjectValue(obj *Object) Value {
	if obj == nil {
		return NewNil()
	}
	return Value{kind: KindObject, data: obj}
}

func ClassValue(c *Class) Value {
	if c == nil {
		return NewNil()
	}
	return Value{kind: KindClass, data: c}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNil() bool { return v.kind == KindNil }

func (v Value) Bool() bool {
	if v.kind == KindBool {
		return v.data.(bool)
	}
	return false
}

// Truthy reports whether v counts as true: everything except nil and false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.data.(bool)
	default:
		return true
	}
}

func (v Value) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.data.(int64)
	case KindFloat:
		return int64(v.data.(float64))
	default:
		return 0
	}
}

func (v Value) Float() float64 {
	switch v.kind {
	case KindFloat:
		return v.data.(float64)
	case KindInt:
		return float64(v.data.(int64))
	default:
		return 0
	}
}

func (v Value) Object() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.data.(*Object)
}

func (v Value) Class() *Class {
	if v.kind != KindClass {
		return nil
	}
	return v.data.(*Class)
}

// IsImmediate reports whether v has no heap header and therefore can never
// carry a singleton class of its own.
func (v Value) IsImmediate() bool {
	return v.kind != KindObject && v.kind != KindClass
}

func (v Value) heap() *header {
	switch v.kind {
	case KindObject:
		return &v.data.(*Object).header
	case KindClass:
		return &v.data.(*Class).header
	default:
		return nil
	}
}

// Equal compares immediates by value and heap values by identity.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindObject:
		return v.data.(*Object) == other.data.(*Object)
	case KindClass:
		return v.data.(*Class) == other.data.(*Class)
	default:
		return v.data == other.data
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.data.(bool) {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.data.(int64), 10)
	case KindFloat:
		return strconv.FormatFloat(v.data.(float64), 'f', -1, 64)
	case KindString:
		return v.data.(string)
	case KindSymbol:
		return v.data.(string)
	case KindObject:
		return v.data.(*Object).String()
	case KindClass:
		return v.data.(*Class).String()
	default:
		return fmt.Sprintf("<%v>", v.data)
	}
}

// Inspect renders v the way a REPL would echo it.
func (v Value) Inspect() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.data.(string))
	case KindSymbol:
		return ":" + v.data.(string)
	default:
		return v.String()
	}
}
