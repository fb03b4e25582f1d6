package object

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"brewin/internal/ast"
)

const (
	INTEGER_OBJ       = "INTEGER"
	FLOAT_OBJ         = "FLOAT"
	STRING_OBJ        = "STRING"
	FUNCTION_OBJ      = "FUNCTION"
	UNINITIALIZED_OBJ = "UNINITIALIZED"
	RETURN_VALUE_OBJ  = "RETURN_VALUE"
)

type ObjectType string

// Object is a runtime value. Values never change once built; rebinding a
// variable replaces the binding in its Frame.
type Object interface {
	Type() ObjectType
	Inspect() string
}

type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }

type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }

// Inspect always renders a fractional part so floats stay distinguishable from integers.
func (f *Float) Inspect() string {
	s := strconv.FormatFloat(f.Value, 'g', -1, 64)
	if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) || strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

// Function is a user-defined function together with the frame it was defined in.
type Function struct {
	Name       string
	Parameters []*ast.Identifier
	Body       []ast.Statement
	Env        *Frame // captured at definition time
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	var out bytes.Buffer

	params := make([]string, 0, len(f.Parameters))
	for _, p := range f.Parameters {
		params = append(params, p.String())
	}

	out.WriteString("<function ")
	out.WriteString(f.Name)
	out.WriteString("(")
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(")>")
	return out.String()
}

// Uninitialized is bound by a variable declaration without an initializer.
// It is a value, distinct from a name that is not bound at all.
type Uninitialized struct{}

func (u *Uninitialized) Type() ObjectType { return UNINITIALIZED_OBJ }
func (u *Uninitialized) Inspect() string  { return "<uninitialized>" }

// UNINITIALIZED is the singleton sentinel instance used by the runtime.
var UNINITIALIZED = &Uninitialized{}

func IsUninitialized(obj Object) bool {
	_, ok := obj.(*Uninitialized)
	return ok
}

// ReturnValue carries a return signal up through statement lists until the
// enclosing function call unwraps it. Value is nil for a bare return.
type ReturnValue struct {
	Value Object
}

func (rv *ReturnValue) Type() ObjectType { return RETURN_VALUE_OBJ }
func (rv *ReturnValue) Inspect() string {
	if rv.Value == nil {
		return "<none>"
	}
	return rv.Value.Inspect()
}
