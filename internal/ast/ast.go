package ast

import (
	"bytes"
	"strconv"
	"strings"
)

// Element kinds as they appear in a program tree document.
const (
	ProgramElem    = "program"
	FunctionElem   = "func"
	VarDefElem     = "vardef"
	AssignElem     = "="
	CallElem       = "fcall"
	ReturnElem     = "return"
	IdentifierElem = "var"
	IntElem        = "int"
	FloatElem      = "float"
	StringElem     = "string"
	AddElem        = "+"
	SubElem        = "-"
)

// The base Node interface
type Node interface {
	ElemType() string
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

type Program struct {
	Functions []*FunctionDefinition
	// Globals run in the global frame after every function is registered.
	Globals []Statement
}

func (p *Program) ElemType() string { return ProgramElem }
func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Globals {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	for _, f := range p.Functions {
		out.WriteString(f.String())
		out.WriteString("\n")
	}
	return out.String()
}

type FunctionDefinition struct {
	Name       string
	Parameters []*Identifier
	Body       []Statement
}

func (fd *FunctionDefinition) statementNode()   {}
func (fd *FunctionDefinition) ElemType() string { return FunctionElem }
func (fd *FunctionDefinition) String() string {
	var out bytes.Buffer

	params := make([]string, 0, len(fd.Parameters))
	for _, p := range fd.Parameters {
		params = append(params, p.String())
	}

	out.WriteString("func ")
	out.WriteString(fd.Name)
	out.WriteString("(")
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(") {")
	for _, s := range fd.Body {
		out.WriteString(" ")
		out.WriteString(s.String())
	}
	out.WriteString(" }")

	return out.String()
}

type VarDefinition struct {
	Name *Identifier
}

func (vd *VarDefinition) statementNode()   {}
func (vd *VarDefinition) ElemType() string { return VarDefElem }
func (vd *VarDefinition) String() string   { return "var " + vd.Name.String() + ";" }

type Assignment struct {
	Name  *Identifier
	Value Expression
}

func (as *Assignment) statementNode()   {}
func (as *Assignment) ElemType() string { return AssignElem }
func (as *Assignment) String() string {
	return as.Name.String() + " = " + as.Value.String() + ";"
}

// CallStatement is a call whose result is discarded.
type CallStatement struct {
	Call *CallExpression
}

func (cs *CallStatement) statementNode()   {}
func (cs *CallStatement) ElemType() string { return CallElem }
func (cs *CallStatement) String() string   { return cs.Call.String() + ";" }

type ReturnStatement struct {
	ReturnValue Expression // nil for a bare return
}

func (rs *ReturnStatement) statementNode()   {}
func (rs *ReturnStatement) ElemType() string { return ReturnElem }
func (rs *ReturnStatement) String() string {
	if rs.ReturnValue == nil {
		return "return;"
	}
	return "return " + rs.ReturnValue.String() + ";"
}

type Identifier struct {
	Value string
}

func (i *Identifier) expressionNode()  {}
func (i *Identifier) ElemType() string { return IdentifierElem }
func (i *Identifier) String() string   { return i.Value }

type IntegerLiteral struct {
	Value int64
}

func (il *IntegerLiteral) expressionNode()  {}
func (il *IntegerLiteral) ElemType() string { return IntElem }
func (il *IntegerLiteral) String() string   { return strconv.FormatInt(il.Value, 10) }

type FloatLiteral struct {
	Value float64
}

func (fl *FloatLiteral) expressionNode()  {}
func (fl *FloatLiteral) ElemType() string { return FloatElem }
func (fl *FloatLiteral) String() string   { return strconv.FormatFloat(fl.Value, 'g', -1, 64) }

type StringLiteral struct {
	Value string
}

func (sl *StringLiteral) expressionNode()  {}
func (sl *StringLiteral) ElemType() string { return StringElem }
func (sl *StringLiteral) String() string   { return strconv.Quote(sl.Value) }

type BinaryExpression struct {
	Operator string
	Left     Expression
	Right    Expression
}

func (be *BinaryExpression) expressionNode()  {}
func (be *BinaryExpression) ElemType() string { return be.Operator }
func (be *BinaryExpression) String() string {
	return "(" + be.Left.String() + " " + be.Operator + " " + be.Right.String() + ")"
}

type CallExpression struct {
	Function  *Identifier
	Arguments []Expression
}

func (ce *CallExpression) expressionNode()  {}
func (ce *CallExpression) ElemType() string { return CallElem }
func (ce *CallExpression) String() string {
	args := make([]string, 0, len(ce.Arguments))
	for _, a := range ce.Arguments {
		args = append(args, a.String())
	}
	return ce.Function.String() + "(" + strings.Join(args, ", ") + ")"
}
