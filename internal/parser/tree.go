package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"

	"brewin/internal/ast"
	"brewin/internal/object"

	"gopkg.in/yaml.v3"
)

// Element attribute names used by program tree documents.
const (
	elemTypeKey   = "elem_type"
	functionsKey  = "functions"
	globalsKey    = "globals"
	nameKey       = "name"
	argsKey       = "args"
	statementsKey = "statements"
	expressionKey = "expression"
	op1Key        = "op1"
	op2Key        = "op2"
	valKey        = "val"
	argElem       = "arg"
)

// ParseError reports a malformed element in a program tree document.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s [%d:%d]: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseFile reads and decodes a program tree document from disk.
func ParseFile(path string) (*ast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program tree '%s': %w", path, err)
	}
	return ParseTree(data)
}

// ParseTree decodes a YAML or JSON element document into a program.
// Every element is a mapping carrying an elem_type and its named children.
func ParseTree(data []byte) (*ast.Program, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode program tree: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &ParseError{Path: "$", Message: "empty program tree"}
	}

	d := &decoder{}
	program, err := d.program(doc.Content[0], "$")
	if err != nil {
		return nil, err
	}

	slog.Debug("decoded program tree",
		slog.Int("functions", len(program.Functions)),
		slog.Int("globals", len(program.Globals)))
	return program, nil
}

type decoder struct{}

func (d *decoder) fail(n *yaml.Node, path string, format string, a ...any) error {
	pe := &ParseError{Path: path, Message: fmt.Sprintf(format, a...)}
	if n != nil {
		pe.Line = n.Line
		pe.Column = n.Column
	}
	return pe
}

func (d *decoder) field(n *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func (d *decoder) elemType(n *yaml.Node, path string) (string, error) {
	if n == nil || n.Kind != yaml.MappingNode {
		return "", d.fail(n, path, "element must be a mapping")
	}
	t := d.field(n, elemTypeKey)
	if t == nil || t.Kind != yaml.ScalarNode {
		return "", d.fail(n, path, "element is missing '%s'", elemTypeKey)
	}
	return t.Value, nil
}

func (d *decoder) scalar(n *yaml.Node, key string, path string) (string, error) {
	v := d.field(n, key)
	if v == nil || v.Kind != yaml.ScalarNode {
		return "", d.fail(n, path, "missing scalar attribute '%s'", key)
	}
	return v.Value, nil
}

// list returns the sequence under key; a missing key is an empty list.
func (d *decoder) list(n *yaml.Node, key string, path string) ([]*yaml.Node, error) {
	v := d.field(n, key)
	if v == nil {
		return nil, nil
	}
	if v.Kind != yaml.SequenceNode {
		return nil, d.fail(v, path+"."+key, "expected a list")
	}
	return v.Content, nil
}

func (d *decoder) program(n *yaml.Node, path string) (*ast.Program, error) {
	kind, err := d.elemType(n, path)
	if err != nil {
		return nil, err
	}
	if kind != ast.ProgramElem {
		return nil, d.fail(n, path, "expected '%s' element, got '%s'", ast.ProgramElem, kind)
	}

	program := &ast.Program{}

	functions, err := d.list(n, functionsKey, path)
	if err != nil {
		return nil, err
	}
	for i, fn := range functions {
		def, err := d.function(fn, fmt.Sprintf("%s.%s[%d]", path, functionsKey, i))
		if err != nil {
			return nil, err
		}
		program.Functions = append(program.Functions, def)
	}

	program.Globals, err = d.statements(n, globalsKey, path)
	if err != nil {
		return nil, err
	}
	return program, nil
}

func (d *decoder) function(n *yaml.Node, path string) (*ast.FunctionDefinition, error) {
	kind, err := d.elemType(n, path)
	if err != nil {
		return nil, err
	}
	if kind != ast.FunctionElem {
		return nil, d.fail(n, path, "expected '%s' element, got '%s'", ast.FunctionElem, kind)
	}
	name, err := d.scalar(n, nameKey, path)
	if err != nil {
		return nil, err
	}

	args, err := d.list(n, argsKey, path)
	if err != nil {
		return nil, err
	}
	def := &ast.FunctionDefinition{Name: name}
	for i, arg := range args {
		argPath := fmt.Sprintf("%s.%s[%d]", path, argsKey, i)
		// parameters are either bare names or arg elements
		if arg.Kind == yaml.ScalarNode {
			def.Parameters = append(def.Parameters, &ast.Identifier{Value: arg.Value})
			continue
		}
		argKind, err := d.elemType(arg, argPath)
		if err != nil {
			return nil, err
		}
		if argKind != argElem && argKind != ast.IdentifierElem {
			return nil, d.fail(arg, argPath, "expected '%s' element, got '%s'", argElem, argKind)
		}
		argName, err := d.scalar(arg, nameKey, argPath)
		if err != nil {
			return nil, err
		}
		def.Parameters = append(def.Parameters, &ast.Identifier{Value: argName})
	}

	def.Body, err = d.statements(n, statementsKey, path)
	if err != nil {
		return nil, err
	}
	return def, nil
}

func (d *decoder) statements(n *yaml.Node, key string, path string) ([]ast.Statement, error) {
	nodes, err := d.list(n, key, path)
	if err != nil {
		return nil, err
	}
	statements := make([]ast.Statement, 0, len(nodes))
	for i, sn := range nodes {
		stmt, err := d.statement(sn, fmt.Sprintf("%s.%s[%d]", path, key, i))
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}

func (d *decoder) statement(n *yaml.Node, path string) (ast.Statement, error) {
	kind, err := d.elemType(n, path)
	if err != nil {
		return nil, err
	}

	switch kind {
	case ast.VarDefElem:
		name, err := d.scalar(n, nameKey, path)
		if err != nil {
			return nil, err
		}
		return &ast.VarDefinition{Name: &ast.Identifier{Value: name}}, nil

	case ast.AssignElem:
		name, err := d.scalar(n, nameKey, path)
		if err != nil {
			return nil, err
		}
		value, err := d.child(n, expressionKey, path)
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Name: &ast.Identifier{Value: name}, Value: value}, nil

	case ast.CallElem:
		call, err := d.call(n, path)
		if err != nil {
			return nil, err
		}
		return &ast.CallStatement{Call: call}, nil

	case ast.ReturnElem:
		if d.field(n, expressionKey) == nil {
			return &ast.ReturnStatement{}, nil
		}
		value, err := d.child(n, expressionKey, path)
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStatement{ReturnValue: value}, nil

	case ast.FunctionElem:
		return d.function(n, path)
	}

	return nil, d.fail(n, path, "unknown statement kind '%s'", kind)
}

func (d *decoder) child(n *yaml.Node, key string, path string) (ast.Expression, error) {
	c := d.field(n, key)
	if c == nil {
		return nil, d.fail(n, path, "missing child '%s'", key)
	}
	return d.expression(c, path+"."+key)
}

func (d *decoder) call(n *yaml.Node, path string) (*ast.CallExpression, error) {
	name, err := d.scalar(n, nameKey, path)
	if err != nil {
		return nil, err
	}
	args, err := d.list(n, argsKey, path)
	if err != nil {
		return nil, err
	}
	call := &ast.CallExpression{Function: &ast.Identifier{Value: name}}
	for i, an := range args {
		arg, err := d.expression(an, fmt.Sprintf("%s.%s[%d]", path, argsKey, i))
		if err != nil {
			return nil, err
		}
		call.Arguments = append(call.Arguments, arg)
	}
	return call, nil
}

func (d *decoder) expression(n *yaml.Node, path string) (ast.Expression, error) {
	kind, err := d.elemType(n, path)
	if err != nil {
		return nil, err
	}

	// operator elements are named by their operator
	if object.IsBinaryOperator(kind) {
		left, err := d.child(n, op1Key, path)
		if err != nil {
			return nil, err
		}
		right, err := d.child(n, op2Key, path)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpression{Operator: kind, Left: left, Right: right}, nil
	}

	switch kind {
	case ast.IdentifierElem:
		name, err := d.scalar(n, nameKey, path)
		if err != nil {
			return nil, err
		}
		return &ast.Identifier{Value: name}, nil

	case ast.IntElem:
		raw, err := d.scalar(n, valKey, path)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, d.fail(n, path, "invalid int literal '%s': %v", raw, errors.Unwrap(err))
		}
		return &ast.IntegerLiteral{Value: v}, nil

	case ast.FloatElem:
		raw, err := d.scalar(n, valKey, path)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, d.fail(n, path, "invalid float literal '%s': %v", raw, errors.Unwrap(err))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, d.fail(n, path, "float literal '%s' is not finite", raw)
		}
		return &ast.FloatLiteral{Value: v}, nil

	case ast.StringElem:
		// an empty string literal may omit its value
		v := d.field(n, valKey)
		if v == nil {
			return &ast.StringLiteral{}, nil
		}
		if v.Kind != yaml.ScalarNode {
			return nil, d.fail(v, path, "string literal must be a scalar")
		}
		return &ast.StringLiteral{Value: v.Value}, nil

	case ast.CallElem:
		return d.call(n, path)
	}

	return nil, d.fail(n, path, "unknown expression kind '%s'", kind)
}
