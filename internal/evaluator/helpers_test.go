package evaluator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"brewin/internal/ast"
	"brewin/internal/console"
	"brewin/internal/object"
)

func ident(name string) *ast.Identifier     { return &ast.Identifier{Value: name} }
func intLit(v int64) *ast.IntegerLiteral    { return &ast.IntegerLiteral{Value: v} }
func floatLit(v float64) *ast.FloatLiteral  { return &ast.FloatLiteral{Value: v} }
func strLit(s string) *ast.StringLiteral    { return &ast.StringLiteral{Value: s} }
func vardef(name string) *ast.VarDefinition { return &ast.VarDefinition{Name: ident(name)} }

func ret(value ast.Expression) *ast.ReturnStatement {
	return &ast.ReturnStatement{ReturnValue: value}
}

func add(l, r ast.Expression) *ast.BinaryExpression {
	return &ast.BinaryExpression{Operator: "+", Left: l, Right: r}
}

func sub(l, r ast.Expression) *ast.BinaryExpression {
	return &ast.BinaryExpression{Operator: "-", Left: l, Right: r}
}

func assign(name string, value ast.Expression) *ast.Assignment {
	return &ast.Assignment{Name: ident(name), Value: value}
}

func call(name string, args ...ast.Expression) *ast.CallExpression {
	return &ast.CallExpression{Function: ident(name), Arguments: args}
}

func callStmt(name string, args ...ast.Expression) *ast.CallStatement {
	return &ast.CallStatement{Call: call(name, args...)}
}

func fn(name string, params []string, body ...ast.Statement) *ast.FunctionDefinition {
	def := &ast.FunctionDefinition{Name: name, Body: body}
	for _, p := range params {
		def.Parameters = append(def.Parameters, ident(p))
	}
	return def
}

func program(functions ...*ast.FunctionDefinition) *ast.Program {
	return &ast.Program{Functions: functions}
}

type runResult struct {
	output string
	err    error
}

func (r runResult) lines() []string {
	trimmed := strings.TrimSuffix(r.output, "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func run(t *testing.T, rule object.ScopeRule, input string, p *ast.Program) runResult {
	t.Helper()
	var out bytes.Buffer
	e := New(object.NewEnvironment(rule), console.NewStream(strings.NewReader(input), &out))
	err := e.RunProgram(context.Background(), p)
	return runResult{output: out.String(), err: err}
}

func expectKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got none", kind)
	}
	if !errors.Is(err, &RuntimeError{Kind: kind}) {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}

func expectOutput(t *testing.T, r runResult, expected ...string) {
	t.Helper()
	if r.err != nil {
		t.Fatalf("unexpected error: %v", r.err)
	}
	got := r.lines()
	if len(got) != len(expected) {
		t.Fatalf("expected output %q, got %q", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("line %d: expected %q, got %q", i, expected[i], got[i])
		}
	}
}

func newDiscardConsole() console.Console {
	return console.NewStream(strings.NewReader(""), io.Discard)
}
