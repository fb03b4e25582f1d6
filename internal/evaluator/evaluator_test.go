package evaluator

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"brewin/internal/ast"
	"brewin/internal/console"
	"brewin/internal/object"
)

func TestEmptyMain(t *testing.T) {
	for _, rule := range []object.ScopeRule{object.StaticScope, object.DynamicScope} {
		t.Run(rule.String(), func(t *testing.T) {
			r := run(t, rule, "", program(fn("main", nil)))
			expectOutput(t, r)
		})
	}
}

func TestNoMainFunction(t *testing.T) {
	r := run(t, object.StaticScope, "", program(fn("helper", nil)))
	expectKind(t, r.err, NoMainFunction)

	// a global variable named main is not a function
	p := &ast.Program{Globals: []ast.Statement{vardef("main"), assign("main", intLit(1))}}
	r = run(t, object.StaticScope, "", p)
	expectKind(t, r.err, NoMainFunction)
}

func TestDuplicateFunctionDefinition(t *testing.T) {
	r := run(t, object.StaticScope, "", program(fn("main", nil), fn("main", nil)))
	expectKind(t, r.err, Redefinition)
}

func TestRedefinition(t *testing.T) {
	cases := []struct {
		name string
		body []ast.Statement
	}{
		{"back to back", []ast.Statement{vardef("x"), vardef("x")}},
		{"after assignment", []ast.Statement{
			vardef("x"),
			assign("x", intLit(1)),
			callStmt("print", ident("x")),
			vardef("x"),
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := run(t, object.StaticScope, "", program(fn("main", nil, c.body...)))
			expectKind(t, r.err, Redefinition)
		})
	}
}

func TestUninitializedAndUndeclaredAreDistinct(t *testing.T) {
	for _, rule := range []object.ScopeRule{object.StaticScope, object.DynamicScope} {
		t.Run(rule.String(), func(t *testing.T) {
			r := run(t, rule, "", program(fn("main", nil,
				vardef("x"),
				callStmt("print", ident("x")),
			)))
			expectKind(t, r.err, UninitializedVariable)

			r = run(t, rule, "", program(fn("main", nil,
				callStmt("print", ident("y")),
			)))
			expectKind(t, r.err, UndeclaredVariable)
		})
	}
}

func TestAssignmentToUndeclaredVariable(t *testing.T) {
	r := run(t, object.StaticScope, "", program(fn("main", nil,
		assign("x", intLit(1)),
	)))
	expectKind(t, r.err, UndeclaredVariable)
}

func TestAssignmentChecksTargetBeforeEvaluating(t *testing.T) {
	// the right-hand side would print if it were evaluated first
	r := run(t, object.StaticScope, "", program(
		fn("noisy", nil, callStmt("print", strLit("evaluated")), ret(intLit(1))),
		fn("main", nil, assign("x", call("noisy"))),
	))
	expectKind(t, r.err, UndeclaredVariable)
	if r.output != "" {
		t.Errorf("expected no output, got %q", r.output)
	}
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		name     string
		expr     ast.Expression
		expected string
	}{
		{"2 + 3", add(intLit(2), intLit(3)), "5"},
		{"2 - 3", sub(intLit(2), intLit(3)), "-1"},
		{"nested", sub(add(intLit(10), intLit(5)), intLit(3)), "12"},
		{"int + float", add(intLit(2), floatLit(0.5)), "2.5"},
		{"float - float", sub(floatLit(3.5), floatLit(0.5)), "3.0"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := run(t, object.StaticScope, "", program(fn("main", nil,
				callStmt("print", c.expr),
			)))
			expectOutput(t, r, c.expected)
		})
	}
}

func TestArithmeticTypeError(t *testing.T) {
	cases := []struct {
		name string
		expr ast.Expression
	}{
		{"string + int", add(strLit("a"), intLit(1))},
		{"int - string", sub(intLit(1), strLit("a"))},
		{"string + string", add(strLit("a"), strLit("b"))},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := run(t, object.StaticScope, "", program(fn("main", nil,
				callStmt("print", c.expr),
			)))
			expectKind(t, r.err, TypeError)
		})
	}
}

func TestFunctionCallAndReturn(t *testing.T) {
	r := run(t, object.StaticScope, "", program(
		fn("add", []string{"a", "b"}, ret(add(ident("a"), ident("b")))),
		fn("main", nil,
			vardef("x"),
			assign("x", call("add", intLit(2), intLit(3))),
			callStmt("print", ident("x")),
		),
	))
	expectOutput(t, r, "5")
}

func TestParametersDoNotLeakIntoCaller(t *testing.T) {
	for _, rule := range []object.ScopeRule{object.StaticScope, object.DynamicScope} {
		t.Run(rule.String(), func(t *testing.T) {
			r := run(t, rule, "", program(
				fn("add", []string{"a", "b"}, ret(add(ident("a"), ident("b")))),
				fn("main", nil,
					callStmt("add", intLit(2), intLit(3)),
					callStmt("print", ident("a")),
				),
			))
			expectKind(t, r.err, UndeclaredVariable)
		})
	}
}

func TestReturnShortCircuitsOnlyTheCurrentFunction(t *testing.T) {
	r := run(t, object.StaticScope, "", program(
		fn("f", nil,
			callStmt("print", strLit("a")),
			ret(intLit(1)),
			callStmt("print", strLit("b")),
		),
		fn("main", nil,
			callStmt("f"),
			callStmt("print", strLit("c")),
		),
	))
	expectOutput(t, r, "a", "c")
}

func TestBareReturnYieldsNoValue(t *testing.T) {
	r := run(t, object.StaticScope, "", program(
		fn("f", nil, ret(nil)),
		fn("main", nil,
			callStmt("f"),
			vardef("x"),
			assign("x", call("f")),
		),
	))
	expectKind(t, r.err, TypeError)
}

func TestStaticScopeClosure(t *testing.T) {
	r := run(t, object.StaticScope, "", closureProgram())
	expectOutput(t, r, "global")
}

func TestDynamicScopeClosure(t *testing.T) {
	r := run(t, object.DynamicScope, "", closureProgram())
	expectOutput(t, r, "local")
}

// f refers to a global x; g shadows x locally and then calls f.
func closureProgram() *ast.Program {
	return &ast.Program{
		Globals: []ast.Statement{
			vardef("x"),
			assign("x", strLit("global")),
		},
		Functions: []*ast.FunctionDefinition{
			fn("f", nil, callStmt("print", ident("x"))),
			fn("g", nil,
				vardef("x"),
				assign("x", strLit("local")),
				callStmt("f"),
			),
			fn("main", nil, callStmt("g")),
		},
	}
}

func TestAssignmentFollowsScopeRule(t *testing.T) {
	p := &ast.Program{
		Globals: []ast.Statement{vardef("x"), assign("x", intLit(0))},
		Functions: []*ast.FunctionDefinition{
			fn("set", nil, assign("x", intLit(1))),
			fn("g", nil,
				vardef("x"),
				assign("x", intLit(5)),
				callStmt("set"),
				callStmt("print", ident("x")),
			),
			fn("main", nil,
				callStmt("g"),
				callStmt("print", ident("x")),
			),
		},
	}

	expectOutput(t, run(t, object.StaticScope, "", p), "5", "1")
	expectOutput(t, run(t, object.DynamicScope, "", p), "1", "0")
}

func TestNestedFunctionCapturesDefiningFrame(t *testing.T) {
	p := program(
		fn("make", nil,
			vardef("y"),
			assign("y", intLit(10)),
			fn("inner", nil, ret(add(ident("y"), intLit(1)))),
			ret(ident("inner")),
		),
		fn("main", nil,
			vardef("g"),
			assign("g", call("make")),
			callStmt("print", call("g")),
		),
	)

	expectOutput(t, run(t, object.StaticScope, "", p), "11")

	// the defining frame is gone from the call stack
	r := run(t, object.DynamicScope, "", p)
	expectKind(t, r.err, UndeclaredVariable)
}

func TestIndependentCallFrames(t *testing.T) {
	r := run(t, object.StaticScope, "", program(
		fn("counter", []string{"n"},
			vardef("local"),
			assign("local", add(ident("n"), intLit(1))),
			ret(ident("local")),
		),
		fn("twice", []string{"n"},
			vardef("local"),
			assign("local", call("counter", ident("n"))),
			ret(call("counter", ident("local"))),
		),
		fn("main", nil,
			callStmt("print", call("twice", intLit(1))),
			callStmt("print", call("twice", intLit(10))),
		),
	))
	expectOutput(t, r, "3", "12")
}

func TestRecursiveCallsHaveIndependentFrames(t *testing.T) {
	// f(f) makes f active twice; the inner call stops through a call to stop
	p := program(
		fn("stop", []string{"k"}, ret(intLit(100))),
		fn("f", []string{"h"},
			vardef("n"),
			assign("n", call("h", ident("stop"))),
			callStmt("print", ident("n")),
			ret(add(ident("n"), intLit(1))),
		),
		fn("main", nil, callStmt("print", call("f", ident("f")))),
	)

	for _, rule := range []object.ScopeRule{object.StaticScope, object.DynamicScope} {
		t.Run(rule.String(), func(t *testing.T) {
			var out bytes.Buffer
			env := object.NewEnvironment(rule)
			e := New(env, console.NewStream(strings.NewReader(""), &out))
			err := e.RunProgram(context.Background(), p)

			expectOutput(t, runResult{output: out.String(), err: err}, "100", "101", "102")
			if env.Depth() != 1 {
				t.Errorf("expected only the global frame after the run, got depth %d", env.Depth())
			}
		})
	}
}

func TestCallErrors(t *testing.T) {
	cases := []struct {
		name string
		p    *ast.Program
		kind ErrorKind
	}{
		{"undeclared function", program(fn("main", nil, callStmt("missing"))), UndeclaredFunction},
		{"not callable", program(fn("main", nil,
			vardef("x"),
			assign("x", intLit(1)),
			callStmt("x"),
		)), NotCallable},
		{"uninitialized callee", program(fn("main", nil,
			vardef("x"),
			callStmt("x"),
		)), NotCallable},
		{"duplicate parameter", program(
			fn("f", []string{"a", "a"}),
			fn("main", nil, callStmt("f", intLit(1), intLit(2))),
		), ArityOrRedefinition},
		{"too few arguments", program(
			fn("f", []string{"a", "b"}),
			fn("main", nil, callStmt("f", intLit(1))),
		), ArityOrRedefinition},
		{"too many arguments", program(
			fn("f", nil),
			fn("main", nil, callStmt("f", intLit(1))),
		), ArityOrRedefinition},
		{"return at program level", &ast.Program{
			Functions: []*ast.FunctionDefinition{fn("main", nil)},
			Globals:   []ast.Statement{ret(intLit(1))},
		}, UnsupportedNode},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := run(t, object.StaticScope, "", c.p)
			expectKind(t, r.err, c.kind)
		})
	}
}

func TestArgumentsEvaluatedLeftToRightInCallerFrame(t *testing.T) {
	r := run(t, object.StaticScope, "", program(
		fn("tag", []string{"s"}, callStmt("print", ident("s")), ret(ident("s"))),
		fn("pair", []string{"a", "b"}, ret(add(ident("a"), ident("b")))),
		fn("main", nil,
			vardef("a"),
			assign("a", intLit(1)),
			callStmt("print", call("pair", call("tag", ident("a")), call("tag", intLit(2)))),
		),
	))
	expectOutput(t, r, "1", "2", "3")
}

func TestRuntimeErrorCarriesCallStack(t *testing.T) {
	r := run(t, object.StaticScope, "", program(
		fn("inner", nil, callStmt("print", ident("nope"))),
		fn("outer", nil, callStmt("inner")),
		fn("main", nil, callStmt("outer")),
	))
	expectKind(t, r.err, UndeclaredVariable)

	rtErr := r.err.(*RuntimeError)
	expected := []string{"main", "outer", "inner"}
	if len(rtErr.Stack) != len(expected) {
		t.Fatalf("expected stack %v, got %v", expected, rtErr.Stack)
	}
	for i := range expected {
		if rtErr.Stack[i] != expected[i] {
			t.Errorf("expected stack %v, got %v", expected, rtErr.Stack)
		}
	}
	if KindOf(r.err) != UndeclaredVariable {
		t.Errorf("KindOf returned %s", KindOf(r.err))
	}
}

type recordedEvent struct {
	kind  string
	name  string
	depth int
}

type fakeTracer struct {
	events []recordedEvent
	ended  error
}

func (f *fakeTracer) BeginRun(ctx context.Context, rule object.ScopeRule) {
	f.events = append(f.events, recordedEvent{kind: "begin", name: rule.String()})
}

func (f *fakeTracer) CallEntered(ctx context.Context, name string, depth int, args []object.Object) {
	f.events = append(f.events, recordedEvent{kind: "enter", name: name, depth: depth})
}

func (f *fakeTracer) CallReturned(ctx context.Context, name string, depth int, result object.Object) {
	f.events = append(f.events, recordedEvent{kind: "exit", name: name, depth: depth})
}

func (f *fakeTracer) EndRun(ctx context.Context, err error) {
	f.events = append(f.events, recordedEvent{kind: "end"})
	f.ended = err
}

func TestTracerObservesCalls(t *testing.T) {
	tracer := &fakeTracer{}
	e := New(object.NewEnvironment(object.DynamicScope), nil)
	e.Console = newDiscardConsole()
	e.Tracer = tracer

	err := e.RunProgram(context.Background(), program(
		fn("f", []string{"a"}, ret(ident("a"))),
		fn("main", nil, callStmt("print", call("f", intLit(1)))),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []recordedEvent{
		{"begin", "dynamic", 0},
		{"enter", "main", 2},
		{"enter", "f", 3},
		{"exit", "f", 3},
		{"enter", "print", 3},
		{"exit", "print", 3},
		{"exit", "main", 2},
		{"end", "", 0},
	}
	if len(tracer.events) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, tracer.events)
	}
	for i := range expected {
		if tracer.events[i] != expected[i] {
			t.Errorf("event %d: expected %v, got %v", i, expected[i], tracer.events[i])
		}
	}
	if e.Env().Depth() != 1 {
		t.Errorf("expected only the global frame after the run, got depth %d", e.Env().Depth())
	}
}
