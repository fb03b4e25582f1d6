package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"brewin/internal/ast"
	"brewin/internal/console"
	"brewin/internal/object"
)

const MainFunction = "main"

// Tracer observes a run. Implementations must not fail the run.
type Tracer interface {
	BeginRun(ctx context.Context, rule object.ScopeRule)
	CallEntered(ctx context.Context, name string, depth int, args []object.Object)
	CallReturned(ctx context.Context, name string, depth int, result object.Object)
	EndRun(ctx context.Context, err error)
}

type Evaluator struct {
	Console console.Console
	Tracer  Tracer       // optional
	Logger  *slog.Logger // nil means slog.Default()

	env       *object.Environment
	callStack []string
	ctx       context.Context
}

func New(env *object.Environment, out console.Console) *Evaluator {
	return &Evaluator{
		Console: out,
		env:     env,
		ctx:     context.Background(),
	}
}

func (e *Evaluator) Env() *object.Environment { return e.env }

func (e *Evaluator) log() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Evaluator) newError(kind ErrorKind, cause error, format string, a ...any) *RuntimeError {
	stack := make([]string, len(e.callStack))
	copy(stack, e.callStack)
	return &RuntimeError{
		Kind:    kind,
		Message: fmt.Sprintf(format, a...),
		Stack:   stack,
		Cause:   cause,
	}
}

// RunProgram registers every function, runs program-level statements, then
// calls main with no arguments. The first error aborts the run.
func (e *Evaluator) RunProgram(ctx context.Context, program *ast.Program) error {
	e.ctx = ctx
	if e.Tracer != nil {
		e.Tracer.BeginRun(ctx, e.env.ScopeRule())
	}

	e.log().Info(" ---- begin ----",
		slog.String("scope-rule", e.env.ScopeRule().String()),
		slog.Int("functions", len(program.Functions)))

	err := e.runProgram(program)

	if err != nil {
		e.log().Info(" ---- failed ----", slog.Any("error", err))
	} else {
		e.log().Info(" ---- done ----")
	}
	if e.Tracer != nil {
		e.Tracer.EndRun(ctx, err)
	}
	return err
}

func (e *Evaluator) runProgram(program *ast.Program) error {
	for _, def := range program.Functions {
		if err := e.defineFunction(def); err != nil {
			return err
		}
	}

	result, err := e.evalStatements(program.Globals)
	if err != nil {
		return err
	}
	if _, ok := result.(*object.ReturnValue); ok {
		return e.newError(UnsupportedNode, nil, "return outside of a function")
	}

	val, ok := e.env.Global().Lookup(MainFunction)
	fn, isFn := val.(*object.Function)
	if !ok || !isFn {
		return e.newError(NoMainFunction, nil, "no '%s' function defined", MainFunction)
	}

	_, err = e.callFunction(fn, nil)
	return err
}

func (e *Evaluator) defineFunction(def *ast.FunctionDefinition) error {
	val, err := e.env.CreateValue(object.FunctionKind, nil, def)
	if err != nil {
		return e.newError(UnsupportedNode, err, "invalid function definition '%s'", def.Name)
	}
	if err := e.env.Define(def.Name, val); err != nil {
		return e.newError(Redefinition, err, "function '%s' is already defined", def.Name)
	}
	if IsBuiltin(def.Name) {
		e.log().Warn("function is shadowed by a builtin and will never be called",
			slog.String("name", def.Name))
	}
	return nil
}

// evalStatements runs statements in order and stops at the first return signal,
// which is handed back unwrapped to the caller.
func (e *Evaluator) evalStatements(statements []ast.Statement) (object.Object, error) {
	for _, statement := range statements {
		result, err := e.evalStatement(statement)
		if err != nil {
			return nil, err
		}
		if rv, ok := result.(*object.ReturnValue); ok {
			return rv, nil
		}
	}
	return nil, nil
}

func (e *Evaluator) evalStatement(node ast.Statement) (object.Object, error) {
	switch node := node.(type) {
	case *ast.VarDefinition:
		if err := e.env.Define(node.Name.Value, object.UNINITIALIZED); err != nil {
			return nil, e.newError(Redefinition, err, "variable '%s' is already defined", node.Name.Value)
		}
		return nil, nil

	case *ast.Assignment:
		name := node.Name.Value
		if _, err := e.env.Lookup(name); err != nil {
			return nil, e.newError(UndeclaredVariable, err, "assignment to undeclared variable '%s'", name)
		}
		val, err := e.evalExpression(node.Value)
		if err != nil {
			return nil, err
		}
		if err := e.env.Assign(name, val); err != nil {
			return nil, e.newError(UndeclaredVariable, err, "assignment to undeclared variable '%s'", name)
		}
		return nil, nil

	case *ast.CallStatement:
		_, err := e.evalCall(node.Call)
		return nil, err

	case *ast.ReturnStatement:
		if node.ReturnValue == nil {
			return &object.ReturnValue{}, nil
		}
		val, err := e.evalExpression(node.ReturnValue)
		if err != nil {
			return nil, err
		}
		return &object.ReturnValue{Value: val}, nil

	case *ast.FunctionDefinition:
		return nil, e.defineFunction(node)
	}

	return nil, e.newError(UnsupportedNode, nil, "unsupported statement '%s'", node.ElemType())
}

func (e *Evaluator) evalExpression(node ast.Expression) (object.Object, error) {
	switch node := node.(type) {
	case *ast.BinaryExpression:
		left, err := e.evalExpression(node.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.evalExpression(node.Right)
		if err != nil {
			return nil, err
		}
		result, err := object.ApplyBinary(node.Operator, left, right)
		switch {
		case errors.Is(err, object.ErrNonNumericOperand):
			return nil, e.newError(TypeError, err, "incompatible operands for '%s': %s and %s",
				node.Operator, left.Type(), right.Type())
		case err != nil:
			return nil, e.newError(UnsupportedNode, err, "unsupported operator '%s'", node.Operator)
		}
		return result, nil

	case *ast.Identifier:
		return e.evalIdentifier(node)

	case *ast.IntegerLiteral:
		return e.env.CreateValue(object.IntKind, node.Value, nil)

	case *ast.FloatLiteral:
		return e.env.CreateValue(object.FloatKind, node.Value, nil)

	case *ast.StringLiteral:
		return e.env.CreateValue(object.StringKind, node.Value, nil)

	case *ast.CallExpression:
		result, err := e.evalCall(node)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, e.newError(TypeError, nil, "function '%s' did not return a value", node.Function.Value)
		}
		return result, nil
	}

	return nil, e.newError(UnsupportedNode, nil, "unsupported expression '%s'", node.ElemType())
}

func (e *Evaluator) evalIdentifier(node *ast.Identifier) (object.Object, error) {
	val, err := e.env.Lookup(node.Value)
	if err != nil {
		return nil, e.newError(UndeclaredVariable, err, "variable '%s' has not been declared", node.Value)
	}
	if object.IsUninitialized(val) {
		return nil, e.newError(UninitializedVariable, nil, "variable '%s' has not been initialized", node.Value)
	}
	return val, nil
}
