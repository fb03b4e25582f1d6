package evaluator

import (
	"log/slog"

	"brewin/internal/ast"
	"brewin/internal/object"
)

// evalCall runs a call expression. A nil result means the callee produced no value.
func (e *Evaluator) evalCall(node *ast.CallExpression) (object.Object, error) {
	name := node.Function.Value

	if builtin, ok := builtins[name]; ok {
		args, err := e.evalArguments(node.Arguments)
		if err != nil {
			return nil, err
		}
		return e.callBuiltin(name, builtin, args)
	}

	val, err := e.env.Lookup(name)
	if err != nil {
		return nil, e.newError(UndeclaredFunction, err, "function '%s' has not been defined", name)
	}
	fn, ok := val.(*object.Function)
	if !ok {
		return nil, e.newError(NotCallable, nil, "'%s' is %s, not a function", name, val.Type())
	}

	args, err := e.evalArguments(node.Arguments)
	if err != nil {
		return nil, err
	}
	return e.callFunction(fn, args)
}

// evalArguments evaluates left to right in the caller's frame.
func (e *Evaluator) evalArguments(exprs []ast.Expression) ([]object.Object, error) {
	args := make([]object.Object, 0, len(exprs))
	for _, expr := range exprs {
		val, err := e.evalExpression(expr)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}
	return args, nil
}

// enterFrame pushes the callee frame. Under static scoping its parent is the
// frame the function was defined in; under dynamic scoping it is the caller's.
func (e *Evaluator) enterFrame(captured *object.Frame) {
	if e.env.ScopeRule() == object.DynamicScope {
		captured = e.env.CurrentFrame()
	}
	e.env.PushFrame(captured)
}

func (e *Evaluator) leaveFrame(name string) error {
	if err := e.env.PopFrame(); err != nil {
		return e.newError(FrameUnderflow, err, "frame stack underflow leaving '%s'", name)
	}
	return nil
}

func (e *Evaluator) callFunction(fn *object.Function, args []object.Object) (object.Object, error) {
	if len(args) != len(fn.Parameters) {
		return nil, e.newError(ArityOrRedefinition, nil, "function '%s' takes %d argument(s), got %d",
			fn.Name, len(fn.Parameters), len(args))
	}

	e.enterFrame(fn.Env)
	for i, param := range fn.Parameters {
		if err := e.env.Define(param.Value, args[i]); err != nil {
			return nil, e.newError(ArityOrRedefinition, err, "duplicate parameter '%s' in function '%s'",
				param.Value, fn.Name)
		}
	}

	e.callStack = append(e.callStack, fn.Name)
	depth := e.env.Depth()
	e.log().Debug("calling function",
		slog.String("name", fn.Name),
		slog.Int("args", len(args)),
		slog.Int("depth", depth))
	if e.Tracer != nil {
		e.Tracer.CallEntered(e.ctx, fn.Name, depth, args)
	}

	result, err := e.evalStatements(fn.Body)
	if err != nil {
		return nil, err
	}

	var value object.Object
	if rv, ok := result.(*object.ReturnValue); ok {
		value = rv.Value
	}

	if e.Tracer != nil {
		e.Tracer.CallReturned(e.ctx, fn.Name, depth, value)
	}
	e.callStack = e.callStack[:len(e.callStack)-1]

	if err := e.leaveFrame(fn.Name); err != nil {
		return nil, err
	}
	return value, nil
}

func (e *Evaluator) callBuiltin(name string, builtin builtinFunction, args []object.Object) (object.Object, error) {
	// builtins get a frame too, though they bind nothing in it
	e.enterFrame(nil)
	depth := e.env.Depth()
	if e.Tracer != nil {
		e.Tracer.CallEntered(e.ctx, name, depth, args)
	}

	result, err := builtin(e, args)
	if err != nil {
		return nil, err
	}

	if e.Tracer != nil {
		e.Tracer.CallReturned(e.ctx, name, depth, result)
	}
	if err := e.leaveFrame(name); err != nil {
		return nil, err
	}
	return result, nil
}
