package evaluator

import (
	"strconv"
	"strings"

	"brewin/internal/object"
)

type builtinFunction func(e *Evaluator, args []object.Object) (object.Object, error)

var builtins = map[string]builtinFunction{
	"print":  funcPrint(),
	"inputi": funcInputI(),
}

// IsBuiltin reports whether name is dispatched to a host function.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// funcPrint writes the string form of every argument as one line, with no separators.
func funcPrint() builtinFunction {
	return func(e *Evaluator, args []object.Object) (object.Object, error) {
		var sb strings.Builder
		for _, arg := range args {
			sb.WriteString(arg.Inspect())
		}
		if err := e.Console.WriteLine(sb.String()); err != nil {
			return nil, e.newError(InputFailure, err, "print failed: %v", err)
		}
		return nil, nil
	}
}

// funcInputI shows the optional prompt, reads one line and returns it as an integer.
func funcInputI() builtinFunction {
	return func(e *Evaluator, args []object.Object) (object.Object, error) {
		if len(args) > 1 {
			return nil, e.newError(TooManyArguments, nil,
				"wrong number of arguments to inputi. got=%d, want=0 or 1", len(args))
		}

		prompt := ""
		if len(args) == 1 {
			prompt = args[0].Inspect()
		}

		line, err := e.Console.ReadLine(prompt)
		if err != nil {
			return nil, e.newError(InputFailure, err, "inputi failed: %v", err)
		}

		n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if err != nil {
			return nil, e.newError(TypeError, err, "inputi expected an integer, got %q", line)
		}
		return &object.Integer{Value: n}, nil
	}
}
