package evaluator

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind int

const (
	NoMainFunction ErrorKind = iota + 1
	Redefinition
	UndeclaredVariable
	UninitializedVariable
	UndeclaredFunction
	NotCallable
	TypeError
	TooManyArguments
	FrameUnderflow
	ArityOrRedefinition
	InputFailure
	UnsupportedNode
)

var kindNames = map[ErrorKind]string{
	NoMainFunction:        "NoMainFunction",
	Redefinition:          "Redefinition",
	UndeclaredVariable:    "UndeclaredVariable",
	UninitializedVariable: "UninitializedVariable",
	UndeclaredFunction:    "UndeclaredFunction",
	NotCallable:           "NotCallable",
	TypeError:             "TypeError",
	TooManyArguments:      "TooManyArguments",
	FrameUnderflow:        "FrameUnderflow",
	ArityOrRedefinition:   "ArityOrRedefinition",
	InputFailure:          "InputFailure",
	UnsupportedNode:       "UnsupportedNode",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// RuntimeError is a fatal evaluation error. Stack lists the active user
// function calls, innermost last, at the point of detection.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	Stack   []string
	Cause   error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RuntimeError) Unwrap() error { return e.Cause }

// Is matches another *RuntimeError by kind.
func (e *RuntimeError) Is(target error) bool {
	t, ok := target.(*RuntimeError)
	return ok && t.Kind == e.Kind
}

// StackTrace renders the call chain, innermost first.
func (e *RuntimeError) StackTrace() string {
	var buf strings.Builder
	for i := len(e.Stack) - 1; i >= 0; i-- {
		fmt.Fprintf(&buf, "\n  at %s", e.Stack[i])
	}
	return buf.String()
}

// KindOf returns the kind of a runtime error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var rtErr *RuntimeError
	if errors.As(err, &rtErr) {
		return rtErr.Kind
	}
	return 0
}
