package object

import "errors"

var (
	ErrAlreadyDefined    = errors.New("identifier already defined in this frame")
	ErrNotFound          = errors.New("identifier not found")
	ErrFrameUnderflow    = errors.New("cannot pop the global frame")
	ErrNonNumericOperand = errors.New("arithmetic is defined only for numeric operands")
	ErrUnknownOperator   = errors.New("unknown operator")
	ErrInvalidPayload    = errors.New("payload does not match value kind")
	ErrUnknownScopeRule  = errors.New("unknown scope rule")
	ErrMissingDefinition = errors.New("function value requires a definition node")
)
