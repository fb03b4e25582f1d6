package object

import "fmt"

// Numeric promotion: the result of a binary operator takes the wider of the
// two operand kinds.
//
//	          INTEGER   FLOAT
//	INTEGER   INTEGER   FLOAT
//	FLOAT     FLOAT     FLOAT
//
// Any other operand kind is rejected with ErrNonNumericOperand.
const (
	rankInteger = iota
	rankFloat
)

func numericRank(obj Object) (int, bool) {
	switch obj.(type) {
	case *Integer:
		return rankInteger, true
	case *Float:
		return rankFloat, true
	}
	return 0, false
}

func toFloat(obj Object) float64 {
	switch o := obj.(type) {
	case *Integer:
		return float64(o.Value)
	case *Float:
		return o.Value
	}
	return 0
}

type binaryOperator struct {
	ints   func(a, b int64) int64
	floats func(a, b float64) float64
}

// New operators only need an entry here.
var binaryOperators = map[string]binaryOperator{
	"+": {
		ints:   func(a, b int64) int64 { return a + b },
		floats: func(a, b float64) float64 { return a + b },
	},
	"-": {
		ints:   func(a, b int64) int64 { return a - b },
		floats: func(a, b float64) float64 { return a - b },
	},
}

// IsBinaryOperator reports whether op has an arithmetic implementation.
func IsBinaryOperator(op string) bool {
	_, ok := binaryOperators[op]
	return ok
}

// ApplyBinary computes left op right as a new value.
func ApplyBinary(op string, left, right Object) (Object, error) {
	impl, ok := binaryOperators[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperator, op)
	}

	lr, lok := numericRank(left)
	rr, rok := numericRank(right)
	if !lok || !rok {
		return nil, fmt.Errorf("%w: %s %s %s", ErrNonNumericOperand, left.Type(), op, right.Type())
	}

	if max(lr, rr) == rankInteger {
		return &Integer{Value: impl.ints(left.(*Integer).Value, right.(*Integer).Value)}, nil
	}
	return &Float{Value: impl.floats(toFloat(left), toFloat(right))}, nil
}
