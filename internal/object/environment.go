package object

import (
	"fmt"
	"log/slog"
	"strings"

	"brewin/internal/ast"
)

// ScopeRule selects how names are resolved for Assign and Lookup.
type ScopeRule int

const (
	// StaticScope follows LexicalParent links from the current frame.
	StaticScope ScopeRule = iota
	// DynamicScope scans the call stack from the innermost frame outwards.
	DynamicScope
)

func (r ScopeRule) String() string {
	switch r {
	case StaticScope:
		return "static"
	case DynamicScope:
		return "dynamic"
	}
	return fmt.Sprintf("ScopeRule(%d)", int(r))
}

func ParseScopeRule(s string) (ScopeRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "static":
		return StaticScope, nil
	case "dynamic":
		return DynamicScope, nil
	}
	return StaticScope, fmt.Errorf("%w: '%s'", ErrUnknownScopeRule, s)
}

// ValueKind names the variants CreateValue can build.
type ValueKind int

const (
	IntKind ValueKind = iota
	FloatKind
	StringKind
	FunctionKind
	UninitializedKind
)

// Environment is the stack of frames for one program run. The global frame
// sits at the bottom and is never popped.
//
// A popped frame stays reachable for as long as a Function captured it, so
// closures keep their defining frame alive.
type Environment struct {
	rule   ScopeRule
	global *Frame
	frames []*Frame // innermost last
}

func NewEnvironment(rule ScopeRule) *Environment {
	global := NewFrame(nil)
	slog.Debug("------ new root env ------",
		slog.String("scope-rule", rule.String()),
		slog.Uint64("frame", global.ID))
	return &Environment{
		rule:   rule,
		global: global,
		frames: []*Frame{global},
	}
}

func (e *Environment) ScopeRule() ScopeRule { return e.rule }
func (e *Environment) Global() *Frame       { return e.global }
func (e *Environment) Depth() int           { return len(e.frames) }

func (e *Environment) CurrentFrame() *Frame {
	return e.frames[len(e.frames)-1]
}

// PushFrame creates a frame whose LexicalParent is captured (may be nil) and
// makes it current.
func (e *Environment) PushFrame(captured *Frame) *Frame {
	frame := NewFrame(captured)
	e.frames = append(e.frames, frame)

	var parent uint64
	if captured != nil {
		parent = captured.ID
	}
	slog.Debug("push frame",
		slog.Uint64("frame", frame.ID),
		slog.Uint64("lexical-parent", parent),
		slog.Int("depth", len(e.frames)))
	return frame
}

func (e *Environment) PopFrame() error {
	if len(e.frames) <= 1 {
		return ErrFrameUnderflow
	}
	popped := e.CurrentFrame()
	e.frames[len(e.frames)-1] = nil
	e.frames = e.frames[:len(e.frames)-1]

	slog.Debug("pop frame",
		slog.Uint64("frame", popped.ID),
		slog.Int("depth", len(e.frames)))
	return nil
}

// Define binds name in the current frame only.
func (e *Environment) Define(name string, val Object) error {
	return e.CurrentFrame().Define(name, val)
}

// Assign rebinds name in the first frame that holds it, per the scope rule.
func (e *Environment) Assign(name string, val Object) error {
	frame, ok := e.resolve(name)
	if !ok {
		return fmt.Errorf("failed to assign to '%s': %w", name, ErrNotFound)
	}
	return frame.Assign(name, val)
}

// Lookup returns the value bound to name, per the scope rule. A declared but
// unassigned name yields UNINITIALIZED; an unbound name yields ErrNotFound.
func (e *Environment) Lookup(name string) (Object, error) {
	frame, ok := e.resolve(name)
	if !ok {
		return nil, fmt.Errorf("failed to resolve '%s': %w", name, ErrNotFound)
	}
	val, _ := frame.Lookup(name)
	return val, nil
}

func (e *Environment) resolve(name string) (*Frame, bool) {
	switch e.rule {
	case DynamicScope:
		for i := len(e.frames) - 1; i >= 0; i-- {
			if _, ok := e.frames[i].Lookup(name); ok {
				return e.frames[i], true
			}
		}
	default:
		for frame := e.CurrentFrame(); frame != nil; frame = frame.LexicalParent {
			if _, ok := frame.Lookup(name); ok {
				return frame, true
			}
		}
	}
	return nil, false
}

// CreateValue builds a value of the given kind. Scalars take their payload
// (int64, float64 or string); functions read parameters and body from def and
// capture the current frame.
func (e *Environment) CreateValue(kind ValueKind, payload any, def *ast.FunctionDefinition) (Object, error) {
	switch kind {
	case IntKind:
		if v, ok := payload.(int64); ok {
			return &Integer{Value: v}, nil
		}
	case FloatKind:
		if v, ok := payload.(float64); ok {
			return &Float{Value: v}, nil
		}
	case StringKind:
		if v, ok := payload.(string); ok {
			return &String{Value: v}, nil
		}
	case FunctionKind:
		if def == nil {
			return nil, ErrMissingDefinition
		}
		return &Function{
			Name:       def.Name,
			Parameters: def.Parameters,
			Body:       def.Body,
			Env:        e.CurrentFrame(),
		}, nil
	case UninitializedKind:
		return UNINITIALIZED, nil
	}
	return nil, fmt.Errorf("%w: %T for kind %d", ErrInvalidPayload, payload, kind)
}
