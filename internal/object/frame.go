package object

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

var nextID atomic.Uint64

func nextFrameID() uint64 {
	return nextID.Add(1)
}

// Frame is one scope: its bindings plus an optional enclosing frame used by
// static resolution. LexicalParent is fixed at creation.
type Frame struct {
	ID            uint64
	Bindings      map[string]Object
	LexicalParent *Frame
}

func NewFrame(lexicalParent *Frame) *Frame {
	return &Frame{
		ID:            nextFrameID(),
		Bindings:      make(map[string]Object),
		LexicalParent: lexicalParent,
	}
}

// Define binds name in this frame only. Names bound in other frames are not
// considered.
func (f *Frame) Define(name string, val Object) error {
	if _, exists := f.Bindings[name]; exists {
		return fmt.Errorf("%w: '%s'", ErrAlreadyDefined, name)
	}
	f.Bindings[name] = val

	slog.Debug("binding value",
		slog.Uint64("frame", f.ID),
		slog.String("name", name),
		slog.Any("type", val.Type()))
	return nil
}

// Assign rebinds an existing name in this frame. It never creates a binding.
func (f *Frame) Assign(name string, val Object) error {
	if _, exists := f.Bindings[name]; !exists {
		return fmt.Errorf("%w: '%s'", ErrNotFound, name)
	}
	f.Bindings[name] = val

	slog.Debug("assigning bound value",
		slog.Uint64("frame", f.ID),
		slog.String("name", name),
		slog.Any("type", val.Type()))
	return nil
}

// Lookup returns the value bound in this frame. ok is false when the name is
// not bound here; a declared but unassigned name yields UNINITIALIZED.
func (f *Frame) Lookup(name string) (Object, bool) {
	val, ok := f.Bindings[name]
	return val, ok
}
