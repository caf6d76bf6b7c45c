package object

import (
	"log/slog"
	"sync"
)

// Environment is one lexical scope frame: a binding map plus a pointer to
// the enclosing frame. Lookup walks outward; definition always lands in
// this frame, so redefining a name here shadows any outer binding.
//
// Evaluation is single-threaded, but an embedding host may share frames
// across goroutines; the mutex serializes access for that case.
type Environment struct {
	bindings map[string]Object
	outer    *Environment

	mu sync.RWMutex
}

func NewEnvironment() *Environment {
	return &Environment{bindings: make(map[string]Object)}
}

// NewEnclosedEnvironment creates a child frame of outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

// Define inserts or overwrites a binding in this frame only and returns
// the value. Most recent define wins.
func (e *Environment) Define(name string, val Object) Object {
	e.mu.Lock()
	e.bindings[name] = val
	e.mu.Unlock()

	slog.Debug("binding value",
		slog.Any("type", val.Type()),
		slog.String("name", name))
	return val
}

// Get searches this frame, then the outer chain.
func (e *Environment) Get(name string) (Object, bool) {
	e.mu.RLock()
	val, ok := e.bindings[name]
	e.mu.RUnlock()

	if ok {
		return val, true
	}
	if e.outer != nil {
		return e.outer.Get(name)
	}
	return nil, false
}

// Bind walks params and args in lock step, defining each parameter in
// this frame. When variadic is non-empty it is bound to the arguments
// left over after the fixed parameters, collected into a list. Arity
// mismatch yields an ArityError.
func (e *Environment) Bind(params []string, variadic string, args []Object) *Error {
	if variadic == "" {
		if len(args) != len(params) {
			return NewError(ArityError,
				"wrong number of arguments. got=%d, want=%d", len(args), len(params))
		}
	} else if len(args) < len(params) {
		return NewError(ArityError,
			"wrong number of arguments. got=%d, want at least %d", len(args), len(params))
	}

	for i, param := range params {
		e.Define(param, args[i])
	}
	if variadic != "" {
		e.Define(variadic, NewList(args[len(params):]...))
	}
	return nil
}
