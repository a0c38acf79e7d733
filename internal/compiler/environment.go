package compiler

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]Value)}
}

func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

// NewFunctionEnvironment opens the frame of a function body.
func NewFunctionEnvironment(outer *Environment) *Environment {
	env := NewEnclosedEnvironment(outer)
	env.function = true
	return env
}

// Environment is one scope frame. Frames form a chain through outer; a
// name is owned by the frame whose store holds it.
type Environment struct {
	store    map[string]Value
	outer    *Environment
	function bool
}

// Get looks name up from this frame outward.
func (e *Environment) Get(name string) (Value, bool) {
	val, ok := e.store[name]
	if !ok && e.outer != nil {
		val, ok = e.outer.Get(name)
	}
	return val, ok
}

// Owns reports whether this frame itself binds name.
func (e *Environment) Owns(name string) bool {
	_, ok := e.store[name]
	return ok
}

// Set binds name in this frame.
func (e *Environment) Set(name string, val Value) Value {
	e.store[name] = val
	return val
}

// Outer returns the enclosing frame, or nil for the root.
func (e *Environment) Outer() *Environment {
	return e.outer
}

// IsFunctionBody reports whether this frame was opened by fun.
func (e *Environment) IsFunctionBody() bool {
	return e.function
}

// ownsPrimitive reports whether this frame itself binds name to a primitive.
func (e *Environment) ownsPrimitive(name string) bool {
	val, ok := e.store[name]
	return ok && val.IsPrimitive()
}
