package step

// Binding says how a completed dependency feeds the step that declared it:
// either its result is bound to a named executor argument, or it only gates
// the start of the step and contributes no value. The zero Binding is a
// gate.
type Binding struct {
	arg string
}

// Bind binds the dependency's result to the named executor argument.
func Bind(arg string) Binding { return Binding{arg: arg} }

// Gate declares a start-ordering dependency that passes no value.
func Gate() Binding { return Binding{} }

// IsGate reports whether the binding passes no value.
func (b Binding) IsGate() bool { return b.arg == "" }

// Arg returns the bound argument name, or "" for a gate.
func (b Binding) Arg() string { return b.arg }

// String returns "gate" or the bound argument name.
func (b Binding) String() string {
	if b.arg == "" {
		return "gate"
	}
	return b.arg
}
