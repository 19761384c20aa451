package bind

// Scope resolves context values for binding sites. Hosts implement it over
// whatever ownership tree they have; the usual contract is that lookup
// walks outward and the nearest enclosing provider wins.
type Scope interface {
	// Value returns the value installed under key, or nil.
	Value(key any) any
}

// MutableScope is a Scope that can host providers.
type MutableScope interface {
	Scope

	// SetValue installs value under key for this scope and its
	// descendants.
	SetValue(key, value any)
}
