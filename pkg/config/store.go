package config

import "strings"

// Value is a single configuration value: either a scalar string or an
// ordered list of strings, depending on the source syntax.
type Value struct {
	scalar string
	list   []string
	isList bool
}

// Scalar creates a scalar Value
func Scalar(s string) Value {
	return Value{scalar: s}
}

// List creates a list Value
func List(items ...string) Value {
	return Value{list: items, isList: true}
}

// IsList reports whether the value was written with list syntax
func (v Value) IsList() bool {
	return v.isList
}

// String returns the scalar form of the value. List values are joined with
// single spaces.
func (v Value) String() string {
	if v.isList {
		return strings.Join(v.list, " ")
	}
	return v.scalar
}

// Items returns the list form of the value. Scalar values are split on
// whitespace.
func (v Value) Items() []string {
	if v.isList {
		return v.list
	}
	return strings.Fields(v.scalar)
}

// Store is the in-memory configuration store, keyed by dotted path
// ("section.key", or the bare key when the entry was defined outside any
// section). It is populated once at run start and read-only thereafter.
type Store struct {
	values map[string]Value
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{values: make(map[string]Value)}
}

// Set stores a value under key. Later writes overwrite earlier ones.
func (s *Store) Set(key string, v Value) {
	s.values[key] = v
}

// Get returns the stored value for key if present and non-empty, else def.
// Lookup never fails; absence is normal.
func (s *Store) Get(key, def string) string {
	v, ok := s.values[key]
	if !ok || v.String() == "" {
		return def
	}
	return v.String()
}

// GetList returns the list form of the stored value, or nil when absent.
func (s *Store) GetList(key string) []string {
	v, ok := s.values[key]
	if !ok {
		return nil
	}
	return v.Items()
}

// GetBool interprets the stored value as a boolean. "true" (any case) and
// "1" are true, any other non-empty value is false, absence yields def.
func (s *Store) GetBool(key string, def bool) bool {
	v, ok := s.values[key]
	if !ok || v.String() == "" {
		return def
	}
	switch strings.ToLower(v.String()) {
	case "true", "1":
		return true
	default:
		return false
	}
}

// Len returns the number of stored keys
func (s *Store) Len() int {
	return len(s.values)
}
