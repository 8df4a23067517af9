package lcat

import (
	"fmt"
	"strings"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
)

// Environment is the nested, string-keyed mapping of values available for
// placeholder resolution. It is supplied by the caller and mutated in place
// by the Resolver (a Page sub-mapping is ensured and Page.Content assigned
// before scanning); mutations stay visible to the caller after Render
// returns. Values may be strings, nested mappings or arbitrary data.
type Environment map[string]interface{}

// NewEnvironment creates an empty environment.
func NewEnvironment() Environment {
	return make(Environment)
}

// Get walks the environment one path segment at a time and returns the
// value found at the end of the walk. It reports false when any
// intermediate step is absent or not a mapping; it never creates entries.
func (e Environment) Get(path ...string) (interface{}, bool) {
	var current interface{} = map[string]interface{}(e)
	for _, key := range path {
		m, ok := asMapping(current)
		if !ok {
			return nil, false
		}
		if current, ok = m[key]; !ok {
			return nil, false
		}
	}
	return current, true
}

// Set stores value at the given path, creating intermediate mappings as
// needed. It errors when an existing non-mapping value blocks the walk.
func (e Environment) Set(value interface{}, path ...string) error {
	if len(path) == 0 {
		return errors.New("environment: empty path")
	}
	m := map[string]interface{}(e)
	for _, key := range path[:len(path)-1] {
		if _, ok := m[key]; !ok {
			m[key] = make(map[string]interface{})
		}
		nest, ok := asMapping(m[key])
		if !ok {
			return fmt.Errorf("not a map: %q: %q already has value %q",
				strings.Join(path, "."), key, m[key])
		}
		m = nest
	}
	m[path[len(path)-1]] = value
	return nil
}

// Merge deep-merges src into the environment, src values overriding
// existing ones, and returns the merged environment.
func (e Environment) Merge(src map[string]interface{}) (Environment, error) {
	dst := map[string]interface{}(e)
	if err := mergo.Map(&dst, src, mergo.WithOverride); err != nil {
		return nil, errors.Wrap(err, "merge")
	}
	return Environment(dst), nil
}

// child returns the nested mapping stored under key, replacing the entry
// with a fresh empty mapping when it is absent or holds a non-mapping
// value. Used to ensure the Page scope before scanning.
func (e Environment) child(key string) Environment {
	if m, ok := asMapping(e[key]); ok {
		return Environment(m)
	}
	m := make(map[string]interface{})
	e[key] = m
	return Environment(m)
}

// asMapping reports whether v is usable as a mapping step during a walk.
// Both the named Environment type and plain string-keyed maps qualify, as
// values arrive from callers, YAML decoding and provider data alike.
func asMapping(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case Environment:
		return m, true
	case map[string]interface{}:
		return m, true
	}
	return nil, false
}
