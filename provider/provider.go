package provider

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotFound is the sentinel providers return when no content exists at
// the requested path. Implementations distinguish a clean miss from a hard
// failure so their callers can tell the two apart, even though the resolver
// treats every fetch error as a miss.
var ErrNotFound = errors.New("provider: not found")

// Provider is an external facility that maps a constructed path to
// substitutable content. Strings substitute directly; any other value is
// returned to the caller untouched.
type Provider interface {
	Fetch(path string) (interface{}, error)
	fmt.Stringer
}

// Set is an ordered chain of providers. Fetches try each provider in turn:
// the first success wins, ErrNotFound moves on to the next, and any other
// error stops the chain so a deliberate failure is not masked by later
// providers.
type Set []Provider

var _ Provider = (Set)(nil)

// Fetch implements Provider.
func (s Set) Fetch(path string) (interface{}, error) {
	for _, p := range s {
		value, err := p.Fetch(path)
		switch {
		case err == nil:
			return value, nil
		case errors.Is(err, ErrNotFound):
			continue
		default:
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// Stringer interface lists the chained providers.
func (s Set) String() string {
	ids := make([]string, len(s))
	for i, p := range s {
		ids[i] = p.String()
	}
	return fmt.Sprintf("set(%s)", strings.Join(ids, ", "))
}
