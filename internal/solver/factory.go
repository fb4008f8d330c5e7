package solver

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned when no backend in the configured order could be
// constructed.
var ErrUnavailable = errors.New("solver: no backend available")

// Factory constructs a fresh, empty engine.
type Factory func() (Engine, error)

var factories = map[string]Factory{
	"propagation": newPropagationEngine,
	"enumeration": newEnumerationEngine,
}

// DefaultEngines is the backend preference order used when none is configured.
func DefaultEngines() []string {
	return []string{"propagation", "enumeration"}
}

// New tries the named backends in order and returns the first that
// constructs. Unknown names are skipped; if nothing constructs the caller
// gets ErrUnavailable carrying the per-backend reasons.
func New(names []string) (Engine, error) {
	if len(names) == 0 {
		names = DefaultEngines()
	}
	var reasons []error
	for _, name := range names {
		factory, ok := factories[name]
		if !ok {
			reasons = append(reasons, fmt.Errorf("unknown backend %q", name))
			continue
		}
		engine, err := factory()
		if err != nil {
			reasons = append(reasons, fmt.Errorf("backend %q: %w", name, err))
			continue
		}
		return engine, nil
	}
	return nil, errors.Join(ErrUnavailable, errors.Join(reasons...))
}
