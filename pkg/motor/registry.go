package motor

import "fmt"

// Registry is a driver class registry, mapping class names to factories.
// Generalized from the teacher's factory.NewDefaultEngine/RegisterOperator
// pattern (register-by-string-name, reject duplicates) from an operator
// registry into a driver registry.
type Registry struct {
	factories map[string]DriverFactory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]DriverFactory{}}
}

// Register adds factory under class, rejecting a duplicate registration.
func (r *Registry) Register(class string, factory DriverFactory) error {
	if _, exists := r.factories[class]; exists {
		return fmt.Errorf("motor: driver class %q already registered", class)
	}
	r.factories[class] = factory
	return nil
}

// MustRegister is Register, panicking on error; for package-init-time
// registration of built-in example drivers.
func (r *Registry) MustRegister(class string, factory DriverFactory) {
	if err := r.Register(class, factory); err != nil {
		panic(err)
	}
}

// Drivers returns the map Motor consumes. The returned map is the
// Registry's own backing map — callers should treat it as read-only once
// a Motor has been built from it.
func (r *Registry) Drivers() map[string]DriverFactory {
	return r.factories
}

// DefaultRegistry is the process-wide registry example driver packages add
// themselves to from an init(), mirroring the teacher's graft.OpRegistry/
// RegisterOp pattern (pkg/graft/operators/operator.go) generalized from
// "operator name -> Operator" to "driver class -> DriverFactory". A
// program that blank-imports a driver package (`_ "github.com/.../
// examples/drivers/httpdriver"`) picks up its class without wiring a
// factory by hand.
var DefaultRegistry = NewRegistry()
