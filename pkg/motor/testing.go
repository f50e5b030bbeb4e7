package motor

import "time"

// MockDriver is a Driver whose Fetch is a plain function of the argset,
// for exercising Motor/Case/hack behavior without a real backend. This is
// the reusable counterpart to the throwaway constDriver/argsetEchoDriver
// types hand-rolled in motor_test.go — a Driver implementation other
// packages (and this package's own tests) can build with a one-line
// FetchFn instead of a bespoke struct per test.
type MockDriver struct {
	BaseDriver

	// FetchFn computes this trial's data from the argset. A nil FetchFn
	// leaves Data() whatever it was last set to (useful for drivers that
	// only care about Setup/bailout behavior).
	FetchFn func(args Argset) (map[string]interface{}, error)

	// FixedDuration, if non-zero, is reported via SetDuration after every
	// Fetch, so timing-sensitive assertions don't depend on wall-clock
	// noise.
	FixedDuration time.Duration
}

// NewMockDriver returns a MockDriver registered under class, computing its
// data with fn.
func NewMockDriver(class string, fn func(args Argset) (map[string]interface{}, error)) *MockDriver {
	d := &MockDriver{FetchFn: fn}
	d.Class = class
	return d
}

func (d *MockDriver) Fetch(args Argset) error {
	if d.FetchFn == nil {
		return nil
	}
	data, err := d.FetchFn(args)
	if err != nil {
		return err
	}
	d.SetData(data)
	if d.FixedDuration > 0 {
		d.SetDuration(d.FixedDuration)
	}
	return nil
}

// MockFactory returns a DriverFactory producing a fresh MockDriver per
// call, matching the Motor's "one Driver instance per argset" contract
// (§5) — callers must not share a single *MockDriver across factory calls.
func MockFactory(class string, fn func(args Argset) (map[string]interface{}, error)) DriverFactory {
	return func() Driver {
		return NewMockDriver(class, fn)
	}
}

// ConstFactory is MockFactory for a driver whose output never depends on
// the argset, useful for oracle/result pairs in tests that only want to
// exercise hack/diff behavior.
func ConstFactory(class string, data map[string]interface{}) DriverFactory {
	return MockFactory(class, func(Argset) (map[string]interface{}, error) {
		return deepCopyMap(data), nil
	})
}
