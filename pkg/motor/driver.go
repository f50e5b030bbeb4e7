package motor

import (
	"strings"
	"time"
)

// Driver is the capability interface every test driver implements (§4.6,
// §9 "Driver polymorphism"). It mirrors the shape of the teacher's
// Operator interface (pkg/graft/interfaces.go: Setup/Run/Dependencies/Phase)
// generalized from "evaluate one expression" to "fetch/decode/normalize/
// check one trial's worth of data".
//
// Implementations may be mock, in-process, network, or subprocess-backed;
// the Motor owns their lifetime, instantiating a fresh one per argset
// (§5 "Driver instances are created and discarded per-argset").
type Driver interface {
	// Fetch obtains the raw data for this trial. Any error is wrapped as
	// DriverError. If Fetch sets its own duration via SetDuration, that value
	// is honored instead of the Motor's own measurement (§4.6 item 4).
	Fetch(args Argset) error

	// Decode converts raw data (as left by Fetch) into a comparable form.
	Decode() error

	// Normalize prepares decoded data for comparison (sort, trim, etc).
	Normalize() error

	// Check performs early, driver-specific validation of normalized data.
	Check() error

	// MandatoryArgs lists argset keys that must be present before Run.
	MandatoryArgs() []string

	// MandatorySettings lists settings keys that must be present after Setup.
	MandatorySettings() []string

	// Bailouts lists predicates that, if any return true for an argset,
	// cause CheckValues to signal NotSupportedError (§4.6 item 1).
	Bailouts() []Bailout

	// Data returns the current data mapping (set by Fetch/Decode/Normalize).
	Data() map[string]interface{}

	// SetData replaces the current data mapping (used by Decode/Normalize
	// implementations and by the base driver's private-key cleanup step).
	SetData(map[string]interface{})

	// Duration returns the driver-reported duration, if any was set
	// explicitly by Fetch; ok is false if the Motor should measure it itself.
	Duration() (d time.Duration, ok bool)

	// SetDuration lets a driver report its own measured duration (§4.6 item 4,
	// "Java library behind a Py4J gateway" example in the original docstring).
	SetDuration(time.Duration)

	// Setup loads settings, optionally filtered to this driver's own keys
	// (§4.6 item 3, §6).
	Setup(settings map[string]interface{}, onlyOwn bool)

	// ClassName identifies this driver for settings-prefix matching, stats
	// bucketing, and Case.OName/RName (§6).
	ClassName() string

	// Base returns the shared lifecycle bookkeeping (setup flag, mandatory
	// keys, bailouts) every driver is expected to embed. RunDriver uses it
	// directly instead of requiring every lifecycle concern to round-trip
	// through the Driver interface.
	Base() *BaseDriver
}

// Bailout is a named predicate over an argset (§4.6 item 1). The name is
// surfaced as the triggering predicate's identifier in NotSupportedError.
type Bailout struct {
	Name string
	Fn   func(Argset) bool
}

// BaseDriver is embedded by concrete drivers to supply the bookkeeping the
// spec's lifecycle requires (setup flag, settings filtering, mandatory-key
// assertions, private-key cleanup) so implementations need only provide
// Fetch (and, optionally, Decode/Normalize/Check), setting BailoutFns,
// MandatoryArgNames and MandatorySetNames for bailouts and mandatory keys.
// CheckValues and RunDriver read those fields directly; a Bailouts,
// MandatoryArgs or MandatorySettings method overridden on the embedding
// type is not consulted. This mirrors hoover.py's BaseTestDriver.
type BaseDriver struct {
	Class             string
	MandatoryArgNames []string
	MandatorySetNames []string
	BailoutFns        []Bailout

	data       map[string]interface{}
	settings   map[string]interface{}
	duration   time.Duration
	durationOK bool
	setupDone  bool
}

func (b *BaseDriver) ClassName() string { return b.Class }

// Base satisfies Driver.Base() for any type embedding *BaseDriver.
func (b *BaseDriver) Base() *BaseDriver { return b }

func (b *BaseDriver) MandatoryArgs() []string      { return b.MandatoryArgNames }
func (b *BaseDriver) MandatorySettings() []string   { return b.MandatorySetNames }
func (b *BaseDriver) Bailouts() []Bailout            { return b.BailoutFns }

func (b *BaseDriver) Data() map[string]interface{} {
	if b.data == nil {
		b.data = map[string]interface{}{}
	}
	return b.data
}

func (b *BaseDriver) SetData(d map[string]interface{}) { b.data = d }

func (b *BaseDriver) Duration() (time.Duration, bool) { return b.duration, b.durationOK }

func (b *BaseDriver) SetDuration(d time.Duration) {
	b.duration = d
	b.durationOK = true
}

// Settings returns the settings mapping captured by Setup.
func (b *BaseDriver) Settings() map[string]interface{} {
	if b.settings == nil {
		b.settings = map[string]interface{}{}
	}
	return b.settings
}

// Setup loads settings, optionally filtering to keys of the form
// "ClassName.optionName" whose ClassName matches this driver (§4.6 item 3,
// §6). Splitting is done on the *first* dot only, so a setting literally
// named "opt.ion" keeps its dot (SPEC_FULL supplemented feature 5).
func (b *BaseDriver) Setup(settings map[string]interface{}, onlyOwn bool) {
	b.settings = map[string]interface{}{}
	if !onlyOwn {
		for k, v := range settings {
			b.settings[k] = v
		}
		b.setupDone = true
		return
	}
	for key, v := range settings {
		class, option, found := strings.Cut(key, ".")
		if !found {
			continue
		}
		if class == b.Class {
			b.settings[option] = v
		}
	}
	b.setupDone = true
}

// CheckValues runs every bailout predicate against args, returning the
// first one that trips as a NotSupportedError (§4.6 item 1). It is
// deliberately independent of instance state so it can run before — and
// again at the top of — Run.
func (b *BaseDriver) CheckValues(args Argset) error {
	for _, bo := range b.BailoutFns {
		if bo.Fn(args) {
			return &NotSupportedError{Driver: b.Class, Predicate: bo.Name}
		}
	}
	return nil
}

func (b *BaseDriver) checkMandatory(args Argset) error {
	for _, key := range b.MandatoryArgNames {
		if _, ok := args[key]; !ok {
			return &DriverError{Driver: b.Class, Args: args, Settings: b.settings,
				Cause: &missingKeyError{kind: "arg", key: key}}
		}
	}
	for _, key := range b.MandatorySetNames {
		if _, ok := b.settings[key]; !ok {
			return &DriverError{Driver: b.Class, Args: args, Settings: b.settings,
				Cause: &missingKeyError{kind: "setting", key: key}}
		}
	}
	return nil
}

type missingKeyError struct {
	kind string
	key  string
}

func (e *missingKeyError) Error() string { return "missing " + e.kind + ": " + e.key }

// Decode, Normalize and Check are no-ops by default; concrete drivers
// override whichever steps they need, matching hoover.py's
// BaseTestDriver._decode_data/_normalize_data/_check_data defaults.
func (b *BaseDriver) Decode() error    { return nil }
func (b *BaseDriver) Normalize() error { return nil }
func (b *BaseDriver) Check() error     { return nil }

func (b *BaseDriver) cleanupPrivateKeys() {
	for k := range b.data {
		if strings.HasPrefix(k, "_") {
			delete(b.data, k)
		}
	}
}

// RunDriver executes the full lifecycle described in §4.6 item 4 for one
// trial: assert setup, re-check bailouts and mandatory keys, call Fetch
// (measuring elapsed time unless the driver set its own), then Decode,
// Normalize, Check, then strip private ("_"-prefixed) keys.
func RunDriver(d Driver, args Argset) (data map[string]interface{}, duration time.Duration, err error) {
	base := d.Base()
	if !base.setupDone {
		return nil, 0, &DriverError{Driver: base.Class, Args: args, Settings: base.settings,
			Cause: errRunBeforeSetup}
	}
	if err := base.CheckValues(args); err != nil {
		return nil, 0, err
	}
	if err := base.checkMandatory(args); err != nil {
		return nil, 0, err
	}

	start := time.Now()
	if ferr := d.Fetch(args); ferr != nil {
		return nil, 0, &DriverError{Driver: base.Class, Args: args, Settings: base.settings, Cause: ferr}
	}
	elapsed := time.Since(start)
	if reported, ok := d.Duration(); ok {
		duration = reported
	} else {
		duration = elapsed
	}

	if derr := d.Decode(); derr != nil {
		return nil, duration, &DriverDataError{Driver: base.Class, Args: args, Data: base.Data(), Cause: derr}
	}
	if nerr := d.Normalize(); nerr != nil {
		return nil, duration, &DriverDataError{Driver: base.Class, Args: args, Data: base.Data(), Cause: nerr}
	}
	if cerr := d.Check(); cerr != nil {
		return nil, duration, &DriverDataError{Driver: base.Class, Args: args, Data: base.Data(), Cause: cerr}
	}

	base.cleanupPrivateKeys()
	return base.Data(), duration, nil
}

var errRunBeforeSetup = &missingKeyError{kind: "state", key: "setup() not called before run()"}
