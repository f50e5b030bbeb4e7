package motor

import (
	"fmt"

	"github.com/pkg/errors"
)

// NotSupportedError signals that a driver has bailed out on an argset (§4.6,
// §7). The Motor recovers from this one specifically: it counts it and
// omits the driver from that round.
type NotSupportedError struct {
	Driver    string
	Predicate string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("%s: not supported (bailout: %s)", e.Driver, e.Predicate)
}

// DriverError wraps a failure raised from a driver's Fetch step, carrying
// enough context to reproduce the failing call (§7).
type DriverError struct {
	Driver   string
	Args     Argset
	Settings map[string]interface{}
	Cause    error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("driver error\n  driver: %s\n  args: %v\n  settings: %v\n  cause: %v",
		e.Driver, e.Args, e.Settings, e.Cause)
}

func (e *DriverError) Unwrap() error { return e.Cause }

// DriverDataError wraps a failure raised from Decode/Normalize/Check (§7).
type DriverDataError struct {
	Driver string
	Args   Argset
	Data   map[string]interface{}
	Cause  error
}

func (e *DriverDataError) Error() string {
	return fmt.Sprintf("driver data error\n  driver: %s\n  args: %v\n  data: %v\n  cause: %v",
		e.Driver, e.Args, e.Data, e.Cause)
}

func (e *DriverDataError) Unwrap() error { return e.Cause }

// PathNotFoundError is returned by PathAddressing operations (§4.1). Hack
// actions swallow it deliberately (§4.7); direct callers of Get/Set/Del see
// it surfaced.
type PathNotFoundError struct {
	Path string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("path not found: %s", e.Path)
}

// BadPatternError is returned by RulePredicate on malformed expressions (§4.3).
type BadPatternError struct {
	Reason string
}

func (e *BadPatternError) Error() string { return "bad pattern: " + e.Reason }

// BadSchemeError is returned by the Generator when a scheme is not a mapping (§4.5).
type BadSchemeError struct {
	Reason string
}

func (e *BadSchemeError) Error() string { return "bad scheme: " + e.Reason }

// MismatchError is returned by the Generator when a sub-scheme's source
// counterpart is not a mapping (§4.5).
type MismatchError struct {
	Key string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("scheme/source mismatch at key %q", e.Key)
}

// BadMarkError is returned by the Generator on an unknown sentinel class (§4.5).
type BadMarkError struct {
	Key string
}

func (e *BadMarkError) Error() string { return fmt.Sprintf("bad mark at key %q", e.Key) }

// RecursionLimitError is returned by the Generator or StructuralMatch when
// nesting exceeds the configured limit (§4.2, §4.5).
type RecursionLimitError struct {
	Limit int
}

func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("recursion limit exceeded (%d)", e.Limit)
}

// CleanupAteErrorPanic is the fatal invariant violation raised when a
// cleanup_hack turns a failing comparison into a passing one (§4.8, §7, §9).
// It is deliberately a panic value rather than a returned error: the Python
// original raises RuntimeError("cleanup ate error") from deep inside the
// per-argset loop with no recovery path, and Motor.Run mirrors that by
// letting it propagate as a panic that callers may recover if they choose.
type CleanupAteErrorPanic struct {
	Fingerprint string
}

func (e CleanupAteErrorPanic) Error() string {
	return "cleanup ate error: " + e.Fingerprint
}

// wrap is a thin helper around github.com/pkg/errors so every boundary error
// in this package carries a stack trace, matching the pattern used across
// the gatekeeper and opa-driver examples.
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}
