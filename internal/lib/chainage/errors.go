package chainage

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is. Every error returned by this package
// matches exactly one of them and is local to the feature being processed.
var (
	ErrInvalidGeometry        = errors.New("invalid geometry")
	ErrInvalidSpacing         = errors.New("invalid spacing")
	ErrInvalidPolicy          = errors.New("invalid policy")
	ErrMeasurementUnavailable = errors.New("measurement unavailable")
)

// InvalidGeometryError reports a null, empty, too-short, multi-part or
// non-line geometry.
type InvalidGeometryError struct {
	Err error
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid geometry: %v", e.Err)
}

func (e *InvalidGeometryError) Unwrap() error { return e.Err }

func (e *InvalidGeometryError) Is(target error) bool { return target == ErrInvalidGeometry }

// InvalidSpacingError reports a resolved spacing that would not move the walk
// forward.
type InvalidSpacingError struct {
	Spacing float64
	Reason  string
}

func (e *InvalidSpacingError) Error() string {
	return fmt.Sprintf("invalid spacing %g: %s", e.Spacing, e.Reason)
}

func (e *InvalidSpacingError) Is(target error) bool { return target == ErrInvalidSpacing }

// InvalidPolicyError reports a placement policy that cannot be honored.
type InvalidPolicyError struct {
	Field  string
	Reason string
}

func (e *InvalidPolicyError) Error() string {
	return fmt.Sprintf("invalid policy: %s %s", e.Field, e.Reason)
}

func (e *InvalidPolicyError) Is(target error) bool { return target == ErrInvalidPolicy }

// MeasurementUnavailableError reports that geodesic measurement was needed
// but no ellipsoid could be resolved.
type MeasurementUnavailableError struct {
	Ellipsoid string
	Err       error
}

func (e *MeasurementUnavailableError) Error() string {
	if e.Ellipsoid == "" {
		return fmt.Sprintf("geodesic measurement unavailable: %v", e.Err)
	}
	return fmt.Sprintf("geodesic measurement unavailable for ellipsoid %q: %v", e.Ellipsoid, e.Err)
}

func (e *MeasurementUnavailableError) Unwrap() error { return e.Err }

func (e *MeasurementUnavailableError) Is(target error) bool {
	return target == ErrMeasurementUnavailable
}
