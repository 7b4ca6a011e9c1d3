// Package apperr defines the error taxonomy shared across the application.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid input")
	ErrMalformed = errors.New("malformed package")
)

// MalformedPackageError reports a container or required-part problem that
// prevents the package from being loaded at all.
type MalformedPackageError struct {
	Reason string
	Err    error
}

func (e *MalformedPackageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed package: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed package: %s", e.Reason)
}

func (e *MalformedPackageError) Unwrap() error { return ErrMalformed }

// PartNotFoundError reports access to a part name the package does not contain.
type PartNotFoundError struct {
	Part string
}

func (e *PartNotFoundError) Error() string {
	return fmt.Sprintf("part not found: %s", e.Part)
}

func (e *PartNotFoundError) Unwrap() error { return ErrNotFound }

// RelationshipDanglingError reports an internal relationship whose target
// part does not exist.
type RelationshipDanglingError struct {
	Source string
	ID     string
	Target string
}

func (e *RelationshipDanglingError) Error() string {
	return fmt.Sprintf("dangling relationship %s on %s: target %s does not exist", e.ID, e.Source, e.Target)
}

func (e *RelationshipDanglingError) Unwrap() error { return ErrInvalid }

// InvalidColorValueError reports a color literal that is not a six-digit hex value.
type InvalidColorValueError struct {
	Value string
}

func (e *InvalidColorValueError) Error() string {
	return fmt.Sprintf("invalid color value: %q (want RRGGBB hex)", e.Value)
}

func (e *InvalidColorValueError) Unwrap() error { return ErrInvalid }

// InvalidRoleNameError reports a color role name outside the accepted set.
type InvalidRoleNameError struct {
	Role string
}

func (e *InvalidRoleNameError) Error() string {
	return fmt.Sprintf("invalid color role: %q", e.Role)
}

func (e *InvalidRoleNameError) Unwrap() error { return ErrInvalid }

// SlideParseError reports a slide part whose XML could not be parsed. Audits
// record it per slide and keep going; mutations treat it as a hard failure.
type SlideParseError struct {
	Part string
	Err  error
}

func (e *SlideParseError) Error() string {
	return fmt.Sprintf("slide %s: parse failed: %v", e.Part, e.Err)
}

func (e *SlideParseError) Unwrap() error { return e.Err }

// UnresolvedStyleWarning marks a style reference that no layer of the
// inheritance chain defines. It is reported, never raised as a failure.
type UnresolvedStyleWarning struct {
	Ref string
}

func (e *UnresolvedStyleWarning) Error() string {
	return fmt.Sprintf("unresolved style reference: %s", e.Ref)
}
