package importer

import (
	"errors"
	"fmt"

	"github.com/Faultbox/blendscene/pkg/blend"
)

// Import errors. Callers match them with errors.Is.
var (
	ErrCyclicParentage = errors.New("cyclic parentage")
	ErrMalformedMatrix = errors.New("malformed matrix")
	ErrRootUnresolved  = errors.New("root object unresolved")
	// ErrSkipped is returned for objects the import configuration excludes.
	ErrSkipped = errors.New("object excluded by import settings")
)

// RootError is the terminal error for a requested object that could not be
// resolved.
type RootError struct {
	Address blend.Address
	Err     error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("resolving object %s: %v", e.Address, e.Err)
}

// Unwrap exposes both ErrRootUnresolved and the underlying cause.
func (e *RootError) Unwrap() []error {
	return []error{ErrRootUnresolved, e.Err}
}

// WarningKind classifies a recoverable import problem.
type WarningKind int

// Warning kinds.
const (
	WarnBrokenReference WarningKind = iota
	WarnCyclicParentage
	WarnUnknownObjectType
	WarnUnsupportedProperty
	WarnModifier
	WarnConstraint
)

// String returns a human-readable warning kind.
func (k WarningKind) String() string {
	switch k {
	case WarnBrokenReference:
		return "broken-reference"
	case WarnCyclicParentage:
		return "cyclic-parentage"
	case WarnUnknownObjectType:
		return "unknown-object-type"
	case WarnUnsupportedProperty:
		return "unsupported-property"
	case WarnModifier:
		return "modifier"
	case WarnConstraint:
		return "constraint"
	default:
		return fmt.Sprintf("warning(%d)", int(k))
	}
}

// Warning is a recoverable problem met while resolving one feature.
type Warning struct {
	Address blend.Address
	Kind    WarningKind
	Message string
	Err     error
}

func (w Warning) String() string {
	if w.Err != nil {
		return fmt.Sprintf("%s at %s: %s: %v", w.Kind, w.Address, w.Message, w.Err)
	}
	return fmt.Sprintf("%s at %s: %s", w.Kind, w.Address, w.Message)
}
