package petri

import (
	"errors"
	"fmt"
)

// Structural defects reported by Build.
var (
	ErrUnknownReference   = errors.New("petri: unknown place or transition reference")
	ErrInvalidArcWeight   = errors.New("petri: arc weight must be a positive integer")
	ErrAsymmetricReadArc  = errors.New("petri: opposing arcs with unequal weights")
	ErrDuplicateID        = errors.New("petri: duplicate id")
	ErrInvalidEndpoints   = errors.New("petri: arc must join a place and a transition")
	ErrIsolatedTransition = errors.New("petri: transition has no arcs")
	ErrDuplicateArc       = errors.New("petri: duplicate arc")
	ErrInvalidLevel       = errors.New("petri: initial level must be finite")
)

// ModelError describes one structural defect. It matches its Kind with errors.Is.
type ModelError struct {
	Kind   error
	Ref    string
	Detail string
}

func (e *ModelError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %q", e.Kind, e.Ref)
	}
	return fmt.Sprintf("%v: %q (%s)", e.Kind, e.Ref, e.Detail)
}

func (e *ModelError) Unwrap() error { return e.Kind }

func modelErr(kind error, ref, format string, args ...any) *ModelError {
	return &ModelError{Kind: kind, Ref: ref, Detail: fmt.Sprintf(format, args...)}
}
