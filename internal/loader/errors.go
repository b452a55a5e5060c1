package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/Faultbox/objscene/pkg/formats"
)

// Error kinds. Every error returned by a load matches exactly one of them
// with errors.Is.
var (
	ErrParse            = errors.New("malformed OBJ/MTL syntax")
	ErrFetch            = errors.New("referenced file could not be read")
	ErrInvalidImageFile = errors.New("texture path has no or an unrecognized extension")
	ErrImageDecode      = errors.New("texture bytes do not match the declared codec")
)

// Error is the single tagged failure of a load.
type Error struct {
	Kind  error  // one of the Err* kinds
	Stage Stage  // stage the pipeline was in
	Path  string // document or texture path that failed
	Err   error  // underlying cause
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Path, e.Err)
}

// Unwrap exposes both the kind and the cause.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// classify picks the kind for an error coming out of the grammar decoder.
func classify(err error) error {
	var (
		syntax  *formats.SyntaxError
		library *formats.LibraryError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrFetch
	case errors.As(err, &library):
		return ErrFetch
	case errors.As(err, &syntax):
		return ErrParse
	default:
		return ErrParse
	}
}
