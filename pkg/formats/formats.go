// Package formats provides parsers for the Wavefront OBJ and MTL text formats.
package formats

import (
	"errors"
	"fmt"
)

// Format errors.
var (
	ErrFaceTooSmall   = errors.New("face has fewer than 3 vertices")
	ErrZeroIndex      = errors.New("index value 0 is not valid")
	ErrIndexRange     = errors.New("index out of range")
	ErrMissingFields  = errors.New("directive has too few fields")
	ErrNoMaterial     = errors.New("material property before newmtl")
	ErrInvalidNumber  = errors.New("invalid number")
	ErrEmptyDirective = errors.New("directive has no argument")
)

// Source file kinds reported in SyntaxError.
const (
	SourceOBJ = "obj"
	SourceMTL = "mtl"
)

// SyntaxError reports malformed OBJ or MTL content.
type SyntaxError struct {
	File string // SourceOBJ, SourceMTL, or the library name
	Line int
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// LibraryError reports a material library that could not be read.
type LibraryError struct {
	Name string
	Err  error
}

func (e *LibraryError) Error() string {
	return fmt.Sprintf("material library %s: %v", e.Name, e.Err)
}

func (e *LibraryError) Unwrap() error {
	return e.Err
}
