package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork classifies failures to retrieve a resource.
	ErrNetwork = errors.New("network error")
	// ErrParse classifies bodies that are not valid JSON.
	ErrParse = errors.New("parse error")
)

// NetworkError reports that the resource at Path could not be retrieved.
// Err is the failure raised by the source, untouched.
type NetworkError struct {
	Path string
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNetwork) match.
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ParseError reports that the body fetched from Path is not valid JSON.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// IsNetworkError reports whether err is, or wraps, a NetworkError.
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsParseError reports whether err is, or wraps, a ParseError.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}
