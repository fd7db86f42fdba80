// Error kinds shared by the encoders and the signing engine.
//
// Every failure returned by this module wraps exactly one
// of the Err* values so callers can use errors.Is to
// classify it. Nothing is retried or logged here.
package isxerrors

import (
	"errors"
	"fmt"

	"golang.org/x/xerrors"
)

var (
	// unknown type reference, cyclic type graph,
	// field/value arity mismatch
	ErrSchema = errors.New("schema")

	// numeric range, bytesN length, unsupported type token
	ErrEncoding = errors.New("encoding")

	// r/s out of range, point at infinity, bad recovery id
	ErrSignature = errors.New("signature")

	// malformed hex or json
	ErrInputFormat = errors.New("input format")
)

func Schema(format string, args ...any) error {
	return kind(ErrSchema, format, args...)
}

func Encoding(format string, args ...any) error {
	return kind(ErrEncoding, format, args...)
}

func Signature(format string, args ...any) error {
	return kind(ErrSignature, format, args...)
}

func InputFormat(format string, args ...any) error {
	return kind(ErrInputFormat, format, args...)
}

func kind(k error, format string, args ...any) error {
	return fmt.Errorf("%w: %w", k, fmt.Errorf(format, args...))
}

// Returns the Err* value wrapped by err
// or nil if err is not classified.
func Kind(err error) error {
	for _, k := range []error{ErrSchema, ErrEncoding, ErrSignature, ErrInputFormat} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Wraps xerrors.Errorf but returns nil if err is nil
func Errorf(format string, args ...interface{}) error {
	for i := range args {
		if _, ok := args[i].(error); ok {
			return xerrors.Errorf(format, args...)
		}
	}
	return nil
}
