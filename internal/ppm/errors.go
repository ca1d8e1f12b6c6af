package ppm

import (
	"fmt"

	apperrors "github.com/perf-analysis/ppmc/pkg/errors"
)

// Error codes for the compression core (spec §7).
const (
	CodeOutOfMemory    = "OUT_OF_MEMORY"
	CodeParseError     = apperrors.CodeParseError
	CodeStructuralError = "STRUCTURAL_ERROR"
	CodeDictTooBig     = "DICT_TOO_BIG"
	CodeIOError        = "IO_ERROR"
)

// Common error instances, mirroring pkg/errors' Err* convention.
var (
	ErrOutOfMemory    = apperrors.New(CodeOutOfMemory, "allocation failed")
	ErrStructural     = apperrors.New(CodeStructuralError, "task graph violates structural expectations")
	ErrDictTooBig     = apperrors.New(CodeDictTooBig, "dictionary exceeds maximum size")
	ErrIO             = apperrors.New(CodeIOError, "binary read/write failed short")
)

// OutOfMemory wraps err as an out-of-memory failure.
func OutOfMemory(msg string, err error) *apperrors.AppError {
	return apperrors.Wrap(CodeOutOfMemory, msg, err)
}

// Structural returns a structural precondition violation carrying msg.
func Structural(msg string) *apperrors.AppError {
	return apperrors.New(CodeStructuralError, msg)
}

// ParseErr returns a malformed-input failure carrying msg.
func ParseErr(msg string) *apperrors.AppError {
	return apperrors.New(CodeParseError, msg)
}

// DictTooBig reports a dictionary build that exceeded the caller's max size.
func DictTooBig(size, max int) *apperrors.AppError {
	return apperrors.New(CodeDictTooBig, fmt.Sprintf("dictionary size %d exceeds maximum %d", size, max))
}

// IOErr wraps err as a short/failed binary read or write.
func IOErr(msg string, err error) *apperrors.AppError {
	return apperrors.Wrap(CodeIOError, msg, err)
}

// IsDictTooBig reports whether err is a dictionary-too-big failure.
func IsDictTooBig(err error) bool {
	return apperrors.GetErrorCode(err) == CodeDictTooBig
}

// IsStructuralError reports whether err is a structural precondition violation.
func IsStructuralError(err error) bool {
	return apperrors.GetErrorCode(err) == CodeStructuralError
}
