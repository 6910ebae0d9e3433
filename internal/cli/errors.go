package cli

import "errors"

// ErrUsage marks errors caused by how apiforge was invoked: unknown flags,
// bad arguments, a malformed defaults file. Callers test for the category
// with errors.Is and print the message without further decoration; validation
// and IO failures take the regular error path instead.
var ErrUsage = errors.New("usage error")

// usageError carries the operator-facing message and matches ErrUsage
// through errors.Is.
type usageError struct {
	msg string
}

func newUsageError(msg string) error { return usageError{msg: msg} }

func (e usageError) Error() string { return e.msg }

func (e usageError) Is(target error) bool { return target == ErrUsage }
