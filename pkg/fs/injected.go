package fs

import "errors"

// InjectedError marks an error as intentionally injected by [Chaos].
//
// It wraps the underlying error so errors.Is/As and os.IsNotExist-style
// checks on the wrapped *os.PathError keep working.
type InjectedError struct {
	Err error
}

func (e *InjectedError) Error() string {
	return e.Err.Error()
}

func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) was injected by [Chaos].
func IsInjected(err error) bool {
	var injected *InjectedError

	return errors.As(err, &injected)
}
