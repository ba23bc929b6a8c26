package main

// exitError pairs a host error with the process exit code it should
// produce, per spec.md §4.6/§7: 65 compile error, 70 runtime error,
// 74 fatal host error (unreadable script, I/O failure).
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func fail(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}
