package timer

import "errors"

var (
	// ErrInvalidTransition is returned when an operation is not legal in the
	// current state. The session is left untouched.
	ErrInvalidTransition = errors.New("invalid timer transition")

	// ErrInvalidArgument is returned for bad input such as a zero duration.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPersistence matches any *PersistenceError via errors.Is.
	ErrPersistence = errors.New("persistence error")
)

// PersistenceError wraps a storage failure on the synchronous command path.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrPersistence) match.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
