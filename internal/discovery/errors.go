package discovery

import "errors"

// ErrNoCompanies reports that free-text input parsed cleanly but yielded
// zero recognizable companies. Callers treat this as a recoverable
// condition, not a pipeline failure.
var ErrNoCompanies = errors.New("no companies found in input")

// InputError marks malformed or empty input to the normalizer. The batch
// never starts when one of these is returned.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return "invalid input: " + e.Reason }

func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie) || errors.Is(err, ErrNoCompanies)
}
