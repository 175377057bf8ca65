package errorhelpers

import (
	"errors"
	"fmt"
)

// LabeledError is an error annotated with the step of a run that failed.
type LabeledError struct {
	label string
	err   error
}

func (l *LabeledError) Error() string {
	return fmt.Sprintf("%s: %s", l.label, l.err.Error())
}

// Label returns the label for the error.
func (l *LabeledError) Label() string {
	return l.label
}

// Unwrap returns the underlying error.
func (l *LabeledError) Unwrap() error {
	return l.err
}

// LabelError labels err with the step that produced it. A nil err stays nil.
func LabelError(label string, err error) error {
	if err == nil {
		return nil
	}

	return &LabeledError{label, err}
}

// LabelOf returns the label of the outermost LabeledError in err's chain, or
// "" if there is none.
func LabelOf(err error) string {
	var l *LabeledError
	if errors.As(err, &l) {
		return l.label
	}
	return ""
}
