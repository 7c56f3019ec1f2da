package pose

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoModel is returned for every observation offered to a session that has
// no classifier bound. Frames are not buffered in that state.
var ErrNoModel = errors.New("no model set")

// SchemaError reports target columns the sequence could not derive. It fails
// the affected window only; the session keeps accumulating.
type SchemaError struct {
	Sequence string
	Missing  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sequence %s cannot derive %d required columns: %s",
		e.Sequence, len(e.Missing), strings.Join(e.Missing, ", "))
}

// ClassificationError wraps a failure inside the classifier's prediction
// call. Actuation is skipped and the session keeps accumulating.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// ActuationError wraps a failure or timeout in the actuation bridge. The
// classification that triggered the actuation is still valid and is still
// emitted.
type ActuationError struct {
	Err error
}

func (e *ActuationError) Error() string {
	return fmt.Sprintf("actuation failed: %v", e.Err)
}

func (e *ActuationError) Unwrap() error { return e.Err }
