package sink

import "fmt"

// Sink names used in PersistenceError.
const (
	SinkCSV      = "csv"
	SinkDatabase = "database"
)

// PersistenceError reports a failed write to one output destination.
type PersistenceError struct {
	Sink   string
	Target string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("writing %s output %s: %v", e.Sink, e.Target, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
