package events

import "time"

// FieldStart is emitted before a field resolver runs.
type FieldStart struct {
	ParentType string
	Field      string
	Path       []any
}

// FieldFinish is emitted after a field resolver returns. Err is the
// resolver error, before completion.
type FieldFinish struct {
	ParentType string
	Field      string
	Path       []any
	Err        error
	Duration   time.Duration
}
