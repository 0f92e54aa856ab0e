package events

import (
	"time"

	"github.com/alexchamberlain/tartiflette/internal/gqlerrors"
)

// GraphQLStart is emitted before an operation is executed. Subscriptions
// emit it once, when the event stream is requested.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
	Variables     map[string]any
}

// GraphQLFinish is emitted once the operation has produced its result, or
// once the event stream of a subscription has ended.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []*gqlerrors.Error
	Duration      time.Duration
}
