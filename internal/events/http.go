package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when the server receives a request. The request id
// is carried by the context the event is published with.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the handler completes. WebSocket upgrades
// finish when the connection closes.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}
