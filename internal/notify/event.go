// AngelaMos | 2026
// event.go

package notify

import (
	"time"
)

const (
	EventAdvisoryRequested = "advisory.requested"
	EventAdvisoryResponded = "advisory.responded"
)

type Event struct {
	Type       string    `json:"type"`
	AdvisoryID string    `json:"advisory_id"`
	Status     string    `json:"status"`
	At         time.Time `json:"at"`
}

// envelope is the pub/sub wire form; the recipient never reaches the socket.
type envelope struct {
	UserID string `json:"user_id"`
	Event  Event  `json:"event"`
}
