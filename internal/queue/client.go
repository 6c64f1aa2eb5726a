package queue

import "context"

// RoutingKeyResumeProcessed is the topic for successfully persisted résumés.
const RoutingKeyResumeProcessed = "resume.processed"

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
