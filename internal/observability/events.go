package observability

import (
	"context"

	"workspace-chat-service/internal/rabbitmq"
)

// EventEnvelope is the wire shape of service events published to AMQP.
type EventEnvelope struct {
	EventType string `json:"event_type"`
	EventName string `json:"event_name"`
	Payload   any    `json:"payload"`
}

// BuildHeaders assembles the correlation headers attached to every event.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}

var publisher rabbitmq.Publisher

// SetPublisher installs the process-wide event publisher. Called once at
// startup before any traffic is served.
func SetPublisher(p rabbitmq.Publisher) {
	publisher = p
}

// PublishEvent sends the envelope through the configured publisher; a
// missing publisher makes it a no-op.
func PublishEvent(ctx context.Context, routingKey string, envelope EventEnvelope, headers map[string]string) error {
	if publisher == nil {
		return nil
	}
	if err := publisher.Publish(ctx, routingKey, envelope, headers); err != nil {
		IncAMQPPublishError()
		return err
	}
	return nil
}
