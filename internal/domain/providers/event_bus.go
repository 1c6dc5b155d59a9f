package providers

import (
	"context"

	"github.com/Ussyboy7/npa-emr-flow/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to flow events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.FlowEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.FlowEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event streams
const (
	// EventChannelFlowUpdates is the channel carrying every flow event
	EventChannelFlowUpdates = "flow:updates"

	// EventChannelRoomPrefix is the prefix for room-specific channels
	EventChannelRoomPrefix = "flow:room:"
)

// GetRoomChannel returns the channel name for a specific room
func GetRoomChannel(roomID string) string {
	return EventChannelRoomPrefix + roomID
}
