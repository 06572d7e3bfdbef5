package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/orgflowhq/orgflow/pkg/channels/kafka"
	"github.com/orgflowhq/orgflow/pkg/eventbus"
)

// NewEventBus creates the lifecycle event bus. "kafka" connects to the
// brokers from the environment; "memory" keeps events in-process, which is
// what single-node deployments and tests use.
func NewEventBus(provider string, logger *slog.Logger) (eventbus.EventBus, error) {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), "orgflow")
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "memory":
		channel := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))

		return eventbus.NewWatermillEventBus(channel, channel), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
