package broker

import (
	"context"
	"log/slog"
	"sync"

	"lmsWs/internal/modules/catalog/domain"
	"lmsWs/internal/modules/catalog/infrastructure"
)

// StartKafkaConsumers starts one consumer per registered kafka topic and returns a wait
// function that blocks until all of them stopped. Without brokers nothing is started.
func StartKafkaConsumers(
	ctx context.Context,
	registry *infrastructure.HandlerRegistry,
	brokers []string,
	groupID string,
) func() {
	var wg sync.WaitGroup
	if len(brokers) == 0 {
		slog.Info("kafka disabled, no brokers configured")
		return wg.Wait
	}
	for _, topic := range registry.Topics() {
		wg.Add(1)
		go func(tp string) {
			defer wg.Done()
			consumer := NewKafkaConsumer(brokers, groupID, tp)
			slog.Info("kafka consumer started", slog.String("topic", tp), slog.String("groupId", groupID))
			err := consumer.Consume(ctx, func(msg *domain.Message) error {
				return registry.Dispatch(ctx, tp, msg)
			})
			slog.Info("kafka consumer stopped", slog.String("topic", tp), slog.Any("reason", err))
		}(topic)
	}
	return wg.Wait
}
