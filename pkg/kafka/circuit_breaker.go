package kafka

import (
	"context"
	"log/slog"

	"github.com/garment-platform/production-service/pkg/cloudevents"
	"github.com/garment-platform/production-service/pkg/resilience"
)

// EventPublisher is the publishing contract satisfied by Producer and its
// wrappers.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.ProductionCloudEvent) error
	Close() error
}

// CircuitBreakerProducer wraps a Producer with a circuit breaker so that a
// struggling broker sheds publish attempts instead of piling up timeouts.
type CircuitBreakerProducer struct {
	producer *Producer
	breaker  *resilience.CircuitBreaker
}

// NewCircuitBreakerProducer creates a circuit-breaker wrapped producer
func NewCircuitBreakerProducer(producer *Producer, logger *slog.Logger) *CircuitBreakerProducer {
	config := resilience.DefaultCircuitBreakerConfig("kafka-producer")
	return &CircuitBreakerProducer{
		producer: producer,
		breaker:  resilience.NewCircuitBreaker(config, logger),
	}
}

// PublishEvent publishes through the circuit breaker
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.ProductionCloudEvent) error {
	_, err := p.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishEvent(ctx, topic, event)
	})
	return err
}

// PublishEventAsync publishes asynchronously through the circuit breaker
func (p *CircuitBreakerProducer) PublishEventAsync(ctx context.Context, topic string, event *cloudevents.ProductionCloudEvent, callback func(error)) {
	go func() {
		err := p.PublishEvent(ctx, topic, event)
		if callback != nil {
			callback(err)
		}
	}()
}

// State returns the breaker state string for readiness reporting
func (p *CircuitBreakerProducer) State() string {
	return p.breaker.State().String()
}

// Close closes the underlying producer
func (p *CircuitBreakerProducer) Close() error {
	return p.producer.Close()
}
