package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/seoulmarket/api/internal/services"
)

// PubSubEventPublisher publishes order and refund events to Pub/Sub topics.
// It satisfies both services.OrderEventPublisher and
// services.RefundEventPublisher.
type PubSubEventPublisher struct {
	orderTopic  *pubsub.Topic
	refundTopic *pubsub.Topic
	marshal     func(any) ([]byte, error)
}

// NewPubSubEventPublisher constructs a Pub/Sub backed event publisher.
func NewPubSubEventPublisher(orderTopic, refundTopic *pubsub.Topic) (*PubSubEventPublisher, error) {
	if orderTopic == nil {
		return nil, errors.New("pubsub event publisher: order topic is required")
	}
	if refundTopic == nil {
		return nil, errors.New("pubsub event publisher: refund topic is required")
	}
	return &PubSubEventPublisher{
		orderTopic:  orderTopic,
		refundTopic: refundTopic,
		marshal:     json.Marshal,
	}, nil
}

// PublishOrderEvent enqueues an order event on the order topic.
func (p *PubSubEventPublisher) PublishOrderEvent(ctx context.Context, event services.OrderEvent) error {
	if p == nil || p.orderTopic == nil {
		return errors.New("pubsub event publisher: not initialised")
	}

	data, err := p.marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "type", event.Type)
	setAttr(attrs, "orderId", event.OrderID)
	setAttr(attrs, "orderItemId", event.OrderItemID)
	setAttr(attrs, "status", event.Status)

	result := p.orderTopic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}

// PublishRefundEvent enqueues a refund event on the refund topic.
func (p *PubSubEventPublisher) PublishRefundEvent(ctx context.Context, event services.RefundEvent) error {
	if p == nil || p.refundTopic == nil {
		return errors.New("pubsub event publisher: not initialised")
	}

	data, err := p.marshal(event)
	if err != nil {
		return fmt.Errorf("marshal refund event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "type", event.Type)
	setAttr(attrs, "refundId", event.RefundID)
	setAttr(attrs, "orderItemId", event.OrderItemID)
	setAttr(attrs, "status", event.Status)

	result := p.refundTopic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish refund event: %w", err)
	}
	return nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
