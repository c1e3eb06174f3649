package messaging

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/mq"
)

// KafkaEventPublisher 将订单/支付事件发布到 Kafka,key 为订单 ID 保证分区有序
type KafkaEventPublisher struct {
	producer     *mq.KafkaProducer
	orderTopic   string
	paymentTopic string
}

func NewKafkaEventPublisher(producer *mq.KafkaProducer, orderTopic, paymentTopic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, orderTopic: orderTopic, paymentTopic: paymentTopic}
}

func (p *KafkaEventPublisher) PublishOrderCreated(ctx context.Context, event domain.OrderCreatedEvent) error {
	return p.producer.SendMessage(ctx, p.orderTopic, event.OrderID, event)
}

func (p *KafkaEventPublisher) PublishOrderStatusChanged(ctx context.Context, event domain.OrderStatusChangedEvent) error {
	return p.producer.SendMessage(ctx, p.orderTopic, event.OrderID, event)
}

func (p *KafkaEventPublisher) PublishPayment(ctx context.Context, event domain.PaymentEvent) error {
	return p.producer.SendMessage(ctx, p.paymentTopic, event.OrderID, event)
}
