package queue

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const retryHeader = "x-retry-count"

// AMQPQueue maps each topic to a durable RabbitMQ queue on the default exchange.
type AMQPQueue struct {
	conn *amqp.Connection

	mu sync.Mutex
	ch *amqp.Channel

	MaxRetries int
}

func NewAMQPQueue(url string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "connect to rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	return &AMQPQueue{conn: conn, ch: ch, MaxRetries: DefaultMaxRetries}, nil
}

func (q *AMQPQueue) declare(ch *amqp.Channel, topic string) error {
	_, err := ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	return errors.Wrapf(err, "declare queue %s", topic)
}

func (q *AMQPQueue) Publish(topic string, body []byte) error {
	return q.publish(topic, body, 0)
}

func (q *AMQPQueue) publish(topic string, body []byte, retries int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.declare(q.ch, topic); err != nil {
		return err
	}
	err := q.ch.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{retryHeader: int32(retries)},
		Body:         body,
	})
	return errors.Wrapf(err, "publish to %s", topic)
}

// Subscribe consumes the topic on a dedicated channel with manual acks.
// Failed deliveries are republished with an incremented retry header.
func (q *AMQPQueue) Subscribe(topic string, handler Handler) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return errors.Wrap(err, "open consumer channel")
	}
	if err := q.declare(ch, topic); err != nil {
		ch.Close()
		return err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return errors.Wrap(err, "set qos")
	}
	msgs, err := ch.Consume(
		topic,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return errors.Wrap(err, "register consumer")
	}

	go func() {
		defer ch.Close()
		for d := range msgs {
			q.handle(topic, d, handler)
		}
		zap.L().Info("consumer stopped", zap.String("topic", topic))
	}()
	return nil
}

func (q *AMQPQueue) handle(topic string, d amqp.Delivery, handler Handler) {
	log := zap.L().With(zap.String("topic", topic))

	err := handler(d.Body)
	if err == nil {
		d.Ack(false)
		return
	}

	retries := retryCount(d.Headers)
	if retries < q.MaxRetries {
		log.Warn("job failed, requeueing", zap.Int("attempt", retries+1), zap.Error(err))
		if pubErr := q.publish(topic, d.Body, retries+1); pubErr != nil {
			log.Error("requeue failed", zap.Error(pubErr))
			d.Nack(false, true)
			return
		}
	} else {
		log.Error("job permanently failed", zap.Int("attempts", retries+1), zap.Error(err))
	}
	d.Ack(false)
}

func retryCount(h amqp.Table) int {
	switch v := h[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ch.Close()
	return q.conn.Close()
}

var (
	_ Queue = (*InMemoryQueue)(nil)
	_ Queue = (*AMQPQueue)(nil)
)
