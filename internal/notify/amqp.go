package notify

import (
    "context"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"

    "github.com/jrdriving/jrdriving-api/internal/queue"
)

// AMQPPublisher publishes events to a durable queue named after the event
// kind on the default exchange.  Each call dials its own connection so a
// broker outage never leaves a broken connection cached.
type AMQPPublisher struct {
    url string
    log logrus.FieldLogger
}

func NewAMQPPublisher(url string, log logrus.FieldLogger) *AMQPPublisher {
    return &AMQPPublisher{url: url, log: log}
}

// Publish sends body as a persistent JSON message.  Errors are logged and
// returned so the caller can ignore them.
func (p *AMQPPublisher) Publish(ctx context.Context, kind queue.Kind, body []byte) error {
    lg := p.log.WithField("queue", string(kind))

    conn, err := amqp.Dial(p.url)
    if err != nil {
        lg.WithError(err).Warn("rabbitmq: dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        lg.WithError(err).Warn("rabbitmq: channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        string(kind), // name
        true,         // durable
        false,        // autoDelete
        false,        // exclusive
        false,        // noWait
        nil,          // args
    ); err != nil {
        lg.WithError(err).Warn("rabbitmq: queue declare failed")
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         string(kind),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", string(kind), false, false, pub); err != nil {
        lg.WithError(err).Warn("rabbitmq: publish failed")
        return err
    }
    return nil
}
