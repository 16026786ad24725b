package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"

    "github.com/pranavOffl/EventBookingSystem/internal/booking"
)

// Publisher implements booking.Notifier on RabbitMQ.  Each notification
// opens its own connection and channel.
type Publisher struct {
    url string
    log logrus.FieldLogger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
    if log == nil {
        log = logrus.StandardLogger()
    }
    return &Publisher{url: url, log: log}
}

// Notify publishes n to the queue named after its transition.
func (p *Publisher) Notify(ctx context.Context, n booking.Notification) error {
    return p.publish(ctx, string(n.Transition), FromNotification(n))
}

func (p *Publisher) publish(ctx context.Context, queueName string, ev BookingEvent) error {
    l := p.log.WithFields(logrus.Fields{"queue": queueName, "booking_id": ev.BookingID})

    conn, err := amqp.Dial(p.url)
    if err != nil {
        l.WithError(err).Warn("rabbitmq: dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        l.WithError(err).Warn("rabbitmq: channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
        l.WithError(err).Warn("rabbitmq: queue declare failed")
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
        l.WithError(err).Warn("rabbitmq: publish failed")
        return err
    }
    return nil
}
