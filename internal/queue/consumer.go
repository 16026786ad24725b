package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// Consumer reads both booking queues and appends one line per message to
// a log file.
type Consumer struct {
    url     string
    logPath string
    log     logrus.FieldLogger
    mu      sync.Mutex // serialises appends to logPath
}

// NewConsumer returns a Consumer writing to logPath.
func NewConsumer(url, logPath string, log logrus.FieldLogger) *Consumer {
    if log == nil {
        log = logrus.StandardLogger()
    }
    return &Consumer{url: url, logPath: logPath, log: log}
}

// Run connects to the broker and consumes until ctx is cancelled.  Lost
// connections are redialled with exponential backoff up to 30s.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.WithError(err).WithField("retry_in", backoff).Warn("booking-consumer: dial failed")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.WithError(err).Warn("booking-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.WithError(err).Warn("booking-consumer: set QoS failed")
    }

    var streams []<-chan amqp.Delivery
    for _, name := range []string{QueueBookingConfirmed, QueueBookingCancelled} {
        if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", name, err)
        }
        msgs, err := ch.Consume(name, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", name, err)
        }
        streams = append(streams, msgs)
    }
    confirmed, cancelled := streams[0], streams[1]

    for {
        var (
            d  amqp.Delivery
            ok bool
        )
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok = <-confirmed:
        case d, ok = <-cancelled:
        }
        if !ok {
            return errors.New("deliveries channel closed")
        }
        if err := c.handleMessage(d.Body); err != nil {
            c.log.WithError(err).Warn("booking-consumer: handle message failed")
            _ = d.Nack(false, false) // no requeue, a bad body would loop forever
            continue
        }
        _ = d.Ack(false)
    }
}

var transitionLabel = map[string]string{
    QueueBookingConfirmed: "Booking confirmed",
    QueueBookingCancelled: "Booking cancelled",
}

func (c *Consumer) handleMessage(body []byte) error {
    var ev BookingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    label, ok := transitionLabel[ev.Type]
    if !ok {
        return fmt.Errorf("unknown message type %q", ev.Type)
    }

    line := fmt.Sprintf("[%s] %s | booking_id=%s | user_id=%s | event_id=%s | event=%q | seats=%d/%d | actor_id=%s\n",
        ev.OccurredAt, label, ev.BookingID, ev.UserID, ev.EventID, ev.EventTitle, ev.BookedSeats, ev.Capacity, ev.ActorID)

    c.mu.Lock()
    defer c.mu.Unlock()
    if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
