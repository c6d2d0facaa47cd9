// Package service holds outbound integrations used by the HTTP layer.
package service

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/room-reservation/internal/queue"
)

// Publisher sends booking events to RabbitMQ.  It dials per publish so a
// broker restart never leaves the API holding a dead connection.
type Publisher struct {
    url   string
    queue string
    log   *zap.Logger
}

func NewPublisher(url string, log *zap.Logger) *Publisher {
    return &Publisher{url: url, queue: queue.BookingQueue, log: log}
}

// Publish declares the durable booking queue and sends ev as a persistent
// JSON message.
func (p *Publisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
    if p == nil || p.url == "" {
        return nil
    }
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return fmt.Errorf("rabbitmq dial: %w", err)
    }
    defer conn.Close()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("rabbitmq channel: %w", err)
    }
    defer ch.Close()

    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("rabbitmq queue declare: %w", err)
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    err = ch.PublishWithContext(pubCtx, "", p.queue, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    uuid.NewString(),
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    })
    if err != nil {
        return fmt.Errorf("rabbitmq publish: %w", err)
    }
    p.log.Debug("booking event published", zap.String("type", ev.Type), zap.Uint64("booking_id", ev.BookingID))
    return nil
}
