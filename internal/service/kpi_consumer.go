package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/coachware/fitness-coaching-backend/internal/queue"
	"github.com/coachware/fitness-coaching-backend/internal/repository"
)

// KPIConsumer listens on the session.events queue and refreshes the
// denormalized KPI cache of the affected coach.  Keeping the aggregation
// off the request path means booking latency never pays for analytics.
type KPIConsumer struct {
	Sessions *repository.SessionRepo
	Coaches  *repository.CoachRepo
}

// Start connects to RabbitMQ, declares the session.events queue (durable)
// and consumes messages until the process exits.  It runs a reconnect loop
// with capped exponential backoff and never returns under normal operation;
// processing errors are logged and the offending message rejected so the
// server keeps running.
func (k *KPIConsumer) Start() {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("kpi-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := k.consumeLoop(conn); err != nil {
			log.Printf("kpi-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func (k *KPIConsumer) consumeLoop(conn *amqp.Connection) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(sessionQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	deliveries, err := ch.Consume(sessionQueueName, "kpi-aggregator", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for d := range deliveries {
		if err := k.handle(d.Body); err != nil {
			log.Printf("kpi-consumer: %v", err)
			_ = d.Nack(false, false) // drop; the next event for this coach recomputes anyway
			continue
		}
		_ = d.Ack(false)
	}
	return fmt.Errorf("delivery channel closed")
}

// handle recomputes the coach KPI snapshot for the event's coach.  Every
// event triggers a full recompute rather than an incremental update, so a
// lost message self-heals on the next one.
func (k *KPIConsumer) handle(body []byte) error {
	var ev q.SessionEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}
	if ev.CoachID == 0 {
		return fmt.Errorf("event %s has no coach id", ev.Kind)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	totals, err := k.Sessions.KPITotals(ctx, ev.CoachID)
	if err != nil {
		return fmt.Errorf("aggregate coach %d: %w", ev.CoachID, err)
	}
	if err := k.Coaches.RefreshKPIs(ctx, ev.CoachID, totals, time.Now().UTC()); err != nil {
		return fmt.Errorf("refresh coach %d: %w", ev.CoachID, err)
	}
	return nil
}
