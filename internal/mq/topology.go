package mq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

const (
	ExchangeRuns Exchange = "conveyor.runs"
	ExchangeDLQ  Exchange = "conveyor.dlq"
)

const (
	QueueRunsRequested Queue = "runs.requested"
	QueueDLQRuns       Queue = "dlq.runs"
)

const (
	RoutingKeyRequested RoutingKey = "requested"
	RoutingKeyDLQRuns   RoutingKey = "runs"
)

// DefaultRequestTTL — сколько run.requested живёт в очереди.
// Запрос старше одного-двух тиков бесполезен: следующий тик пришлёт новый.
const DefaultRequestTTL = 5 * time.Minute

// TopologyConfig — параметры топологии.
type TopologyConfig struct {
	// RequestTTL — x-message-ttl для runs.requested (default: 5m).
	RequestTTL time.Duration
}

// SetupTopology объявляет exchanges, queues и bindings. Идемпотентна.
//
// Вызывается и scheduler'ом, и runner'ом: кто стартует первым, тот и создаёт.
// Оба должны передавать одинаковый RequestTTL, иначе RabbitMQ отклонит
// повторное объявление очереди с другими аргументами.
func SetupTopology(ctx context.Context, conn *Connection, cfg TopologyConfig) error {
	ttl := cfg.RequestTTL
	if ttl <= 0 {
		ttl = DefaultRequestTTL
	}

	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range []Exchange{ExchangeRuns, ExchangeDLQ} {
			if err := ch.ExchangeDeclare(string(ex), "direct", true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex, err)
			}
		}

		for _, q := range queueSpecs(ttl) {
			if _, err := ch.QueueDeclare(string(q.name), true, false, false, false, q.args); err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
			if err := ch.QueueBind(string(q.name), string(q.key), string(q.exchange), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", q.name, q.exchange, err)
			}
		}
		return nil
	})
}

type queueSpec struct {
	name     Queue
	exchange Exchange
	key      RoutingKey
	args     amqp.Table
}

func queueSpecs(ttl time.Duration) []queueSpec {
	return []queueSpec{
		{
			name:     QueueRunsRequested,
			exchange: ExchangeRuns,
			key:      RoutingKeyRequested,
			args: amqp.Table{
				"x-message-ttl":             ttl.Milliseconds(),
				"x-dead-letter-exchange":    string(ExchangeDLQ),
				"x-dead-letter-routing-key": string(RoutingKeyDLQRuns),
			},
		},
		{
			name:     QueueDLQRuns,
			exchange: ExchangeDLQ,
			key:      RoutingKeyDLQRuns,
		},
	}
}
