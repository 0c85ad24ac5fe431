// Package mq — доставка запросов на run через RabbitMQ.
//
// Scheduler публикует run.requested на каждый тик триггера (и на run-now
// из API), runner забирает сообщения по одному и выполняет run.
//
// Структура:
//   - connection.go — соединение с reconnect и graceful shutdown
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — публикация run.requested
//   - consumer.go   — потребление с ручным ack
//
// Топология:
//
//	conveyor.runs (direct)
//	└── runs.requested [routing: requested, TTL, DLQ: dlq.runs]
//
//	conveyor.dlq (direct)
//	└── dlq.runs [routing: runs]
package mq
