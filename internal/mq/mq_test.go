package mq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ackRecorder struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error { a.acked = true; return nil }
func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}
func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}

func newTestConsumer(h Handler, requeue bool) *Consumer {
	return NewConsumer(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), ConsumerConfig{
		Queue:          QueueRunsRequested,
		Handler:        h,
		RequeueOnError: requeue,
	})
}

func runRequested(t *testing.T) []byte {
	t.Helper()
	msg, err := NewMessage(MessageTypeRunRequested, RunRequestedPayload{
		RequestID:   uuid.New(),
		Source:      SourceTrigger,
		RequestedAt: time.Now(),
		Pattern:     "*/1 * * * *",
	})
	require.NoError(t, err)
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

func TestConsumer_AckOnSuccess(t *testing.T) {
	var got RunRequestedPayload
	c := newTestConsumer(func(_ context.Context, msg *Message) error {
		var err error
		got, err = ParsePayload[RunRequestedPayload](msg)
		return err
	}, false)

	ack := &ackRecorder{}
	c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: runRequested(t)})

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
	assert.Equal(t, SourceTrigger, got.Source)
	assert.Equal(t, "*/1 * * * *", got.Pattern)
}

func TestConsumer_HandlerErrorGoesToDLQ(t *testing.T) {
	c := newTestConsumer(func(context.Context, *Message) error { return errors.New("boom") }, false)

	ack := &ackRecorder{}
	c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: runRequested(t)})

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestConsumer_HandlerErrorRequeue(t *testing.T) {
	c := newTestConsumer(func(context.Context, *Message) error { return errors.New("boom") }, true)

	ack := &ackRecorder{}
	c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: runRequested(t)})

	assert.True(t, ack.nacked)
	assert.True(t, ack.requeue)
}

func TestConsumer_MalformedMessage(t *testing.T) {
	called := false
	c := newTestConsumer(func(context.Context, *Message) error { called = true; return nil }, true)

	ack := &ackRecorder{}
	c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("not json")})

	assert.False(t, called)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestParsePayload_Empty(t *testing.T) {
	_, err := ParsePayload[RunRequestedPayload](&Message{Type: MessageTypeRunRequested})
	assert.Error(t, err)
}

func TestQueueSpecs(t *testing.T) {
	specs := queueSpecs(2 * time.Minute)
	require.Len(t, specs, 2)

	requested := specs[0]
	assert.Equal(t, QueueRunsRequested, requested.name)
	assert.Equal(t, int64(120000), requested.args["x-message-ttl"])
	assert.Equal(t, string(ExchangeDLQ), requested.args["x-dead-letter-exchange"])
	assert.Nil(t, specs[1].args)
}
