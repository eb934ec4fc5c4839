package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange, key string
	msg           amqp091.Publishing
}

type fakeChannel struct {
	declared   []string
	published  []published
	declareErr error
	publishErr error
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error {
	f.declared = append(f.declared, name+":"+kind)
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newAMQPPublisher(ch, "splitledger.events")
	require.NoError(t, err)
	assert.Equal(t, []string{"splitledger.events:topic"}, ch.declared)

	e := Event{Type: ExpenseCreated, ExpenseID: 12, GroupID: 3, OccurredAt: 1_700_000_000}
	require.NoError(t, p.Publish(context.Background(), e))

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, "splitledger.events", got.exchange)
	assert.Equal(t, "expense.created", got.key)
	assert.Equal(t, amqp091.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, "application/json", got.msg.ContentType)

	var decoded Event
	require.NoError(t, json.Unmarshal(got.msg.Body, &decoded))
	assert.Equal(t, e, decoded)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisher_DeclareFailure(t *testing.T) {
	ch := &fakeChannel{declareErr: errors.New("access refused")}
	_, err := newAMQPPublisher(ch, "x")
	assert.ErrorContains(t, err, "declare exchange")
	assert.True(t, ch.closed)
}

func TestEmitSwallowsPublishErrors(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p, err := newAMQPPublisher(ch, "x")
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		Emit(context.Background(), p, NewEvent(ExpenseDeleted, 1, 2))
	})
	assert.Empty(t, ch.published)
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(ExpenseUpdated, 5, 9)
	assert.Equal(t, ExpenseUpdated, e.Type)
	assert.Equal(t, int64(5), e.ExpenseID)
	assert.Equal(t, int64(9), e.GroupID)
	assert.NotZero(t, e.OccurredAt)

	assert.NoError(t, Nop{}.Publish(context.Background(), e))
}
