package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/arunvm123/showcatalog/catalog-service/events"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queueReader hands out queued messages and reports io.EOF once drained, like a closed reader
type queueReader struct {
	messages []kafka.Message
	errs     []error
}

func (r *queueReader) ReadMessage(context.Context) (kafka.Message, error) {
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return kafka.Message{}, err
	}
	if len(r.messages) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *queueReader) Close() error { return nil }

type countingInvalidator struct {
	calls int
	err   error
}

func (i *countingInvalidator) InvalidateAll(context.Context) error {
	i.calls++
	return i.err
}

func message(t *testing.T, origin string) kafka.Message {
	t.Helper()
	value, err := json.Marshal(events.ChangeEvent{
		Type:       events.ProductUpdated,
		ProductID:  "show-1",
		Origin:     origin,
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return kafka.Message{Key: []byte("show-1"), Value: value}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInvalidationProcessorSkipsOwnEvents(t *testing.T) {
	reader := &queueReader{messages: []kafka.Message{
		message(t, "instance-b"),
		message(t, "instance-a"),
		{Value: []byte("not json")},
		message(t, "instance-c"),
	}}
	invalidator := &countingInvalidator{}
	p := NewInvalidationProcessor(reader, invalidator, "instance-a", quietLogger())

	require.NoError(t, p.Start(context.Background()))
	assert.Equal(t, 2, invalidator.calls)

	processed, skipped, failed := p.Stats()
	assert.Equal(t, int64(2), processed)
	assert.Equal(t, int64(1), skipped)
	assert.Equal(t, int64(1), failed)
}

func TestInvalidationProcessorCountsInvalidationFailures(t *testing.T) {
	reader := &queueReader{messages: []kafka.Message{message(t, "instance-b")}}
	invalidator := &countingInvalidator{err: errors.New("store down")}
	p := NewInvalidationProcessor(reader, invalidator, "instance-a", quietLogger())

	require.NoError(t, p.Start(context.Background()))
	_, _, failed := p.Stats()
	assert.Equal(t, int64(1), failed)
}

func TestInvalidationProcessorRetriesReadErrors(t *testing.T) {
	reader := &queueReader{
		errs:     []error{errors.New("rebalancing")},
		messages: []kafka.Message{message(t, "instance-b")},
	}
	invalidator := &countingInvalidator{}
	p := NewInvalidationProcessor(reader, invalidator, "instance-a", quietLogger())
	p.retryDelay = time.Millisecond

	require.NoError(t, p.Start(context.Background()))
	assert.Equal(t, 1, invalidator.calls)
}

func TestInvalidationProcessorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := &queueReader{errs: []error{context.Canceled}}
	p := NewInvalidationProcessor(reader, &countingInvalidator{}, "instance-a", quietLogger())

	err := p.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
