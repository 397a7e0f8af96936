package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/domain/event"
	"github.com/bibbank/creditrisk/internal/infrastructure/kafka"
	pkgkafka "github.com/bibbank/creditrisk/pkg/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockProducer struct {
	topic    string
	messages []pkgkafka.Message
	err      error
}

func (m *mockProducer) Publish(_ context.Context, topic string, msgs ...pkgkafka.Message) error {
	m.topic = topic
	m.messages = append(m.messages, msgs...)
	return m.err
}

func TestEventPublisher_Publish(t *testing.T) {
	producer := &mockProducer{}
	pub := kafka.NewEventPublisher(producer, "creditrisk.events", discardLogger())

	scored := event.NewApplicantScored("sub-1", "user-1", 0.8, "High", decimal.NewFromInt(45000), decimal.NewFromInt(1080))
	high := event.NewHighRiskApplicantDetected("sub-1", "user-1", 0.8, decimal.NewFromInt(45000))

	require.NoError(t, pub.Publish(context.Background(), scored, high))
	assert.Equal(t, "creditrisk.events", producer.topic)
	require.Len(t, producer.messages, 2)

	msg := producer.messages[0]
	assert.Equal(t, []byte("sub-1"), msg.Key)
	assert.Equal(t, event.TypeApplicantScored, msg.Headers["event_type"])
	assert.Equal(t, scored.EventID(), msg.Headers["event_id"])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "user-1", decoded["user_id"])
	assert.Equal(t, "High", decoded["risk_band"])
	assert.Equal(t, event.TypeHighRiskApplicantDetected, producer.messages[1].Headers["event_type"])
}

func TestEventPublisher_NoEvents(t *testing.T) {
	producer := &mockProducer{err: errors.New("must not be called")}
	pub := kafka.NewEventPublisher(producer, "t", discardLogger())
	assert.NoError(t, pub.Publish(context.Background()))
	assert.Empty(t, producer.topic)
}

func TestEventPublisher_ProducerError(t *testing.T) {
	producer := &mockProducer{err: errors.New("broker down")}
	pub := kafka.NewEventPublisher(producer, "t", discardLogger())
	err := pub.Publish(context.Background(), event.NewBatchUploadFailed("up-1", "bank-1", "a.csv", "boom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

type mockProcessor struct {
	got  dto.ProcessBatchUploadRequest
	resp dto.ProcessBatchUploadResponse
	err  error
	n    int
}

func (m *mockProcessor) Execute(_ context.Context, req dto.ProcessBatchUploadRequest) (dto.ProcessBatchUploadResponse, error) {
	m.n++
	m.got = req
	return m.resp, m.err
}

func TestUploadRequestHandler(t *testing.T) {
	payload, err := json.Marshal(kafka.UploadRequest{
		UploaderID: "bank-1",
		Filename:   "clients.csv",
		Notes:      "nightly",
		Content:    []byte("Income,Age\n1,2\n"),
	})
	require.NoError(t, err)

	t.Run("decodes and forwards the request", func(t *testing.T) {
		proc := &mockProcessor{resp: dto.ProcessBatchUploadResponse{Upload: dto.BatchUploadResponse{UploadID: "up-1"}}}
		h := kafka.NewUploadRequestHandler(proc, discardLogger())

		require.NoError(t, h.Handler()(context.Background(), pkgkafka.Message{Value: payload}))
		assert.Equal(t, "bank-1", proc.got.UploaderID)
		assert.Equal(t, "clients.csv", proc.got.Filename)
		assert.Equal(t, "nightly", proc.got.Notes)
		assert.Equal(t, []byte("Income,Age\n1,2\n"), proc.got.Content)
	})

	t.Run("undecodable payload is acknowledged", func(t *testing.T) {
		proc := &mockProcessor{}
		h := kafka.NewUploadRequestHandler(proc, discardLogger())
		assert.NoError(t, h.Handle(context.Background(), pkgkafka.Message{Value: []byte("{")}))
		assert.Zero(t, proc.n)
	})

	t.Run("failed upload is acknowledged", func(t *testing.T) {
		proc := &mockProcessor{err: errors.New("score upload: classifier: boom")}
		h := kafka.NewUploadRequestHandler(proc, discardLogger())
		assert.NoError(t, h.Handle(context.Background(), pkgkafka.Message{Value: payload}))
		assert.Equal(t, 1, proc.n)
	})

	t.Run("cancellation is not acknowledged", func(t *testing.T) {
		proc := &mockProcessor{err: context.Canceled}
		h := kafka.NewUploadRequestHandler(proc, discardLogger())
		assert.ErrorIs(t, h.Handle(context.Background(), pkgkafka.Message{Value: payload}), context.Canceled)
	})
}

func TestDiscardPublisher(t *testing.T) {
	pub := kafka.NewDiscardPublisher(discardLogger())
	evt := event.NewBatchUploadFailed("upload-1", "bank-1", "clients.csv", "boom")
	assert.NoError(t, pub.Publish(context.Background(), evt))
	assert.NoError(t, pub.Publish(context.Background()))
}
