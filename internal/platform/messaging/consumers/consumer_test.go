package consumers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/startup-investment-ledger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// fakeReader hands out queued messages, then blocks until the context ends
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) committedKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.committed))
	for _, m := range r.committed {
		keys = append(keys, string(m.Key))
	}
	return keys
}

func TestNewKafkaConsumer(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:  "localhost:9092",
		MinBytes: 1024,
		MaxBytes: 10240,
		MaxWait:  time.Second,
	}

	consumer := NewKafkaConsumer(context.Background(), newTestLogger(), cfg, "reconcile_requests", "ledger-reconcile-group")
	require.NotNil(t, consumer)
	require.NotNil(t, consumer.reader, "Kafka reader should be initialized")
	assert.Equal(t, "reconcile_requests", consumer.topic)
	assert.Equal(t, 30*time.Second, consumer.maxDelay)
	assert.Equal(t, "ledger-reconcile-group", consumer.groupID)
	require.NoError(t, consumer.Close())
}

func TestKafkaConsumer_RetriesUntilHandled(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		{Key: []byte("startup-1"), Value: []byte("{}")},
		{Key: []byte("startup-2"), Value: []byte("{}")},
	}}
	consumer := &KafkaConsumer{reader: reader, logger: newTestLogger(), retryDelay: time.Millisecond, maxDelay: 4 * time.Millisecond}

	var mu sync.Mutex
	calls := map[string]int{}
	var handled sync.WaitGroup
	handled.Add(2)
	handler := func(_ context.Context, key []byte, _ []byte) error {
		mu.Lock()
		defer mu.Unlock()
		calls[string(key)]++
		if string(key) == "startup-1" && calls["startup-1"] < 3 {
			return errors.New("database unavailable")
		}
		handled.Done()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		consumer.consume(ctx, handler)
		close(done)
	}()

	handled.Wait()
	cancel()
	<-done

	assert.Equal(t, []string{"startup-1", "startup-2"}, reader.committedKeys(), "offsets are committed in order")
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, calls["startup-1"])
	assert.Equal(t, 1, calls["startup-2"])
}

func TestKafkaConsumer_StopsWhileRetrying(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{{Key: []byte("startup-1")}}}
	consumer := &KafkaConsumer{reader: reader, logger: newTestLogger(), retryDelay: time.Hour, maxDelay: time.Hour}

	failed := make(chan struct{}, 1)
	handler := func(context.Context, []byte, []byte) error {
		select {
		case failed <- struct{}{}:
		default:
		}
		return errors.New("still failing")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		consumer.consume(ctx, handler)
		close(done)
	}()

	<-failed
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop during retry backoff")
	}
	assert.Empty(t, reader.committedKeys())
}

func TestStartOffset(t *testing.T) {
	assert.Equal(t, kafka.FirstOffset, startOffset(0))
	assert.Equal(t, kafka.FirstOffset, startOffset(kafka.FirstOffset))
	assert.Equal(t, kafka.LastOffset, startOffset(kafka.LastOffset))
}

func TestKafkaConsumer_Close(t *testing.T) {
	t.Run("CloseWithNilReader", func(t *testing.T) {
		consumer := &KafkaConsumer{reader: nil, logger: newTestLogger()}
		require.NoError(t, consumer.Close(), "Close should return nil if reader is nil")
	})

	t.Run("ClosesReader", func(t *testing.T) {
		reader := &fakeReader{}
		consumer := &KafkaConsumer{reader: reader, logger: newTestLogger()}
		require.NoError(t, consumer.Close())
		assert.True(t, reader.closed)
	})
}
