package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"MarketWhisperer/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeting struct {
	Name string `json:"name"`
}

type recordingJob struct {
	mu   sync.Mutex
	seen []string
	fail bool
	done chan struct{}
}

func newRecordingJob(fail bool) *recordingJob {
	return &recordingJob{fail: fail, done: make(chan struct{}, 16)}
}

func (j *recordingJob) Name() string { return "greeter" }
func (j *recordingJob) Type() string { return "greet" }

func (j *recordingJob) Handle(_ context.Context, payload interface{}) error {
	defer func() { j.done <- struct{}{} }()

	g, err := ParsePayload[greeting](payload)
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.seen = append(j.seen, g.Name)
	j.mu.Unlock()
	if j.fail {
		return errors.New("handler failed")
	}
	return nil
}

func (j *recordingJob) wait(t *testing.T) {
	t.Helper()
	select {
	case <-j.done:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not handled")
	}
}

func TestParsePayload(t *testing.T) {
	g, err := ParsePayload[greeting](greeting{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, "a", g.Name)

	g, err = ParsePayload[greeting](json.RawMessage(`{"name":"b"}`))
	require.NoError(t, err)
	assert.Equal(t, "b", g.Name)

	g, err = ParsePayload[greeting](map[string]interface{}{"name": "c"})
	require.NoError(t, err)
	assert.Equal(t, "c", g.Name)

	_, err = ParsePayload[greeting](42)
	assert.Error(t, err)
}

func TestMemoryQueueDeliversMessages(t *testing.T) {
	q := NewMemoryQueue(logger.Nop(), &QueueConfig{Workers: 2, QueueSize: 4})
	job := newRecordingJob(false)
	q.RegisterJob(job)

	assert.ErrorIs(t, q.Enqueue(context.Background(), "greet", greeting{}), ErrNotRunning)

	require.NoError(t, q.Start())
	require.NoError(t, q.Enqueue(context.Background(), "greet", greeting{Name: "ACME"}))
	job.wait(t)

	assert.ErrorIs(t, q.Enqueue(context.Background(), "other", nil), ErrUnknownType)

	require.NoError(t, q.Stop(context.Background()))
	job.mu.Lock()
	defer job.mu.Unlock()
	assert.Equal(t, []string{"ACME"}, job.seen)
}

func TestMemoryQueueReportsFull(t *testing.T) {
	q := NewMemoryQueue(logger.Nop(), &QueueConfig{Workers: 1, QueueSize: 1})
	block := make(chan struct{})
	q.RegisterJob(blockingJob{block: block})
	require.NoError(t, q.Start())
	defer func() {
		close(block)
		_ = q.Stop(context.Background())
	}()

	// the first message may be picked up by the worker; keep pushing until the buffer fills
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = q.Enqueue(context.Background(), "block", nil)
	}
	assert.ErrorIs(t, err, ErrQueueFull)
}

type blockingJob struct{ block chan struct{} }

func (blockingJob) Name() string { return "blocker" }
func (blockingJob) Type() string { return "block" }
func (j blockingJob) Handle(_ context.Context, _ interface{}) error {
	<-j.block
	return nil
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisQueueProducerConsumer(t *testing.T) {
	client := newRedisClient(t)

	producer := NewRedisQueue(logger.Nop(), nil, client, ModeProducerOnly, WithKeyPrefix("t:queue"))
	require.NoError(t, producer.Start())
	defer producer.Stop(context.Background())

	consumer := NewRedisQueue(logger.Nop(), &QueueConfig{Workers: 1}, client, ModeConsumerOnly, WithKeyPrefix("t:queue"))
	job := newRecordingJob(false)
	consumer.RegisterJob(job)
	require.NoError(t, consumer.Start())

	require.NoError(t, producer.Enqueue(context.Background(), "greet", greeting{Name: "ZERO"}))
	job.wait(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, consumer.Stop(ctx))

	job.mu.Lock()
	defer job.mu.Unlock()
	assert.Equal(t, []string{"ZERO"}, job.seen)
}

func TestRedisQueueDeadLettersFailures(t *testing.T) {
	client := newRedisClient(t)

	q := NewRedisQueue(logger.Nop(), &QueueConfig{Workers: 1}, client, ModeProducerConsumer)
	job := newRecordingJob(true)
	q.RegisterJob(job)
	require.NoError(t, q.Start())

	require.NoError(t, q.Enqueue(context.Background(), "greet", greeting{Name: "FAIL"}))
	job.wait(t)

	require.Eventually(t, func() bool {
		msgs, err := q.DeadLetters(context.Background(), 10)
		return err == nil && len(msgs) == 1
	}, 5*time.Second, 20*time.Millisecond)

	msgs, err := q.DeadLetters(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "greet", msgs[0].Type)
	assert.Equal(t, "handler failed", msgs[0].LastError)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Stop(ctx))

	job.mu.Lock()
	defer job.mu.Unlock()
	assert.Len(t, job.seen, 1)
}
