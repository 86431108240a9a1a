package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
)

type jobEnvelope struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// ValkeyQueue persists jobs in Valkey and delivers them to a fixed number of
// consumers, so several instances can share one backlog.
type ValkeyQueue struct {
	client      valkey.Client
	queueKey    string
	consumers   int
	logger      *slog.Logger
	pollTimeout time.Duration

	mu      sync.RWMutex
	handler Handler

	startOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewValkeyQueue constructs a Valkey-backed queue.
func NewValkeyQueue(client valkey.Client, queueKey string, consumers int, logger *slog.Logger) *ValkeyQueue {
	if queueKey == "" {
		queueKey = "outfits:replenish"
	}
	if consumers <= 0 {
		consumers = 2
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ValkeyQueue{
		client:      client,
		queueKey:    queueKey,
		consumers:   consumers,
		logger:      logger.With("component", "queue.valkey"),
		pollTimeout: 5 * time.Second,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetHandler starts the consumer loops that pop jobs and invoke the handler.
func (q *ValkeyQueue) SetHandler(handler Handler) {
	q.mu.Lock()
	q.handler = handler
	q.mu.Unlock()
	if handler == nil {
		return
	}
	q.startOnce.Do(func() {
		for i := 0; i < q.consumers; i++ {
			q.wg.Add(1)
			go q.consume()
		}
	})
}

// Enqueue pushes a job onto the queue.
func (q *ValkeyQueue) Enqueue(ctx context.Context, name string, payload []byte) error {
	encoded, err := encodeEnvelope(name, payload)
	if err != nil {
		return err
	}
	cmd := q.client.B().Lpush().Key(q.queueKey).Element(string(encoded)).Build()
	return q.client.Do(ctx, cmd).Error()
}

// Close stops the consumers, waits for in-flight jobs and releases the
// client. Jobs still in Valkey stay there for the next consumer.
func (q *ValkeyQueue) Close(ctx context.Context) error {
	q.cancel()
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.client.Close()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ValkeyQueue) consume() {
	defer q.wg.Done()
	for q.ctx.Err() == nil {
		resp := q.client.Do(q.ctx, q.client.B().Brpop().Key(q.queueKey).Timeout(q.pollTimeout.Seconds()).Build())
		values, err := resp.ToArray()
		if err != nil {
			if !valkey.IsValkeyNil(err) && q.ctx.Err() == nil {
				q.logger.Warn("valkey queue pop failed", "error", err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(values) < 2 {
			continue
		}
		raw, err := values[1].ToString()
		if err != nil {
			q.logger.Warn("valkey queue payload decode failed", "error", err)
			continue
		}
		name, payload, err := decodeEnvelope([]byte(raw))
		if err != nil {
			q.logger.Warn("valkey queue unmarshal failed", "error", err)
			continue
		}
		q.dispatch(name, payload)
	}
}

func (q *ValkeyQueue) dispatch(name string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("job panicked", "name", name, "panic", r)
		}
	}()
	q.mu.RLock()
	handler := q.handler
	q.mu.RUnlock()
	if handler == nil {
		return
	}
	handler(q.ctx, name, payload)
}

func encodeEnvelope(name string, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		payload = []byte("null")
	}
	return json.Marshal(jobEnvelope{Name: name, Payload: payload})
}

func decodeEnvelope(raw []byte) (string, []byte, error) {
	var env jobEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, err
	}
	return env.Name, env.Payload, nil
}

var _ HandlerQueue = (*ValkeyQueue)(nil)
