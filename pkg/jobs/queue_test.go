package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueReportsOutcomes(t *testing.T) {
	var mu sync.Mutex
	outcomes := map[string]int{}
	handled := make(chan struct{}, 8)

	handler := func(ctx context.Context, job Job) error {
		if job.Type == "delivery-broken" {
			return errors.New("delivery failed")
		}
		return nil
	}
	q := NewQueue("outcomes", handler, QueueConfig{
		Workers:    1,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
		OnOutcome: func(queue, jobType string, attempt int, err error) {
			mu.Lock()
			if err != nil {
				outcomes[jobType+":failure"]++
			} else {
				outcomes[jobType+":success"]++
			}
			mu.Unlock()
			handled <- struct{}{}
		},
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "delivery"}))
	require.NoError(t, q.Enqueue(Job{ID: "2", Type: "delivery-broken"}))

	for i := 0; i < 2; i++ {
		select {
		case <-handled:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for job outcomes")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, outcomes["delivery:success"])
	assert.GreaterOrEqual(t, outcomes["delivery-broken:failure"], 1)
}
