package queue

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishWithoutSubscribers(t *testing.T) {
	q := NewInMemoryQueue()
	assert.Error(t, q.Publish("nobody", []byte("{}")))
}

func TestPublishFansOut(t *testing.T) {
	q := NewInMemoryQueue()

	var wg sync.WaitGroup
	wg.Add(2)
	var got [2][]byte
	for i := 0; i < 2; i++ {
		i := i
		require.NoError(t, q.Subscribe("t", func(body []byte) error {
			got[i] = body
			wg.Done()
			return nil
		}))
	}

	require.NoError(t, q.Publish("t", []byte("hello")))
	wg.Wait()

	assert.Equal(t, "hello", string(got[0]))
	assert.Equal(t, "hello", string(got[1]))
}

func TestRetriesUntilSuccess(t *testing.T) {
	q := NewInMemoryQueue()
	q.Backoff = time.Millisecond

	var calls int32
	done := make(chan struct{})
	require.NoError(t, q.Subscribe("t", func(body []byte) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}))

	require.NoError(t, q.Publish("t", nil))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	q := NewInMemoryQueue()
	q.Backoff = time.Millisecond

	var calls int32
	require.NoError(t, q.Subscribe("t", func(body []byte) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("permanent")
	}))
	require.NoError(t, q.Publish("t", nil))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == int32(DefaultMaxRetries+1)
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, DefaultMaxRetries+1, atomic.LoadInt32(&calls))
}

func TestPublishCampaignRun(t *testing.T) {
	q := NewInMemoryQueue()
	got := make(chan string, 1)
	require.NoError(t, q.Subscribe(TopicCampaignRuns, func(body []byte) error {
		got <- string(body)
		return nil
	}))

	require.NoError(t, PublishCampaignRun(q, CampaignRunJob{CampaignID: "c1", Resume: true}))

	select {
	case body := <-got:
		assert.JSONEq(t, `{"campaign_id":"c1","resume":true}`, body)
	case <-time.After(time.Second):
		t.Fatal("no delivery")
	}
}

func TestRetryCountHeader(t *testing.T) {
	assert.Equal(t, 0, retryCount(nil))
	assert.Equal(t, 2, retryCount(map[string]interface{}{retryHeader: int32(2)}))
	assert.Equal(t, 3, retryCount(map[string]interface{}{retryHeader: int64(3)}))
}
