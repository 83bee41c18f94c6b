package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rayhunter-go/rayhunter/internal/config"
)

func TestWorkerDeliversEnabledNotification(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWorker(srv.URL, []config.NotificationKind{config.NotificationWarning})
	w.Notify(Notification{Kind: config.NotificationWarning, Message: "cell downgraded"})

	w.drain(context.Background())
	assert.EqualValues(t, 0, received.Load(), "drain before accept should not have sent anything")

	w.accept(<-w.in)
	w.drain(context.Background())
	assert.EqualValues(t, 1, received.Load())

	st := w.statuses[config.NotificationWarning]
	require.NotNil(t, st)
	assert.False(t, st.needsSending)
	assert.Zero(t, st.failedSinceLastSuccess)
}

func TestWorkerSkipsDisabledKind(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
	}))
	defer srv.Close()

	w := NewWorker(srv.URL, nil)
	w.accept(Notification{Kind: config.NotificationWarning, Message: "hi"})
	w.drain(context.Background())

	assert.EqualValues(t, 0, received.Load())
	assert.Empty(t, w.statuses)
}

func TestWorkerBacksOffAfterFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWorker(srv.URL, []config.NotificationKind{config.NotificationWarning})
	w.accept(Notification{Kind: config.NotificationWarning, Message: "hi"})
	w.attemptSend(context.Background(), config.NotificationWarning)

	st := w.statuses[config.NotificationWarning]
	require.NotNil(t, st)
	assert.EqualValues(t, 1, st.failedSinceLastSuccess)
	assert.True(t, st.needsSending)

	// Immediately retrying is a no-op: the 2s backoff hasn't elapsed.
	w.attemptSend(context.Background(), config.NotificationWarning)
	assert.EqualValues(t, 1, st.failedSinceLastSuccess)
}

func TestBackoffCapsAt256Seconds(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, 256*time.Second, backoff(8))
	assert.Equal(t, 256*time.Second, backoff(20))
}

func TestDebounceSuppressesRepeatWithinWindow(t *testing.T) {
	w := NewWorker("http://example.invalid", []config.NotificationKind{config.NotificationWarning})
	w.accept(Notification{Kind: config.NotificationWarning, Message: "first", Debounce: time.Hour})
	w.statuses[config.NotificationWarning].lastSent = time.Now()
	w.statuses[config.NotificationWarning].needsSending = false

	w.accept(Notification{Kind: config.NotificationWarning, Message: "second", Debounce: time.Hour})
	assert.False(t, w.statuses[config.NotificationWarning].needsSending)
	assert.Equal(t, "first", w.statuses[config.NotificationWarning].message)
}
