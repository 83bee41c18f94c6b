// Package notify runs the background worker that posts warning and
// low-battery notifications to a configured ntfy-compatible webhook (spec
// §5, §6 "ntfy_url", "enabled_notifications"). The retry discipline —
// per-category debounce, exponential backoff capped at 256s, reset on
// success — mirrors the original daemon's notifications.rs worker loop.
package notify

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/rayhunter-go/rayhunter/internal/config"
	"github.com/rayhunter-go/rayhunter/internal/constants"
	"github.com/rayhunter-go/rayhunter/internal/logging"
)

// Notification is one request to notify, optionally debounced so repeated
// warnings of the same kind within a window collapse to one send.
type Notification struct {
	Kind     config.NotificationKind
	Message  string
	Debounce time.Duration
}

type status struct {
	message                string
	needsSending           bool
	lastSent               time.Time
	lastAttempt            time.Time
	failedSinceLastSuccess uint
}

// Worker batches incoming Notifications by kind and drains them to a
// webhook on a fixed poll interval, applying the enabled-notification
// allowlist and per-kind debounce before anything is ever queued to send.
type Worker struct {
	url     string
	enabled map[config.NotificationKind]bool

	client *retryablehttp.Client
	logger *logging.Logger

	in chan Notification

	mu       sync.Mutex
	statuses map[config.NotificationKind]*status
}

// NewWorker builds a Worker bound to url (empty disables sending; incoming
// notifications are discarded) and the set of kinds the configuration
// enables.
func NewWorker(url string, enabledKinds []config.NotificationKind) *Worker {
	client := retryablehttp.NewClient()
	client.RetryMax = 0 // backoff between attempts is driven per-kind below
	client.Logger = nil

	enabled := make(map[config.NotificationKind]bool, len(enabledKinds))
	for _, k := range enabledKinds {
		enabled[k] = true
	}

	return &Worker{
		url:      url,
		enabled:  enabled,
		client:   client,
		logger:   logging.Default(),
		in:       make(chan Notification, 10),
		statuses: make(map[config.NotificationKind]*status),
	}
}

// Notify enqueues a notification for the worker to drain. It never blocks
// the caller for long: the channel is sized well past any realistic burst,
// and a full channel drops the notification with a logged warning rather
// than stalling the capture pipeline.
func (w *Worker) Notify(n Notification) {
	select {
	case w.in <- n:
	default:
		w.logger.Warn("notification dropped, worker backlog full", "kind", n.Kind)
	}
}

// Run drains queued notifications and attempts delivery on a fixed poll
// interval until ctx is cancelled. With no url configured it silently
// discards everything, matching the original daemon's behavior.
func (w *Worker) Run(ctx context.Context) error {
	if w.url == "" {
		return w.discardLoop(ctx)
	}

	ticker := time.NewTicker(constants.NotificationRetryInitial)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-w.in:
			w.accept(n)
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) discardLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.in:
		}
	}
}

func (w *Worker) accept(n Notification) {
	if !w.enabled[n.Kind] {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	st, ok := w.statuses[n.Kind]
	if !ok {
		st = &status{}
		w.statuses[n.Kind] = st
	}
	if n.Debounce > 0 && !st.lastSent.IsZero() && time.Since(st.lastSent) < n.Debounce {
		return
	}
	st.message = n.Message
	st.needsSending = true
}

// drain attempts delivery of every pending notification whose backoff has
// elapsed, exactly as notifications.rs's send loop does.
func (w *Worker) drain(ctx context.Context) {
	w.mu.Lock()
	pending := make([]config.NotificationKind, 0, len(w.statuses))
	for kind, st := range w.statuses {
		if st.needsSending {
			pending = append(pending, kind)
		}
	}
	w.mu.Unlock()

	for _, kind := range pending {
		w.attemptSend(ctx, kind)
	}
}

func (w *Worker) attemptSend(ctx context.Context, kind config.NotificationKind) {
	w.mu.Lock()
	st := w.statuses[kind]
	if st == nil || !st.needsSending {
		w.mu.Unlock()
		return
	}
	if !st.lastAttempt.IsZero() {
		wait := backoff(st.failedSinceLastSuccess)
		if time.Since(st.lastAttempt) < wait {
			w.mu.Unlock()
			return
		}
	}
	message := st.message
	w.mu.Unlock()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewBufferString(message))
	success := false
	if err == nil {
		resp, sendErr := w.client.Do(req)
		if sendErr == nil {
			success = resp.StatusCode >= 200 && resp.StatusCode < 300
			resp.Body.Close()
		} else {
			w.logger.Warn("notification delivery failed", "kind", kind, "error", sendErr)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if success {
		st.lastSent = time.Now()
		st.needsSending = false
		st.failedSinceLastSuccess = 0
	} else {
		st.failedSinceLastSuccess++
		st.lastAttempt = time.Now()
	}
}

// backoff computes 2^min(failures, 8) seconds, the same cap notifications.rs
// uses (spec §5, capped at NotificationRetryMax = 256s).
func backoff(failures uint) time.Duration {
	if failures > 8 {
		failures = 8
	}
	d := time.Duration(1) << failures * time.Second
	if d > constants.NotificationRetryMax {
		return constants.NotificationRetryMax
	}
	return d
}
