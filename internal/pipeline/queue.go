package pipeline

import (
	"sync"

	"github.com/rayhunter-go/rayhunter/internal/logging"
	"github.com/rayhunter-go/rayhunter/internal/store"
)

// AnalysisQueue serializes on-demand re-analysis requests behind a single
// worker, so the HTTP surface can answer GET /api/analysis with exactly
// one running name and an ordered queue behind it (spec §6).
type AnalysisQueue struct {
	mu      sync.Mutex
	running string
	queued  []string

	task  *AnalysisTask
	store *store.Store

	logger *logging.Logger
	work   chan string
}

// NewAnalysisQueue starts the queue's worker goroutine, bound to task and
// store for the lifetime of the process.
func NewAnalysisQueue(task *AnalysisTask, st *store.Store) *AnalysisQueue {
	q := &AnalysisQueue{
		task:   task,
		store:  st,
		logger: logging.Default(),
		work:   make(chan string, 256),
	}
	go q.loop()
	return q
}

// Enqueue requests analysis of the named entry, a no-op if it's already
// running or already queued.
func (q *AnalysisQueue) Enqueue(name string) {
	q.mu.Lock()
	if q.running == name {
		q.mu.Unlock()
		return
	}
	for _, n := range q.queued {
		if n == name {
			q.mu.Unlock()
			return
		}
	}
	q.queued = append(q.queued, name)
	q.mu.Unlock()
	q.work <- name
}

// Status reports the currently running name (empty if idle) and the
// ordered queue behind it.
func (q *AnalysisQueue) Status() (running string, queued []string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.queued))
	copy(out, q.queued)
	return q.running, out
}

func (q *AnalysisQueue) loop() {
	for name := range q.work {
		q.mu.Lock()
		q.popQueued(name)
		q.running = name
		q.mu.Unlock()

		if idx, _, ok := q.store.EntryForName(name); ok {
			if err := q.task.Run(idx); err != nil {
				q.logger.Error("queued analysis failed", "name", name, "error", err)
			}
		}

		q.mu.Lock()
		q.running = ""
		q.mu.Unlock()
	}
}

func (q *AnalysisQueue) popQueued(name string) {
	for i, n := range q.queued {
		if n == name {
			q.queued = append(q.queued[:i], q.queued[i+1:]...)
			return
		}
	}
}
