package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nibzard/checklist-go/internal/metrics"
	"github.com/nibzard/checklist-go/internal/parallel"
	"github.com/nibzard/checklist-go/internal/todo"
)

// Defaults for a Scanner.
const (
	DefaultInterval  = 60 * time.Second
	DefaultLookahead = 15 * time.Minute
	DefaultWorkers   = 4
	DefaultTimeout   = 10 * time.Second
)

// Source provides a read-only copy of every user's tasks.
type Source interface {
	Snapshot() map[string][]todo.Task
}

// Scanner periodically looks for tasks that fall due and notifies their
// owners. Each (user, task, due) is delivered at most once per process.
type Scanner struct {
	source    Source
	notifier  Notifier
	interval  time.Duration
	lookahead time.Duration
	workers   int
	timeout   time.Duration
	logger    *log.Logger
	metrics   metrics.Recorder
	now       func() time.Time

	mu   sync.Mutex
	sent map[string]time.Time
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithInterval sets the time between scan passes.
func WithInterval(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLookahead sets how far ahead of now a due time triggers a reminder.
func WithLookahead(d time.Duration) Option {
	return func(s *Scanner) {
		if d >= 0 {
			s.lookahead = d
		}
	}
}

// WithWorkers bounds the number of concurrent deliveries.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithTimeout bounds a single delivery.
func WithTimeout(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(s *Scanner) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Scanner reading from source and delivering through notifier.
func New(source Source, notifier Notifier, opts ...Option) *Scanner {
	s := &Scanner{
		source:    source,
		notifier:  notifier,
		interval:  DefaultInterval,
		lookahead: DefaultLookahead,
		workers:   DefaultWorkers,
		timeout:   DefaultTimeout,
		logger:    log.Default(),
		metrics:   metrics.Nop{},
		now:       time.Now,
		sent:      make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PassResult summarises one scan pass.
type PassResult struct {
	ID       string
	Due      int
	Skipped  int
	Sent     int
	Failed   int
	Duration time.Duration
}

// Run performs a pass immediately and then one per interval until ctx is
// cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.Info("reminder scanner started", "interval", s.interval, "lookahead", s.lookahead)

	s.Scan(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder scanner stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Scan(ctx)
		}
	}
}

// Scan performs a single pass. Delivery failures are logged and counted;
// they never abort the pass and are not retried.
func (s *Scanner) Scan(ctx context.Context) PassResult {
	start := time.Now()
	now := s.now()
	result := PassResult{ID: uuid.NewString()}
	logger := s.logger.With("pass", result.ID)

	due := Due(s.source.Snapshot(), now, s.lookahead)
	pending := s.claim(due, now)
	result.Due = len(due)
	result.Skipped = len(due) - len(pending)
	s.metrics.RemindersDue(len(pending))

	if len(pending) > 0 {
		pool := parallel.NewWorkerPool(ctx, s.workers)
		for _, r := range pending {
			r := r
			pool.Submit(func(ctx context.Context) error {
				ctx, cancel := context.WithTimeout(ctx, s.timeout)
				defer cancel()
				return s.notifier.Notify(ctx, r)
			})
		}

		for _, jr := range pool.Wait() {
			r := pending[jr.Index]
			if jr.Error != nil {
				result.Failed++
				s.metrics.ReminderFailed()
				logger.Error("reminder delivery failed", "user", r.UserID, "task", r.Task, "due", r.Due, "err", jr.Error)
				continue
			}
			result.Sent++
			s.metrics.ReminderSent()
			logger.Debug("reminder sent", "user", r.UserID, "task", r.Task, "took", jr.Duration)
		}
	}

	result.Duration = time.Since(start)
	s.metrics.ScanCompleted(result.Duration)
	if result.Due > 0 {
		logger.Info("scan pass complete", "due", result.Due, "sent", result.Sent, "failed", result.Failed, "skipped", result.Skipped)
	} else {
		logger.Debug("scan pass complete", "due", 0)
	}
	return result
}

// claim drops expired entries from the sent set, then marks and returns
// the reminders that have not been delivered before.
func (s *Scanner) claim(due []Reminder, now time.Time) []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, at := range s.sent {
		if at.Before(now) {
			delete(s.sent, key)
		}
	}

	pending := make([]Reminder, 0, len(due))
	for _, r := range due {
		key := r.key()
		if _, ok := s.sent[key]; ok {
			continue
		}
		s.sent[key] = r.DueAt
		pending = append(pending, r)
	}
	return pending
}
