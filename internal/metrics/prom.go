package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromMetrics records checklist activity as Prometheus counters and a
// scan duration histogram.
type PromMetrics struct {
	scans        prometheus.Counter
	scanDuration prometheus.Histogram
	due          prometheus.Counter
	sent         prometheus.Counter
	failed       prometheus.Counter
	commands     *prometheus.CounterVec
}

// NewPromMetrics creates the collectors and registers them with reg.
func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	m := &PromMetrics{
		scans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checklist_scan_passes_total",
			Help: "Number of completed reminder scan passes",
		}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "checklist_scan_duration_seconds",
			Help:    "Duration of reminder scan passes including deliveries",
			Buckets: prometheus.DefBuckets,
		}),
		due: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checklist_reminders_due_total",
			Help: "Number of reminders found due inside the lookahead window",
		}),
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checklist_reminders_sent_total",
			Help: "Number of reminders delivered",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checklist_reminders_failed_total",
			Help: "Number of reminder deliveries that failed",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checklist_commands_total",
			Help: "Number of handled commands by name and outcome",
		}, []string{"command", "outcome"}),
	}
	reg.MustRegister(m.scans, m.scanDuration, m.due, m.sent, m.failed, m.commands)
	return m
}

func (m *PromMetrics) ScanCompleted(d time.Duration) {
	m.scans.Inc()
	m.scanDuration.Observe(d.Seconds())
}
func (m *PromMetrics) RemindersDue(n int) {
	m.due.Add(float64(n))
}
func (m *PromMetrics) ReminderSent() {
	m.sent.Inc()
}
func (m *PromMetrics) ReminderFailed() {
	m.failed.Inc()
}
func (m *PromMetrics) CommandHandled(name string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.commands.WithLabelValues(name, outcome).Inc()
}
