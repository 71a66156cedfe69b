// Package metrics counts expansion sessions for Prometheus.
//
// A Collector is registered as an expand.Observer. The CLI runs once and
// exits, so counters are exported with the node_exporter textfile convention
// instead of being scraped.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/minlog/errs"
	"github.com/arloliu/minlog/expand"
)

const namespace = "minlog"

// Collector accumulates per-session counters in its own registry.
type Collector struct {
	registry *prometheus.Registry

	sessions     *prometheus.CounterVec
	records      prometheus.Counter
	skipped      prometheus.Counter
	reserved     prometheus.Counter
	formats      prometheus.Counter
	warnings     *prometheus.CounterVec
	bytesRead    prometheus.Counter
	bytesWritten prometheus.Counter
}

var _ expand.Observer = (*Collector)(nil)

// NewCollector creates a Collector with all series registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Expansion sessions by outcome (done, or the kind of the fatal error).",
		}, []string{"outcome"}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records written to outputs.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Records dropped after a substitution failure.",
		}),
		reserved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reserved_records_total",
			Help:      "Written records using a reserved format id.",
		}),
		formats: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "formats_registered_total",
			Help:      "Format ids registered across sessions.",
		}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Recovered conditions by kind.",
		}, []string{"kind"}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_bytes_total",
			Help:      "Bytes consumed from decompressed inputs.",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "written_bytes_total",
			Help:      "Bytes of expanded text produced.",
		}),
	}

	c.registry.MustRegister(
		c.sessions, c.records, c.skipped, c.reserved, c.formats,
		c.warnings, c.bytesRead, c.bytesWritten,
	)

	return c
}

// SessionFinished implements expand.Observer.
func (c *Collector) SessionFinished(summary expand.Summary, err error) {
	c.sessions.WithLabelValues(outcome(err)).Inc()
	c.records.Add(float64(summary.Records))
	c.skipped.Add(float64(summary.Skipped))
	c.reserved.Add(float64(summary.Reserved))
	c.formats.Add(float64(summary.Formats()))
	c.bytesRead.Add(float64(summary.BytesRead))
	c.bytesWritten.Add(float64(summary.BytesWritten))

	for _, w := range summary.Warnings {
		c.warnings.WithLabelValues(errs.KindName(w)).Inc()
	}
}

// InputFailed counts a file that could not be opened or set up for expansion.
func (c *Collector) InputFailed() {
	c.sessions.WithLabelValues("open_failed").Inc()
}

// Registry exposes the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes every series to path in the text exposition format.
// The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

func outcome(err error) string {
	if err == nil {
		return "done"
	}

	return errs.KindName(err)
}
