package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"match-mate/observability"
)

// TelemetryWorker periodically logs the delivery counters together with the
// CPU and resident memory of the server process itself.
type TelemetryWorker struct {
	log            *slog.Logger
	metrics        *observability.Metrics
	metricInterval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, metrics *observability.Metrics, metricInterval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{
		log:            log,
		metrics:        metrics,
		metricInterval: metricInterval,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	self, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		case <-ticker.C:
			w.report(self)
		}
	}
}

func (w *TelemetryWorker) report(self *process.Process) {
	attrs := []any{}
	for name, value := range w.metrics.Snapshot() {
		attrs = append(attrs, name, value)
	}

	cpu, err := self.CPUPercent()
	if err != nil {
		w.log.Debug("Error while finding process cpu usage", "err", err)
	} else {
		attrs = append(attrs, "cpu_percent", cpu)
	}

	mem, err := self.MemoryInfo()
	if err != nil {
		w.log.Debug("Error while finding process ram usage", "err", err)
	} else {
		attrs = append(attrs, "rss_bytes", mem.RSS)
	}

	w.log.Info("Telemetry", attrs...)
}
