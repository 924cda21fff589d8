// Package watch runs recurring capture jobs from a jobs file, skipping
// frames the differ reports as unchanged.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/breeze-rmm/screengrab/internal/capture"
	"github.com/breeze-rmm/screengrab/internal/config"
	"github.com/breeze-rmm/screengrab/internal/logging"
	"github.com/breeze-rmm/screengrab/internal/upload"
	"github.com/breeze-rmm/screengrab/internal/workerpool"
)

var log = logging.L("watch")

const (
	// minInterval floors job cadence. Captures monopolize the display's
	// duplication interface, so sub-second schedules degrade every other
	// consumer on the machine.
	minInterval = time.Second

	captureTimeout  = 30 * time.Second
	deliveryTimeout = 60 * time.Second
	shutdownGrace   = 10 * time.Second
)

// grabFn is a package variable so tests can substitute the GPU-backed
// implementation.
var grabFn = capture.Grab

// Stats are cumulative counters across all jobs.
type Stats struct {
	Captured       uint64
	CaptureFailed  uint64
	Skipped        uint64
	Delivered      uint64
	DeliveryFailed uint64
	Pruned         uint64
}

// Manager schedules capture jobs. Each job runs on its own ticker and
// keeps its own frame differ; deliveries share one bounded worker pool
// so a slow sink cannot pile up goroutines.
type Manager struct {
	cfg      *config.Config
	jobs     []config.Job
	sink     upload.Sink
	local    upload.Sink
	hostname string

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	pool    *workerpool.Pool
	wg      sync.WaitGroup

	captured       atomic.Uint64
	captureFailed  atomic.Uint64
	skipped        atomic.Uint64
	delivered      atomic.Uint64
	deliveryFailed atomic.Uint64
	pruned         atomic.Uint64
}

// New creates a Manager. sink receives frames from jobs marked for
// upload; nil means every job delivers to the local output directory.
func New(cfg *config.Config, jobs []config.Job, sink upload.Sink) *Manager {
	hostname, _ := os.Hostname()
	local := upload.NewLocalSink(cfg.OutputDir)
	if sink == nil {
		sink = local
	}
	return &Manager{
		cfg:      cfg,
		jobs:     jobs,
		sink:     sink,
		local:    local,
		hostname: hostname,
	}
}

// Start begins all job schedules.
func (m *Manager) Start() error {
	if len(m.jobs) == 0 {
		return errors.New("no watch jobs configured")
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("watch manager already started")
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.pool = workerpool.New(m.cfg.WatchWorkers, m.cfg.WatchQueueSize)
	m.mu.Unlock()

	log.Info("watch manager started", "jobs", len(m.jobs), "sink", m.sink.Name())
	for _, job := range m.jobs {
		m.wg.Add(1)
		go m.runJob(job, m.stopCh)
	}
	return nil
}

// Stop halts the schedules and drains in-flight deliveries.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stopCh := m.stopCh
	pool := m.pool
	m.stopCh = nil
	m.mu.Unlock()

	log.Info("stopping watch manager")
	close(stopCh)
	m.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	pool.Shutdown(ctx)

	st := m.Stats()
	log.Info("watch manager stopped",
		"captured", st.Captured,
		"skipped", st.Skipped,
		"delivered", st.Delivered)
}

// Stats returns cumulative counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Captured:       m.captured.Load(),
		CaptureFailed:  m.captureFailed.Load(),
		Skipped:        m.skipped.Load(),
		Delivered:      m.delivered.Load(),
		DeliveryFailed: m.deliveryFailed.Load(),
		Pruned:         m.pruned.Load(),
	}
}

func (m *Manager) runJob(job config.Job, stopCh <-chan struct{}) {
	defer m.wg.Done()

	interval := job.Interval(time.Duration(m.cfg.WatchIntervalSeconds) * time.Second)
	if interval < minInterval {
		interval = minInterval
	}

	jobLog := log.With("job", job.Name)
	jobLog.Info("watch job started",
		"interval", interval,
		"region", job.Region,
		"upload", job.Upload,
		"skipUnchanged", job.SkipUnchanged)

	differ := capture.NewFrameDiffer()
	m.tick(job, differ, jobLog)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			jobLog.Debug("watch job stopped")
			return
		case <-ticker.C:
			m.tick(job, differ, jobLog)
		}
	}
}

func (m *Manager) tick(job config.Job, differ *capture.FrameDiffer, jobLog *slog.Logger) {
	quality := job.Quality
	if quality == 0 {
		quality = m.cfg.Quality
	}

	ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
	defer cancel()

	res, err := grabFn(ctx, capture.Request{
		Region: capture.Region{
			X:      job.Region.X,
			Y:      job.Region.Y,
			Width:  job.Region.Width,
			Height: job.Region.Height,
		},
		Quality: quality,
	})
	if err != nil {
		m.captureFailed.Add(1)
		jobLog.Warn("capture failed", "error", err)
		return
	}
	m.captured.Add(1)

	if job.SkipUnchanged && !differ.Changed(res.Data) {
		m.skipped.Add(1)
		jobLog.Debug("frame unchanged, skipping delivery")
		return
	}

	sink := m.local
	if job.Upload {
		sink = m.sink
	}

	key := upload.Key(m.cfg.UploadPrefix, m.hostname, job.Name, time.Now())
	data := res.Data
	if !m.pool.Submit(func() { m.deliver(sink, job, key, data, jobLog) }) {
		m.deliveryFailed.Add(1)
		jobLog.Warn("delivery queue full, frame dropped", "key", key)
	}
}

func (m *Manager) deliver(sink upload.Sink, job config.Job, key string, data []byte, jobLog *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	if err := upload.PutBytes(ctx, sink, key, data, "image/jpeg"); err != nil {
		m.deliveryFailed.Add(1)
		jobLog.Warn("delivery failed", "sink", sink.Name(), "key", key, "error", err)
		return
	}
	m.delivered.Add(1)
	jobLog.Debug("frame delivered", "sink", sink.Name(), "key", key, "bytes", len(data))

	if job.Retention > 0 {
		m.sweepRetention(ctx, sink, job, jobLog)
	}
}

// sweepRetention prunes the job's oldest captures beyond its retention
// count. Keys sort lexically in capture order, so the slice head is
// always the oldest.
func (m *Manager) sweepRetention(ctx context.Context, sink upload.Sink, job config.Job, jobLog *slog.Logger) {
	prefix := path.Join(m.cfg.UploadPrefix, m.hostname)
	objects, err := sink.List(ctx, prefix)
	if err != nil {
		jobLog.Warn("retention list failed", "sink", sink.Name(), "error", err)
		return
	}

	var keys []string
	for _, o := range objects {
		if isJobCapture(job.Name, o.Key) {
			keys = append(keys, o.Key)
		}
	}
	if len(keys) <= job.Retention {
		return
	}

	for _, key := range keys[:len(keys)-job.Retention] {
		if err := sink.Delete(ctx, key); err != nil {
			jobLog.Warn("retention delete failed", "sink", sink.Name(), "key", key, "error", err)
			continue
		}
		m.pruned.Add(1)
		jobLog.Debug("old capture pruned", "key", key)
	}
}

// isJobCapture reports whether key names a capture written by the
// named job. The stamp length check keeps jobs whose names prefix one
// another ("top", "top-bar") out of each other's sweeps.
func isJobCapture(name, key string) bool {
	base := path.Base(key)
	if !strings.HasPrefix(base, name+"-") {
		return false
	}
	rest := strings.TrimPrefix(base, name+"-")
	return len(rest) == len("20060102-150405.jpg") && strings.HasSuffix(rest, ".jpg")
}
