// Package daemon runs the periodic scan/compute/publish cycle and serves
// the HTTP surface around it.
package daemon

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yairfalse/leima/compliance"
	"github.com/yairfalse/leima/exporter"
	"github.com/yairfalse/leima/telemetry"
	"github.com/yairfalse/leima/types"
)

// ErrScanInProgress is returned by TriggerScan when a cycle is already
// running. A rejected trigger does not queue.
var ErrScanInProgress = errors.New("scan already in progress")

// ScanRunner runs one full scan over the account matrix.
type ScanRunner interface {
	Run(ctx context.Context) (types.ScanResult, error)
}

// State is a point-in-time view of the scheduler, read by the health
// handlers.
type State struct {
	Scanning     bool
	Ready        bool
	LastScanTime time.Time
	LastError    string
}

// Config holds daemon settings.
type Config struct {
	Interval     time.Duration
	RequiredTags []string
}

// Daemon coordinates scan cycles: at most one scan runs at a time, timer
// ticks and manual triggers funnel through the same guard, and the metrics
// registry only ever receives complete snapshots.
type Daemon struct {
	runner   ScanRunner
	registry *exporter.Registry
	interval time.Duration
	required []string

	scanning atomic.Bool
	trigger  chan struct{}

	mu           sync.Mutex
	ready        bool
	lastScanTime time.Time
	lastError    string
}

// New creates a daemon. The registry stays empty until the first successful
// cycle publishes into it.
func New(cfg Config, runner ScanRunner, registry *exporter.Registry) *Daemon {
	return &Daemon{
		runner:   runner,
		registry: registry,
		interval: cfg.Interval,
		required: cfg.RequiredTags,
		trigger:  make(chan struct{}, 1),
	}
}

// Run executes the scheduling loop until the context is cancelled. The
// first scan runs immediately. The interval wait starts when a cycle ends,
// not when it begins, so a scan running longer than the interval is
// followed by a full idle interval rather than an immediate rescan. A
// manual trigger restarts the wait the same way.
func (d *Daemon) Run(ctx context.Context) error {
	d.runCycle(ctx)

	timer := time.NewTimer(d.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler stopping")
			return nil
		case <-timer.C:
			d.runCycle(ctx)
		case <-d.trigger:
			d.runCycle(ctx)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		timer.Reset(d.interval)
	}
}

// TriggerScan requests an immediate scan. It returns ErrScanInProgress when
// a cycle is running or already queued; an accepted trigger is asynchronous
// and does not wait for the cycle to finish.
func (d *Daemon) TriggerScan() error {
	if d.scanning.Load() {
		return ErrScanInProgress
	}
	select {
	case d.trigger <- struct{}{}:
		return nil
	default:
		return ErrScanInProgress
	}
}

// State returns the current scheduler state.
func (d *Daemon) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return State{
		Scanning:     d.scanning.Load(),
		Ready:        d.ready,
		LastScanTime: d.lastScanTime,
		LastError:    d.lastError,
	}
}

// runCycle executes scan, compute and publish in order. On any failure the
// previous snapshot stays in the registry untouched and only lastError is
// recorded; a partial or empty snapshot is never published.
func (d *Daemon) runCycle(ctx context.Context) {
	if !d.scanning.CompareAndSwap(false, true) {
		log.Warn().Msg("scan already in progress, skipping this cycle")
		return
	}
	defer d.scanning.Store(false)

	ctx, span := telemetry.StartScanSpan(ctx)
	defer span.End()

	start := time.Now()
	log.Info().Msg("starting scan cycle")

	result, err := d.runner.Run(ctx)
	if err != nil {
		d.failCycle(ctx, span, start, err)
		return
	}
	if ctx.Err() != nil {
		d.failCycle(ctx, span, start, ctx.Err())
		return
	}

	snap := compliance.Compute(result, d.required)
	snap.ScannedAt = time.Now()
	snap.ScanDuration = time.Since(start)
	d.registry.Publish(snap)

	d.mu.Lock()
	d.ready = true
	d.lastScanTime = snap.ScannedAt
	d.lastError = ""
	d.mu.Unlock()

	discovered := countScanned(result)
	telemetry.RecordScan(ctx, snap.ScanDuration, discovered, true)
	span.SetStatus(codes.Ok, "scan cycle complete")

	log.Info().
		Int("resources", discovered).
		Int("accounts", len(result)).
		Dur("duration", snap.ScanDuration).
		Dur("next_in", d.interval).
		Msg("scan cycle complete")
}

func (d *Daemon) failCycle(ctx context.Context, span trace.Span, start time.Time, err error) {
	d.mu.Lock()
	d.lastError = err.Error()
	d.mu.Unlock()

	span.RecordError(err)
	span.SetStatus(codes.Error, "scan cycle failed")
	telemetry.RecordScan(ctx, time.Since(start), 0, false)
	log.Error().Err(err).Msg("scan cycle failed, keeping previous snapshot")
}

func countScanned(result types.ScanResult) int {
	n := 0
	for _, acct := range result {
		for _, bucket := range acct.Regions {
			n += bucket.Total
		}
	}
	return n
}
