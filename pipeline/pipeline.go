package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"derivflow/config"
	"derivflow/logger"
	"derivflow/models"
	"derivflow/processor"
	"derivflow/schedule"
	"derivflow/writer"
)

// Fetcher is the provider client surface the runner needs.
type Fetcher interface {
	Fetch(ctx context.Context, src config.SourceConfig) ([]byte, error)
}

// Uploader mirrors a written snapshot partition to remote storage.
type Uploader interface {
	Upload(ctx context.Context, sourceKey string, day time.Weekday, captured time.Time, data []byte) error
}

// Runner drives the poll loop: gate check, per-source fetch/normalize/filter,
// then the sinks. Sources run as one task each with a join barrier; a
// failure or panic in one never aborts its siblings.
type Runner struct {
	config     *config.Config
	client     Fetcher
	normalizer *processor.Normalizer
	window     *schedule.Window
	boundary   *schedule.ResetBoundary
	reset      *writer.WeeklyReset
	clock      schedule.Clock
	snapshots  *writer.SnapshotWriter
	table      *writer.TableWriter
	mirror     Uploader
	expiryDay  time.Weekday
	log        *logger.Log
}

// NewRunner wires the pipeline from configuration and already-constructed
// sinks. The table writer and mirror may be nil when those sinks are
// disabled.
func NewRunner(cfg *config.Config, client Fetcher, snapshots *writer.SnapshotWriter, table *writer.TableWriter, mirror Uploader, clock schedule.Clock) (*Runner, error) {
	window, err := schedule.NewWindow(cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to build trading window: %w", err)
	}
	boundary, err := schedule.NewResetBoundary(cfg.Reset)
	if err != nil {
		return nil, fmt.Errorf("failed to build reset boundary: %w", err)
	}
	expiryDay, ok := config.ParseWeekday(cfg.Expiry.Weekday)
	if !ok {
		return nil, fmt.Errorf("unknown expiry weekday %q", cfg.Expiry.Weekday)
	}

	return &Runner{
		config:     cfg,
		client:     client,
		normalizer: processor.NewNormalizer(),
		window:     window,
		boundary:   boundary,
		reset:      writer.NewWeeklyReset(snapshots, cfg.Sources, cfg.Window),
		clock:      clock,
		snapshots:  snapshots,
		table:      table,
		mirror:     mirror,
		expiryDay:  expiryDay,
		log:        logger.GetLogger(),
	}, nil
}

// Run polls until the context is cancelled. A cycle always runs to
// completion; cancellation is observed between cycles and inside the
// bounded sleeps and network calls.
func (r *Runner) Run(ctx context.Context) error {
	log := r.log.WithComponent("pipeline")
	log.WithFields(logger.Fields{
		"sources":  len(r.config.Sources),
		"interval": r.config.Poll.Interval,
	}).Info("pipeline started")

	for {
		select {
		case <-ctx.Done():
			log.Info("pipeline stopped")
			return ctx.Err()
		default:
		}

		r.RunCycle(ctx)
		r.clock.Sleep(ctx, r.config.Poll.Interval)
	}
}

// RunCycle executes one poll cycle: the weekly reset side check, the window
// gate, then every source in parallel behind a join barrier.
func (r *Runner) RunCycle(ctx context.Context) {
	now := r.clock.Now()
	log := r.log.WithComponent("pipeline")

	if r.boundary.Due(now) {
		r.reset.Run(now)
	}

	if !r.window.IsOpen(now) {
		log.WithFields(logger.Fields{"now": now.Format(time.RFC3339)}).Debug("trading window closed, skipping cycle")
		return
	}

	cycleID := uuid.New().String()
	cycleLog := log.WithFields(logger.Fields{"cycle_id": cycleID})
	start := time.Now()

	var wg sync.WaitGroup
	for _, src := range r.config.Sources {
		wg.Add(1)
		go func(src config.SourceConfig) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					cycleLog.WithFields(logger.Fields{
						"source": src.Key,
						"panic":  fmt.Sprint(rec),
					}).Error("source task panicked")
				}
			}()
			r.runSource(ctx, cycleID, src, now)
		}(src)
	}
	wg.Wait()

	logger.LogPerformanceEntry(cycleLog, "pipeline", "cycle", time.Since(start), logger.Fields{
		"sources": len(r.config.Sources),
	})
}

// runSource carries one source through fetch, normalize, expiry filter,
// derived value, and the sinks. Any failure skips the source for this cycle;
// the next poll is the retry.
func (r *Runner) runSource(ctx context.Context, cycleID string, src config.SourceConfig, now time.Time) {
	log := r.log.WithComponent("pipeline").WithFields(logger.Fields{
		"cycle_id": cycleID,
		"source":   src.Key,
	})

	raw, err := r.client.Fetch(ctx, src)
	if err != nil {
		log.WithError(err).Warn("fetch failed, skipping source for this cycle")
		return
	}

	rows, err := r.normalizer.Normalize(src, raw, now)
	if err != nil {
		log.WithError(err).Warn("payload undecodable, skipping source for this cycle")
		return
	}
	if len(rows) == 0 {
		log.Warn("payload yielded no rows")
		return
	}

	expiry, ok := processor.SelectExpiry(src, rows, now, r.expiryDay)
	if !ok {
		log.Warn("no expiry date observed in payload")
		return
	}
	filtered := processor.FilterByExpiry(rows, expiry)
	if len(filtered) == 0 {
		log.WithFields(logger.Fields{"expiry": expiry}).Warn("no rows matched the selected expiry")
		return
	}

	processor.ApplyDerivedValue(filtered)
	processor.SortForSnapshot(filtered)

	r.persist(ctx, cycleID, src, now, filtered, log)
}

func (r *Runner) persist(ctx context.Context, cycleID string, src config.SourceConfig, now time.Time, rows []models.Row, log *logger.Entry) {
	day := now.Weekday()

	if err := r.snapshots.Write(src.Key, day, rows); err != nil {
		log.WithError(err).Error("snapshot write failed")
	} else if r.mirror != nil {
		if data, err := r.snapshots.ReadCSV(src.Key, day); err != nil {
			log.WithError(err).Warn("failed to read snapshot back for mirror upload")
		} else if err := r.mirror.Upload(ctx, src.Key, day, now, data); err != nil {
			log.WithError(err).Warn("snapshot mirror upload failed")
		}
	}

	if r.table != nil {
		if err := r.table.Append(ctx, cycleID, rows); err != nil {
			log.WithError(err).Error("table append failed")
		}
	}

	logger.LogDataFlowEntry(log, src.Key, "snapshot", len(rows), "rows")
	log.WithFields(logger.Fields{"rows": len(rows)}).Info("cycle rows persisted")
}
