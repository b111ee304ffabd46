package writer

import (
	"time"

	appconfig "derivflow/config"
	"derivflow/logger"
)

// WeeklyReset blanks the week's accumulated snapshot partitions so each new
// week starts clean. The current day's partition is left alone; it is still
// being written this session.
type WeeklyReset struct {
	snapshots *SnapshotWriter
	sources   []appconfig.SourceConfig
	weekdays  []time.Weekday
	log       *logger.Log
}

// NewWeeklyReset covers every (source, eligible weekday) partition.
func NewWeeklyReset(snapshots *SnapshotWriter, sources []appconfig.SourceConfig, window appconfig.WindowConfig) *WeeklyReset {
	days := make([]time.Weekday, 0, len(window.Weekdays))
	for _, name := range window.Weekdays {
		if d, ok := appconfig.ParseWeekday(name); ok {
			days = append(days, d)
		}
	}
	return &WeeklyReset{
		snapshots: snapshots,
		sources:   sources,
		weekdays:  days,
		log:       logger.GetLogger(),
	}
}

// Run rewrites every non-current-day partition to a header-only state. It is
// idempotent: blanking an already-blank partition changes nothing, so firing
// twice inside the boundary minute is harmless.
func (r *WeeklyReset) Run(now time.Time) {
	log := r.log.WithComponent("weekly_reset").WithFields(logger.Fields{
		"current_day": now.Weekday().String(),
	})
	log.Info("running weekly snapshot reset")

	blanked := 0
	for _, src := range r.sources {
		for _, day := range r.weekdays {
			if day == now.Weekday() {
				continue
			}
			if err := r.snapshots.WriteEmpty(src.Key, day); err != nil {
				log.WithError(err).WithFields(logger.Fields{
					"source":    src.Key,
					"partition": day.String(),
				}).Error("failed to blank snapshot partition")
				continue
			}
			blanked++
		}
	}

	log.WithFields(logger.Fields{"partitions": blanked}).Info("weekly reset complete")
}
