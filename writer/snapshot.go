package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	appconfig "derivflow/config"
	"derivflow/logger"
	"derivflow/models"
)

// SnapshotWriter owns the day-partitioned snapshot files. Each partition is
// one file per (source key, weekday); every write fully replaces the
// previous contents, so the last write of the day wins. Distinct partitions
// never share a file, which lets independent pipeline instances write
// concurrently without locking.
type SnapshotWriter struct {
	config appconfig.SnapshotConfig
	log    *logger.Log
}

// NewSnapshotWriter creates the snapshot directory and returns the writer.
func NewSnapshotWriter(cfg appconfig.SnapshotConfig) (*SnapshotWriter, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	log := logger.GetLogger()
	log.WithComponent("snapshot_writer").WithFields(logger.Fields{
		"dir":     cfg.Dir,
		"parquet": cfg.Parquet.Enabled,
	}).Info("snapshot writer initialized")

	return &SnapshotWriter{config: cfg, log: log}, nil
}

// PartitionPath returns the CSV file for a (source key, weekday) partition.
func (w *SnapshotWriter) PartitionPath(sourceKey string, day time.Weekday) string {
	return filepath.Join(w.config.Dir, fmt.Sprintf("%s_%s.csv", day.String(), sourceKey))
}

func (w *SnapshotWriter) parquetPath(sourceKey string, day time.Weekday) string {
	return filepath.Join(w.config.Dir, fmt.Sprintf("%s_%s.parquet", day.String(), sourceKey))
}

// Write replaces the partition with the given rows. The parquet sibling is
// written when enabled; a parquet failure is logged but does not fail the
// CSV write.
func (w *SnapshotWriter) Write(sourceKey string, day time.Weekday, rows []models.Row) error {
	log := w.log.WithComponent("snapshot_writer").WithFields(logger.Fields{
		"source":    sourceKey,
		"partition": day.String(),
		"rows":      len(rows),
	})

	path := w.PartitionPath(sourceKey, day)
	if err := writeCSV(path, rows); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	logger.IncrementSnapshotWrite(len(rows))

	if w.config.Parquet.Enabled {
		data, err := encodeParquet(rows, w.config.Parquet.Compression)
		if err != nil {
			log.WithError(err).Warn("failed to encode parquet snapshot")
		} else if err := os.WriteFile(w.parquetPath(sourceKey, day), data, 0o644); err != nil {
			log.WithError(err).Warn("failed to write parquet snapshot")
		}
	}

	log.Debug("snapshot partition written")
	return nil
}

// WriteEmpty rewrites the partition to a header-only state. Used by the
// weekly reset; rewriting an already-empty partition is harmless.
func (w *SnapshotWriter) WriteEmpty(sourceKey string, day time.Weekday) error {
	path := w.PartitionPath(sourceKey, day)
	if err := writeCSV(path, nil); err != nil {
		return fmt.Errorf("failed to blank snapshot %s: %w", path, err)
	}
	if w.config.Parquet.Enabled {
		data, err := encodeParquet(nil, w.config.Parquet.Compression)
		if err == nil {
			if werr := os.WriteFile(w.parquetPath(sourceKey, day), data, 0o644); werr != nil {
				w.log.WithComponent("snapshot_writer").WithError(werr).Warn("failed to blank parquet snapshot")
			}
		}
	}
	return nil
}

// ReadCSV loads a partition back, mirroring what Write produced. Mainly for
// the S3 mirror and tests.
func (w *SnapshotWriter) ReadCSV(sourceKey string, day time.Weekday) ([]byte, error) {
	return os.ReadFile(w.PartitionPath(sourceKey, day))
}

func writeCSV(path string, rows []models.Row) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(models.Header()); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	// Replace atomically so concurrent readers never observe a partial file.
	return os.Rename(tmp, path)
}
