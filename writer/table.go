package writer

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	appconfig "derivflow/config"
	"derivflow/logger"
	"derivflow/models"
)

// TableWriter is the append sink: every cycle's filtered rows are inserted
// into a durable table, never deduplicated against prior cycles. The table
// carries an identity column and a cycle id so one poll's rows can be
// grouped later.
type TableWriter struct {
	config appconfig.TableConfig
	db     *sqlx.DB
	log    *logger.Log
}

const tableSchema = `
CREATE TABLE IF NOT EXISTS %s (
	id                BIGSERIAL PRIMARY KEY,
	cycle_id          UUID NOT NULL,
	ticker            TEXT NOT NULL DEFAULT '',
	exchange          TEXT NOT NULL DEFAULT '',
	ltp               DOUBLE PRECISION NOT NULL DEFAULT 0,
	qty               BIGINT NOT NULL DEFAULT 0,
	chg               DOUBLE PRECISION NOT NULL DEFAULT 0,
	perc_chg          DOUBLE PRECISION NOT NULL DEFAULT 0,
	bid_qty           BIGINT NOT NULL DEFAULT 0,
	bid               DOUBLE PRECISION NOT NULL DEFAULT 0,
	open              DOUBLE PRECISION NOT NULL DEFAULT 0,
	prev_close        DOUBLE PRECISION NOT NULL DEFAULT 0,
	low               DOUBLE PRECISION NOT NULL DEFAULT 0,
	high              DOUBLE PRECISION NOT NULL DEFAULT 0,
	avg_price         DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_volume      BIGINT NOT NULL DEFAULT 0,
	total_value       DOUBLE PRECISION NOT NULL DEFAULT 0,
	oi                BIGINT NOT NULL DEFAULT 0,
	oi_change         BIGINT NOT NULL DEFAULT 0,
	num_contracts     BIGINT NOT NULL DEFAULT 0,
	strike_price      DOUBLE PRECISION NOT NULL DEFAULT 0,
	expiry_date       TEXT NOT NULL DEFAULT '',
	option_type       TEXT NOT NULL DEFAULT '',
	prev_open         DOUBLE PRECISION NOT NULL DEFAULT 0,
	oi_combined_fut   DOUBLE PRECISION NOT NULL DEFAULT 0,
	five_day_avg_vol  DOUBLE PRECISION NOT NULL DEFAULT 0,
	derived_value     DOUBLE PRECISION NOT NULL DEFAULT 0,
	captured_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// NewTableWriter connects, configures the pool, and ensures the schema.
func NewTableWriter(ctx context.Context, cfg appconfig.TableConfig) (*TableWriter, error) {
	log := logger.GetLogger()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to table store: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	w := &TableWriter{config: cfg, db: db, log: log}
	if err := w.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.WithComponent("table_writer").WithFields(logger.Fields{
		"table": cfg.Name,
	}).Info("table writer initialized")

	return w, nil
}

func (w *TableWriter) ensureSchema(ctx context.Context) error {
	if _, err := w.db.ExecContext(ctx, fmt.Sprintf(tableSchema, w.config.Name)); err != nil {
		return fmt.Errorf("failed to ensure table %s: %w", w.config.Name, err)
	}
	return nil
}

// Append inserts the rows in one transaction. A failure rolls back the whole
// cycle's batch; the next poll re-captures fresh data anyway.
func (w *TableWriter) Append(ctx context.Context, cycleID string, rows []models.Row) error {
	if len(rows) == 0 {
		return nil
	}

	if w.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.QueryTimeout)
		defer cancel()
	}

	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`INSERT INTO %s (
		cycle_id, ticker, exchange, ltp, qty, chg, perc_chg, bid_qty, bid,
		open, prev_close, low, high, avg_price, total_volume, total_value,
		oi, oi_change, num_contracts, strike_price, expiry_date, option_type,
		prev_open, oi_combined_fut, five_day_avg_vol, derived_value, captured_at
	) VALUES (
		:cycle_id, :ticker, :exchange, :ltp, :qty, :chg, :perc_chg, :bid_qty, :bid,
		:open, :prev_close, :low, :high, :avg_price, :total_volume, :total_value,
		:oi, :oi_change, :num_contracts, :strike_price, :expiry_date, :option_type,
		:prev_open, :oi_combined_fut, :five_day_avg_vol, :derived_value, :captured_at
	)`, w.config.Name)

	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		arg := tableRow{Row: r, CycleID: cycleID}
		if _, err := stmt.ExecContext(ctx, arg); err != nil {
			return fmt.Errorf("failed to insert row for %s: %w", r.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	logger.IncrementTableRows(len(rows))
	w.log.WithComponent("table_writer").WithFields(logger.Fields{
		"cycle_id": cycleID,
		"rows":     len(rows),
	}).Debug("batch appended to table")

	return nil
}

// tableRow adds the cycle id to the row's named parameters.
type tableRow struct {
	models.Row
	CycleID string `db:"cycle_id"`
}

// Close releases the connection pool.
func (w *TableWriter) Close() error {
	return w.db.Close()
}
