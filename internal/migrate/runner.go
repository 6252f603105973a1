package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Config controls runner behaviour.
type Config struct {
	BusyTimeout time.Duration
}

// Runner applies registered migrations against the database.
type Runner struct {
	db      *sql.DB
	store   *Store
	logger  *slog.Logger
	cfg     Config
	nowFunc func() time.Time
}

func NewRunner(db *sql.DB, cfg Config, logger *slog.Logger) (*Runner, error) {
	if db == nil {
		return nil, errors.New("migrate: db handle is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		db:      db,
		store:   NewStore(db),
		logger:  logger,
		cfg:     cfg,
		nowFunc: time.Now,
	}, nil
}

// ApplyAll runs every registered migration in order.
func (r *Runner) ApplyAll(ctx context.Context) error {
	return r.apply(ctx, "")
}

// ApplyTo runs migrations up to and including targetID (if provided).
func (r *Runner) ApplyTo(ctx context.Context, targetID string) error {
	return r.apply(ctx, targetID)
}

func (r *Runner) apply(ctx context.Context, targetID string) error {
	unlock := lockProcess()
	defer unlock()

	if err := r.store.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := r.prepareConnection(ctx); err != nil {
		return err
	}

	for _, mig := range List() {
		if targetID != "" && mig.ID > targetID {
			break
		}

		rec, err := r.store.GetRecord(ctx, mig.ID)
		if err == nil {
			if rec.Status == StatusFinished {
				if rec.Checksum != mig.Checksum {
					return fmt.Errorf("%w: stored=%s new=%s", ErrChecksumMismatch, rec.Checksum, mig.Checksum)
				}
				continue
			}
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		if err := r.runMigration(ctx, mig); err != nil {
			return err
		}
	}

	return nil
}

var processMutex sync.Mutex

func lockProcess() func() {
	processMutex.Lock()
	return func() {
		processMutex.Unlock()
	}
}

func (r *Runner) runMigration(ctx context.Context, mig Migration) error {
	if mig.Precheck != nil {
		if err := mig.Precheck(ctx, r.db); err != nil {
			return fmt.Errorf("migrate: precheck %s: %w", mig.ID, err)
		}
	}

	metaTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin metadata tx for %s: %w", mig.ID, err)
	}
	defer rollbackIgnore(metaTx)

	record, err := r.store.MarkStarted(ctx, metaTx, mig.ID, mig.Checksum, r.nowFunc())
	if err != nil {
		return err
	}
	if err := metaTx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit metadata start %s: %w", mig.ID, err)
	}

	r.logger.InfoContext(ctx, "migration started",
		slog.String("migration_id", mig.ID),
		slog.String("description", mig.Description),
		slog.Int("attempt", record.Attempts),
	)
	execStart := r.nowFunc()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin tx for %s: %w", mig.ID, err)
	}
	defer rollbackIgnore(tx)

	if err := mig.Apply(ctx, tx); err != nil {
		rollbackIgnore(tx)
		_ = r.recordError(ctx, mig.ID, err)
		r.logger.ErrorContext(ctx, "migration apply failed",
			slog.String("migration_id", mig.ID),
			slog.Int("attempt", record.Attempts),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("migrate: apply %s: %w", mig.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit %s: %w", mig.ID, err)
	}

	if mig.Validate != nil {
		if err := mig.Validate(ctx, r.db); err != nil {
			_ = r.recordError(ctx, mig.ID, err)
			r.logger.ErrorContext(ctx, "migration validate failed",
				slog.String("migration_id", mig.ID),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("migrate: validate %s: %w", mig.ID, err)
		}
	}

	finishTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin finish tx %s: %w", mig.ID, err)
	}
	defer rollbackIgnore(finishTx)

	finishRec, err := r.store.MarkFinished(ctx, finishTx, mig.ID, r.nowFunc())
	if err != nil {
		return err
	}
	if err := finishTx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit finish %s: %w", mig.ID, err)
	}

	r.logger.InfoContext(ctx, "migration applied",
		slog.String("migration_id", mig.ID),
		slog.Int("attempt", finishRec.Attempts),
		slog.Duration("duration", r.nowFunc().Sub(execStart)),
	)
	return nil
}

func (r *Runner) prepareConnection(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("migrate: enable foreign_keys: %w", err)
	}
	if r.cfg.BusyTimeout > 0 {
		if _, err := r.db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", int(r.cfg.BusyTimeout.Milliseconds()))); err != nil {
			return fmt.Errorf("migrate: set busy_timeout: %w", err)
		}
	}
	return nil
}

func (r *Runner) recordError(ctx context.Context, id string, cause error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollbackIgnore(tx)

	if err := r.store.SetError(ctx, tx, id, cause.Error()); err != nil {
		return err
	}
	return tx.Commit()
}

func rollbackIgnore(tx *sql.Tx) {
	if tx == nil {
		return
	}
	_ = tx.Rollback()
}
