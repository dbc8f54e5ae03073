package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Sasidhar-2001/HMS/internal/clock"
	"github.com/Sasidhar-2001/HMS/internal/config"
	feedomain "github.com/Sasidhar-2001/HMS/internal/fee/domain"
)

// Sweeper flips pending fees past their due date to OVERDUE in batches.
// Status is otherwise computed on write, so the sweep only matters for fees
// nobody has touched since they fell due.
type Sweeper struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	cfg   config.Config
}

func NewSweeper(db *gorm.DB, log *zap.Logger, clk clock.Clock, cfg config.Config) *Sweeper {
	return &Sweeper{
		db:    db,
		log:   log.Named("scheduler.overdue"),
		clock: clk,
		cfg:   cfg,
	}
}

type sweepRow struct {
	ID int64
}

// MarkOverdue runs one sweep pass and reports how many fees it transitioned.
func (s *Sweeper) MarkOverdue(ctx context.Context) (int, error) {
	limit := s.cfg.SweepBatchSize
	if limit <= 0 {
		limit = 200
	}

	total := 0
	for {
		updated, err := s.sweepBatch(ctx, limit)
		if err != nil {
			return total, err
		}
		total += updated
		if updated < limit {
			break
		}
	}

	if total > 0 {
		s.log.Info("overdue sweep finished", zap.Int("fees", total))
	}
	return total, nil
}

func (s *Sweeper) sweepBatch(ctx context.Context, limit int) (int, error) {
	today := truncateToDay(s.clock.Now())
	var updated int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.fetchDueForWork(ctx, tx, today, limit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		result := tx.Model(&feedomain.Fee{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"status":     feedomain.FeeStatusOverdue,
				"updated_at": s.clock.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		updated = int(result.RowsAffected)
		return nil
	})
	return updated, err
}

func (s *Sweeper) fetchDueForWork(ctx context.Context, tx *gorm.DB, today time.Time, limit int) ([]sweepRow, error) {
	var rows []sweepRow
	query := `SELECT id
		 FROM fees
		 WHERE status = ? AND due_date < ?
		 ORDER BY id`
	if tx.Dialector.Name() == "postgres" {
		query += `
		 FOR UPDATE SKIP LOCKED`
	}
	query += `
		 LIMIT ?`
	err := tx.WithContext(ctx).Raw(query, feedomain.FeeStatusPending, today, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
