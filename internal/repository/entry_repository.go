package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadops/defense-scheduler-api/internal/models"
)

// ScheduleEntryRepository persists the defense calendar produced by a run.
type ScheduleEntryRepository struct {
	db *sqlx.DB
}

// NewScheduleEntryRepository constructs repository.
func NewScheduleEntryRepository(db *sqlx.DB) *ScheduleEntryRepository {
	return &ScheduleEntryRepository{db: db}
}

func (r *ScheduleEntryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// BulkInsert stores all entries of one run in a single statement.
func (r *ScheduleEntryRepository) BulkInsert(ctx context.Context, exec sqlx.ExtContext, runID string, entries []models.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]models.ScheduleEntry, len(entries))
	for i, entry := range entries {
		entry.ID = uuid.NewString()
		entry.RunID = runID
		entry.CreatedAt = now
		rows[i] = entry
	}

	const query = `
INSERT INTO schedule_entries (id, run_id, project_id, topic, slot_id, defense_date, time_range, room, panelists, created_at)
VALUES (:id, :run_id, :project_id, :topic, :slot_id, :defense_date, :time_range, :room, :panelists, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, rows); err != nil {
		return fmt.Errorf("insert schedule entries: %w", err)
	}
	return nil
}

// ListByRun returns a run's entries ordered by date, time and room.
func (r *ScheduleEntryRepository) ListByRun(ctx context.Context, runID string) ([]models.ScheduleEntry, error) {
	const query = `SELECT id, run_id, project_id, topic, slot_id, defense_date, time_range, room, panelists, created_at
FROM schedule_entries WHERE run_id = $1 ORDER BY defense_date, time_range, room`
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, runID); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}
