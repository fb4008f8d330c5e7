// Package repository provides the Postgres persistence layer.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/acadops/defense-scheduler-api/internal/models"
)

// RunRepository persists solver pipeline executions.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository constructs repository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a run record, assigning id and timestamps when absent.
func (r *RunRepository) Create(ctx context.Context, exec sqlx.ExtContext, run *models.SolverRun) error {
	if run == nil {
		return fmt.Errorf("run payload is nil")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if len(run.Meta) == 0 {
		run.Meta = types.JSONText(`{}`)
	}
	if len(run.Findings) == 0 {
		run.Findings = types.JSONText(`[]`)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	const query = `
INSERT INTO solver_runs (id, requested_by, engine, status, stage, success, meta, findings, created_at)
VALUES (:id, :requested_by, :engine, :status, :stage, :success, :meta, :findings, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, run); err != nil {
		return fmt.Errorf("insert solver run: %w", err)
	}
	return nil
}

// FindByID loads one run by its identifier.
func (r *RunRepository) FindByID(ctx context.Context, id string) (*models.SolverRun, error) {
	const query = `SELECT id, requested_by, engine, status, stage, success, meta, findings, created_at
FROM solver_runs WHERE id = $1`
	var run models.SolverRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns runs newest first, optionally filtered by status, plus the
// total count for pagination.
func (r *RunRepository) List(ctx context.Context, status string, page, pageSize int) ([]models.SolverRun, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	where := ""
	args := []interface{}{}
	if status != "" {
		where = " WHERE status = $1"
		args = append(args, status)
	}

	total := 0
	countQuery := "SELECT COUNT(*) FROM solver_runs" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count solver runs: %w", err)
	}

	listQuery := fmt.Sprintf(
		"SELECT id, requested_by, engine, status, stage, success, meta, findings, created_at FROM solver_runs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	var runs []models.SolverRun
	if err := r.db.SelectContext(ctx, &runs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list solver runs: %w", err)
	}
	return runs, total, nil
}
