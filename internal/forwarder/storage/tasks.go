package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evijayan2/smsmonitor/internal/forwarder/model"
)

var ErrTaskNotFound = errors.New("delivery task not found")

const taskColumns = `id, sender, receiver, content, timestamp, source, status, attempts,
  next_attempt_at, created_at, updated_at, last_error`

// InsertTask stores a new pending task due immediately.
func (s *Store) InsertTask(ctx context.Context, record model.Record, now time.Time) (model.DeliveryTask, error) {
	task := model.DeliveryTask{
		ID:            uuid.New(),
		Record:        record,
		Status:        model.StatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO delivery_tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID.String(),
		record.Sender,
		record.Receiver,
		record.Content,
		record.Timestamp,
		string(record.Source),
		string(task.Status),
		task.Attempts,
		now.UnixMilli(),
		now.UnixMilli(),
		now.UnixMilli(),
		"",
	)
	if err != nil {
		return model.DeliveryTask{}, fmt.Errorf("insert delivery task: %w", err)
	}

	return task, nil
}

// SelectDue returns pending tasks whose next attempt is due, oldest schedule first.
func (s *Store) SelectDue(ctx context.Context, now time.Time, limit int) ([]model.DeliveryTask, error) {
	if limit <= 0 {
		limit = 1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+`
		FROM delivery_tasks
		WHERE status = ? AND next_attempt_at <= ?
		ORDER BY next_attempt_at ASC, created_at ASC
		LIMIT ?`,
		string(model.StatusPending),
		now.UnixMilli(),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select due tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.DeliveryTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due tasks: %w", err)
	}

	return tasks, nil
}

func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (model.DeliveryTask, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM delivery_tasks WHERE id = ?`,
		id.String(),
	)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DeliveryTask{}, ErrTaskNotFound
	}

	return task, err
}

func (s *Store) MarkSucceeded(ctx context.Context, id uuid.UUID, now time.Time) error {
	return s.updateStatus(ctx,
		`UPDATE delivery_tasks
		SET status = ?, attempts = attempts + 1, last_error = '', updated_at = ?
		WHERE id = ? AND status = 'pending'`,
		string(model.StatusSucceeded), now.UnixMilli(), id.String(),
	)
}

// MarkFailed makes the task terminal. countAttempt is false for failures detected before any network I/O.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, now time.Time, reason string, countAttempt bool) error {
	increment := 0
	if countAttempt {
		increment = 1
	}

	return s.updateStatus(ctx,
		`UPDATE delivery_tasks
		SET status = ?, attempts = attempts + ?, last_error = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`,
		string(model.StatusFailed), increment, reason, now.UnixMilli(), id.String(),
	)
}

// Reschedule counts a failed attempt and defers the task until next.
func (s *Store) Reschedule(ctx context.Context, id uuid.UUID, next, now time.Time, reason string) error {
	return s.updateStatus(ctx,
		`UPDATE delivery_tasks
		SET attempts = attempts + 1, next_attempt_at = ?, last_error = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`,
		next.UnixMilli(), reason, now.UnixMilli(), id.String(),
	)
}

// PruneTerminal deletes succeeded and failed tasks last touched before cutoff.
func (s *Store) PruneTerminal(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM delivery_tasks WHERE status IN ('succeeded','failed') AND updated_at < ?`,
		cutoff.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("prune delivery tasks: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read rows affected for task prune: %w", err)
	}

	return rowsAffected, nil
}

// CountByStatus returns the number of tasks per status. Missing statuses count zero.
func (s *Store) CountByStatus(ctx context.Context) (map[model.TaskStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM delivery_tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count delivery tasks: %w", err)
	}
	defer rows.Close()

	counts := map[model.TaskStatus]int{
		model.StatusPending:   0,
		model.StatusSucceeded: 0,
		model.StatusFailed:    0,
	}

	for rows.Next() {
		var (
			status string
			count  int
		)

		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan task count: %w", err)
		}

		counts[model.TaskStatus(status)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task counts: %w", err)
	}

	return counts, nil
}

func (s *Store) updateStatus(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update delivery task: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected for task update: %w", err)
	}

	if rowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (model.DeliveryTask, error) {
	var (
		task                                model.DeliveryTask
		id, source, status                  string
		nextAttemptAt, createdAt, updatedAt int64
	)

	if err := row.Scan(
		&id,
		&task.Record.Sender,
		&task.Record.Receiver,
		&task.Record.Content,
		&task.Record.Timestamp,
		&source,
		&status,
		&task.Attempts,
		&nextAttemptAt,
		&createdAt,
		&updatedAt,
		&task.LastError,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DeliveryTask{}, err
		}

		return model.DeliveryTask{}, fmt.Errorf("scan delivery task: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return model.DeliveryTask{}, fmt.Errorf("parse delivery task id %q: %w", id, err)
	}

	task.ID = parsed
	task.Record.Source = model.Source(source)
	task.Status = model.TaskStatus(status)
	task.NextAttemptAt = time.UnixMilli(nextAttemptAt)
	task.CreatedAt = time.UnixMilli(createdAt)
	task.UpdatedAt = time.UnixMilli(updatedAt)

	return task, nil
}
