package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const queryTimeout = 5 * time.Second

const selectTask = `
		SELECT id, title, description, expiry_at, completion_percentage, created_at, updated_at
		FROM todo_tasks`

var tracer = otel.Tracer("github.com/KarpovAlexandrGo/todo-service/internal/repo/postgres")

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *logrus.Logger
	now    func() time.Time
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger.Log,
		now:    time.Now,
	}
}

// Postgres хранит микросекунды, метки усекаются до той же точности.
func (r *TaskRepository) timestamp() time.Time {
	return r.now().Truncate(entity.Tick)
}

func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) error {
	ctx, span := tracer.Start(ctx, "TaskRepository.Create",
		trace.WithAttributes(attribute.String("task.id", task.ID().String())),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	task.RecordCreation(r.timestamp())
	s := task.State()

	query := `
		INSERT INTO todo_tasks (id, title, description, expiry_at, completion_percentage, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.Exec(ctx, query,
		s.ID,
		s.Title,
		s.Description,
		s.ExpiryAt,
		s.CompletionPercentage,
		s.CreatedAt,
	); err != nil {
		r.fail(span, "Create", s.ID, err).Error("Failed to create task")
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

func (r *TaskRepository) Update(ctx context.Context, task *entity.Task) error {
	ctx, span := tracer.Start(ctx, "TaskRepository.Update",
		trace.WithAttributes(attribute.String("task.id", task.ID().String())),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	task.RecordUpdate(r.timestamp())
	s := task.State()

	query := `
		UPDATE todo_tasks
		SET title = $2, description = $3, expiry_at = $4, completion_percentage = $5, updated_at = $6
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query,
		s.ID,
		s.Title,
		s.Description,
		s.ExpiryAt,
		s.CompletionPercentage,
		s.UpdatedAt,
	)
	if err != nil {
		r.fail(span, "Update", s.ID, err).Error("Failed to update task")
		return fmt.Errorf("failed to update task: %w", err)
	}

	if result.RowsAffected() == 0 {
		r.logger.WithFields(logrus.Fields{
			"method":  "Update",
			"task_id": s.ID.String(),
		}).Warn("Task not found for update")
		return entity.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, task *entity.Task) error {
	ctx, span := tracer.Start(ctx, "TaskRepository.Delete",
		trace.WithAttributes(attribute.String("task.id", task.ID().String())),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.Exec(ctx, `DELETE FROM todo_tasks WHERE id = $1`, task.ID())
	if err != nil {
		r.fail(span, "Delete", task.ID(), err).Error("Failed to delete task")
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.RowsAffected() == 0 {
		r.logger.WithFields(logrus.Fields{
			"method":  "Delete",
			"task_id": task.ID().String(),
		}).Warn("Task not found for deletion")
		return entity.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepository) GetOne(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	return r.get(ctx, "GetOne", id)
}

// GetOneReadonly в Postgres не отличается от GetOne: сущность и так не разделяется между запросами.
func (r *TaskRepository) GetOneReadonly(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	return r.get(ctx, "GetOneReadonly", id)
}

func (r *TaskRepository) GetManyFiltered(ctx context.Context, filter entity.Filter) ([]*entity.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskRepository.GetManyFiltered",
		trace.WithAttributes(attribute.String("task.filter", filter.String())),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query, args := filteredQuery(filter, r.now())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.fail(span, "GetManyFiltered", uuid.Nil, err).Error("Failed to list tasks")
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*entity.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			r.fail(span, "GetManyFiltered", uuid.Nil, err).Error("Failed to scan task row")
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		r.fail(span, "GetManyFiltered", uuid.Nil, err).Error("Error after scanning rows")
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}

	span.SetAttributes(attribute.Int("task.count", len(tasks)))
	return tasks, nil
}

// filteredQuery дневные окна исключают границы, недельные включают.
func filteredQuery(filter entity.Filter, now time.Time) (string, []any) {
	query := selectTask
	var args []any

	if w, ok := filter.Window(now); ok {
		if w.Inclusive {
			query += `
		WHERE expiry_at >= $1 AND expiry_at <= $2`
		} else {
			query += `
		WHERE expiry_at > $1 AND expiry_at < $2`
		}
		args = append(args, w.From, w.To)
	}

	query += `
		ORDER BY created_at DESC`
	return query, args
}

func (r *TaskRepository) get(ctx context.Context, method string, id uuid.UUID) (*entity.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskRepository."+method,
		trace.WithAttributes(attribute.String("task.id", id.String())),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	task, err := scanTask(r.db.QueryRow(ctx, selectTask+`
		WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetAttributes(attribute.Bool("task.found", false))
			r.logger.WithFields(logrus.Fields{
				"method":  method,
				"task_id": id.String(),
			}).Warn("Task not found")
			return nil, entity.ErrTaskNotFound
		}
		r.fail(span, method, id, err).Error("Failed to get task")
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	span.SetAttributes(attribute.Bool("task.found", true))
	return task, nil
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	var s entity.TaskState
	if err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.ExpiryAt,
		&s.CompletionPercentage,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return entity.RestoreTask(s), nil
}

func (r *TaskRepository) fail(span trace.Span, method string, id uuid.UUID, err error) *logrus.Entry {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	fields := logrus.Fields{"method": method}
	if id != uuid.Nil {
		fields["task_id"] = id.String()
	}
	return r.logger.WithFields(fields).WithError(err)
}
