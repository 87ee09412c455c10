package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/google/uuid"
)

// TaskRepository хранит задачи в памяти процесса. Каждое чтение отдает
// новый экземпляр сущности, поэтому несохраненные изменения не видны другим запросам.
type TaskRepository struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]entity.TaskState
	now   func() time.Time
}

type Option func(*TaskRepository)

// WithClock подменяет источник времени для меток и фильтров.
func WithClock(now func() time.Time) Option {
	return func(r *TaskRepository) {
		r.now = now
	}
}

func NewTaskRepository(opts ...Option) *TaskRepository {
	r := &TaskRepository{
		tasks: make(map[uuid.UUID]entity.TaskState),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID()]; ok {
		return fmt.Errorf("%w: %s", entity.ErrTaskExists, task.ID())
	}

	task.RecordCreation(r.now())
	r.tasks[task.ID()] = task.State()
	return nil
}

func (r *TaskRepository) Update(ctx context.Context, task *entity.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID()]; !ok {
		return entity.ErrTaskNotFound
	}
	task.RecordUpdate(r.now())
	r.tasks[task.ID()] = task.State()
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, task *entity.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID()]; !ok {
		return entity.ErrTaskNotFound
	}
	delete(r.tasks, task.ID())
	return nil
}

func (r *TaskRepository) GetOne(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	return r.get(ctx, id)
}

func (r *TaskRepository) GetOneReadonly(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	return r.get(ctx, id)
}

func (r *TaskRepository) GetManyFiltered(ctx context.Context, filter entity.Filter) ([]*entity.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	states := make([]entity.TaskState, 0, len(r.tasks))
	for _, s := range r.tasks {
		if filter.Match(s.ExpiryAt, now) {
			states = append(states, s)
		}
	}

	sort.Slice(states, func(i, j int) bool {
		return states[i].CreatedAt.After(states[j].CreatedAt)
	})

	tasks := make([]*entity.Task, 0, len(states))
	for _, s := range states {
		tasks = append(tasks, entity.RestoreTask(s))
	}
	return tasks, nil
}

// Count текущее число задач.
func (r *TaskRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

func (r *TaskRepository) get(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.tasks[id]
	if !ok {
		return nil, entity.ErrTaskNotFound
	}
	return entity.RestoreTask(s), nil
}
