package usecase

import (
	"context"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/google/uuid"
)

// TaskRepository хранилище задач. Хранилище проставляет CreatedAt/UpdatedAt,
// применяет фильтр по сроку и сортирует по CreatedAt по убыванию.
// Отсутствующий ID возвращает entity.ErrTaskNotFound.
type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) error
	Update(ctx context.Context, task *entity.Task) error
	Delete(ctx context.Context, task *entity.Task) error
	GetOne(ctx context.Context, id uuid.UUID) (*entity.Task, error)
	GetOneReadonly(ctx context.Context, id uuid.UUID) (*entity.Task, error)
	GetManyFiltered(ctx context.Context, filter entity.Filter) ([]*entity.Task, error)
}

type TaskUseCase interface {
	CreateOne(ctx context.Context, in CreateTaskInput) (TaskOutput, error)
	UpdateOne(ctx context.Context, in UpdateTaskInput) (TaskOutput, error)
	MarkAsDone(ctx context.Context, id uuid.UUID) (TaskOutput, error)
	UpdateCompletionPercentage(ctx context.Context, id uuid.UUID, percentage int) (TaskOutput, error)
	DeleteOne(ctx context.Context, id uuid.UUID) error
	GetOne(ctx context.Context, id uuid.UUID) (TaskOutput, error)
	GetMany(ctx context.Context, filter entity.Filter) ([]TaskOutput, error)
}

type CreateTaskInput struct {
	ExpiryAt    time.Time
	Title       string
	Description *string
}

// UpdateTaskInput полная замена изменяемых полей.
type UpdateTaskInput struct {
	ID                   uuid.UUID
	ExpiryAt             time.Time
	Title                string
	Description          *string
	CompletionPercentage int
}

// TaskOutput проекция задачи для внешнего слоя.
type TaskOutput struct {
	ID                   uuid.UUID
	ExpiryAt             time.Time
	Title                string
	Description          *string
	CreatedAt            time.Time
	UpdatedAt            *time.Time
	CompletionPercentage int
	IsDone               bool
}

func newTaskOutput(t *entity.Task) TaskOutput {
	return TaskOutput{
		ID:                   t.ID(),
		ExpiryAt:             t.ExpiryAt(),
		Title:                t.Title(),
		Description:          t.Description(),
		CreatedAt:            t.CreatedAt(),
		UpdatedAt:            t.UpdatedAt(),
		CompletionPercentage: t.CompletionPercentage(),
		IsDone:               t.IsDone(),
	}
}

type TaskUseCaseImpl struct {
	taskRepo TaskRepository
}

func NewTaskUseCase(taskRepo TaskRepository) *TaskUseCaseImpl {
	return &TaskUseCaseImpl{taskRepo: taskRepo}
}

func (uc *TaskUseCaseImpl) CreateOne(ctx context.Context, in CreateTaskInput) (TaskOutput, error) {
	task := entity.NewTask(in.ExpiryAt, in.Title, in.Description)
	if err := uc.taskRepo.Create(ctx, task); err != nil {
		return TaskOutput{}, err
	}
	return newTaskOutput(task), nil
}

// UpdateOne вызывает мутатор только для изменившихся полей и сохраняет задачу,
// только если изменилось хотя бы одно поле.
func (uc *TaskUseCaseImpl) UpdateOne(ctx context.Context, in UpdateTaskInput) (TaskOutput, error) {
	task, err := uc.taskRepo.GetOne(ctx, in.ID)
	if err != nil {
		return TaskOutput{}, err
	}

	changed := false

	if in.Title != task.Title() {
		if err := task.UpdateTitle(in.Title); err != nil {
			return TaskOutput{}, err
		}
		changed = true
	}

	if !sameDescription(in.Description, task.Description()) {
		task.UpdateDescription(in.Description)
		changed = true
	}

	if in.CompletionPercentage != task.CompletionPercentage() {
		if err := task.UpdateCompletionPercentage(in.CompletionPercentage); err != nil {
			return TaskOutput{}, err
		}
		changed = true
	}

	if !in.ExpiryAt.Equal(task.ExpiryAt()) {
		task.UpdateExpiryAt(in.ExpiryAt)
		changed = true
	}

	if changed {
		if err := uc.taskRepo.Update(ctx, task); err != nil {
			return TaskOutput{}, err
		}
	}

	return newTaskOutput(task), nil
}

func (uc *TaskUseCaseImpl) MarkAsDone(ctx context.Context, id uuid.UUID) (TaskOutput, error) {
	task, err := uc.taskRepo.GetOne(ctx, id)
	if err != nil {
		return TaskOutput{}, err
	}

	task.MarkAsDone()
	if err := uc.taskRepo.Update(ctx, task); err != nil {
		return TaskOutput{}, err
	}

	return newTaskOutput(task), nil
}

func (uc *TaskUseCaseImpl) UpdateCompletionPercentage(ctx context.Context, id uuid.UUID, percentage int) (TaskOutput, error) {
	task, err := uc.taskRepo.GetOne(ctx, id)
	if err != nil {
		return TaskOutput{}, err
	}

	if percentage != task.CompletionPercentage() {
		if err := task.UpdateCompletionPercentage(percentage); err != nil {
			return TaskOutput{}, err
		}
		if err := uc.taskRepo.Update(ctx, task); err != nil {
			return TaskOutput{}, err
		}
	}

	return newTaskOutput(task), nil
}

func (uc *TaskUseCaseImpl) DeleteOne(ctx context.Context, id uuid.UUID) error {
	task, err := uc.taskRepo.GetOne(ctx, id)
	if err != nil {
		return err
	}
	return uc.taskRepo.Delete(ctx, task)
}

func (uc *TaskUseCaseImpl) GetOne(ctx context.Context, id uuid.UUID) (TaskOutput, error) {
	task, err := uc.taskRepo.GetOneReadonly(ctx, id)
	if err != nil {
		return TaskOutput{}, err
	}
	return newTaskOutput(task), nil
}

func (uc *TaskUseCaseImpl) GetMany(ctx context.Context, filter entity.Filter) ([]TaskOutput, error) {
	tasks, err := uc.taskRepo.GetManyFiltered(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]TaskOutput, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskOutput(t))
	}
	return out, nil
}

func sameDescription(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
