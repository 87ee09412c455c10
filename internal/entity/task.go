package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	MinCompletionPercentage = 0
	MaxCompletionPercentage = 100
)

// Task задача. Поля меняются только через методы Update*/MarkAsDone.
type Task struct {
	Base
	expiryAt             time.Time
	title                string
	description          *string
	completionPercentage int
}

// NewTask создает задачу с новым ID и нулевым процентом выполнения.
// Длина полей проверяется на границе HTTP, здесь валидации нет.
func NewTask(expiryAt time.Time, title string, description *string) *Task {
	return &Task{
		Base:        newBase(),
		expiryAt:    expiryAt,
		title:       title,
		description: cloneString(description),
	}
}

func (t *Task) ExpiryAt() time.Time {
	return t.expiryAt
}

func (t *Task) Title() string {
	return t.title
}

func (t *Task) Description() *string {
	return cloneString(t.description)
}

func (t *Task) CompletionPercentage() int {
	return t.completionPercentage
}

func (t *Task) IsDone() bool {
	return t.completionPercentage == MaxCompletionPercentage
}

func (t *Task) MarkAsDone() {
	t.completionPercentage = MaxCompletionPercentage
}

func (t *Task) UpdateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: task %s: title is empty", ErrInvalidState, t.id)
	}
	t.title = title
	return nil
}

// UpdateDescription принимает nil и пустую строку как отсутствие описания.
func (t *Task) UpdateDescription(description *string) {
	t.description = cloneString(description)
}

func (t *Task) UpdateCompletionPercentage(percentage int) error {
	if percentage < MinCompletionPercentage || percentage > MaxCompletionPercentage {
		return fmt.Errorf("%w: task %s: completion percentage must be between %d and %d, got %d",
			ErrInvalidState, t.id, MinCompletionPercentage, MaxCompletionPercentage, percentage)
	}
	t.completionPercentage = percentage
	return nil
}

func (t *Task) UpdateExpiryAt(expiryAt time.Time) {
	t.expiryAt = expiryAt
}

// TaskState плоское представление задачи для хранилищ и кэша.
type TaskState struct {
	ID                   uuid.UUID  `json:"id"`
	ExpiryAt             time.Time  `json:"expiry_at"`
	Title                string     `json:"title"`
	Description          *string    `json:"description,omitempty"`
	CompletionPercentage int        `json:"completion_percentage"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty"`
}

// State снимает копию состояния задачи.
func (t *Task) State() TaskState {
	return TaskState{
		ID:                   t.id,
		ExpiryAt:             t.expiryAt,
		Title:                t.title,
		Description:          cloneString(t.description),
		CompletionPercentage: t.completionPercentage,
		CreatedAt:            t.createdAt,
		UpdatedAt:            t.UpdatedAt(),
	}
}

// RestoreTask восстанавливает задачу из хранилища. Инварианты не проверяются:
// хранилище содержит только то, что прошло через методы сущности.
func RestoreTask(s TaskState) *Task {
	t := &Task{
		Base: Base{
			id:        s.ID,
			createdAt: s.CreatedAt,
		},
		expiryAt:             s.ExpiryAt,
		title:                s.Title,
		description:          cloneString(s.Description),
		completionPercentage: s.CompletionPercentage,
	}
	if s.UpdatedAt != nil {
		t.RecordUpdate(*s.UpdatedAt)
	}
	return t
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
