package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// taskModel строка таблицы. Время хранится в наносекундах Unix,
// чтобы сравнения в SQLite не зависели от строкового формата и часового пояса.
type taskModel struct {
	ID                   string  `gorm:"primarykey;size:36"`
	Title                string  `gorm:"size:100;not null"`
	Description          *string `gorm:"size:5000"`
	ExpiryAtNs           int64   `gorm:"column:expiry_at;index;not null"`
	CompletionPercentage int     `gorm:"not null;default:0"`
	CreatedAtNs          int64   `gorm:"column:created_at;index;not null"`
	UpdatedAtNs          *int64  `gorm:"column:updated_at"`
}

func (taskModel) TableName() string {
	return "todo_tasks"
}

// Open открывает базу SQLite и создает схему.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(gormsqlite.Open(path), &gorm.Config{
		Logger: gormlogger.New(logger.Log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&taskModel{}); err != nil {
		return fmt.Errorf("failed to migrate sqlite database: %w", err)
	}
	return nil
}

type TaskRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
	now    func() time.Time
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger.Log,
		now:    time.Now,
	}
}

func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) error {
	task.RecordCreation(r.now())

	m := toModel(task.State())
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		r.logError("Create", task.ID(), err, "Failed to create task")
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Update(ctx context.Context, task *entity.Task) error {
	task.RecordUpdate(r.now())

	m := toModel(task.State())
	result := r.db.WithContext(ctx).Model(&taskModel{}).Where("id = ?", m.ID).Updates(map[string]any{
		"title":                 m.Title,
		"description":           m.Description,
		"expiry_at":             m.ExpiryAtNs,
		"completion_percentage": m.CompletionPercentage,
		"updated_at":            m.UpdatedAtNs,
	})
	if err := result.Error; err != nil {
		r.logError("Update", task.ID(), err, "Failed to update task")
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected == 0 {
		return entity.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, task *entity.Task) error {
	result := r.db.WithContext(ctx).Delete(&taskModel{}, "id = ?", task.ID().String())
	if err := result.Error; err != nil {
		r.logError("Delete", task.ID(), err, "Failed to delete task")
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return entity.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) GetOne(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	return r.get(ctx, "GetOne", id)
}

func (r *TaskRepository) GetOneReadonly(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	return r.get(ctx, "GetOneReadonly", id)
}

func (r *TaskRepository) GetManyFiltered(ctx context.Context, filter entity.Filter) ([]*entity.Task, error) {
	q := r.db.WithContext(ctx).Model(&taskModel{})

	if w, ok := filter.Window(r.now()); ok {
		if w.Inclusive {
			q = q.Where("expiry_at >= ? AND expiry_at <= ?", w.From.UnixNano(), w.To.UnixNano())
		} else {
			q = q.Where("expiry_at > ? AND expiry_at < ?", w.From.UnixNano(), w.To.UnixNano())
		}
	}

	var models []taskModel
	if err := q.Order("created_at DESC").Find(&models).Error; err != nil {
		r.logError("GetManyFiltered", uuid.Nil, err, "Failed to list tasks")
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*entity.Task, 0, len(models))
	for _, m := range models {
		s, err := m.state()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, entity.RestoreTask(s))
	}
	return tasks, nil
}

func (r *TaskRepository) get(ctx context.Context, method string, id uuid.UUID) (*entity.Task, error) {
	var m taskModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrTaskNotFound
		}
		r.logError(method, id, err, "Failed to get task")
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	s, err := m.state()
	if err != nil {
		return nil, err
	}
	return entity.RestoreTask(s), nil
}

func (r *TaskRepository) logError(method string, id uuid.UUID, err error, msg string) {
	fields := logrus.Fields{"method": method}
	if id != uuid.Nil {
		fields["task_id"] = id.String()
	}
	r.logger.WithFields(fields).WithError(err).Error(msg)
}

func toModel(s entity.TaskState) taskModel {
	m := taskModel{
		ID:                   s.ID.String(),
		Title:                s.Title,
		Description:          s.Description,
		ExpiryAtNs:           s.ExpiryAt.UnixNano(),
		CompletionPercentage: s.CompletionPercentage,
		CreatedAtNs:          s.CreatedAt.UnixNano(),
	}
	if s.UpdatedAt != nil {
		ns := s.UpdatedAt.UnixNano()
		m.UpdatedAtNs = &ns
	}
	return m
}

func (m taskModel) state() (entity.TaskState, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return entity.TaskState{}, fmt.Errorf("invalid task id %q in storage: %w", m.ID, err)
	}

	s := entity.TaskState{
		ID:                   id,
		Title:                m.Title,
		Description:          m.Description,
		ExpiryAt:             time.Unix(0, m.ExpiryAtNs),
		CompletionPercentage: m.CompletionPercentage,
		CreatedAt:            time.Unix(0, m.CreatedAtNs),
	}
	if m.UpdatedAtNs != nil {
		t := time.Unix(0, *m.UpdatedAtNs)
		s.UpdatedAt = &t
	}
	return s, nil
}
