package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/internal/usecase"
	"github.com/KarpovAlexandrGo/todo-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TaskHandler обрабатывает HTTP-запросы для работы с задачами.
type TaskHandler struct {
	taskUseCase usecase.TaskUseCase
	validate    *validator.Validate
}

// NewTaskHandler создает новый экземпляр TaskHandler.
func NewTaskHandler(taskUseCase usecase.TaskUseCase) *TaskHandler {
	return &TaskHandler{
		taskUseCase: taskUseCase,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes регистрирует маршруты для обработки задач.
func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/tasks", func(r chi.Router) {
		r.Post("/", h.CreateTask)
		r.Get("/", h.ListTasks)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTask)
			r.Put("/", h.UpdateTask)
			r.Delete("/", h.DeleteTask)
			r.Patch("/done", h.MarkTaskAsDone)
			r.Patch("/completionPercentage", h.UpdateCompletionPercentage)
		})
	})
}

type CreateTaskRequest struct {
	ExpiryAt    time.Time `json:"expiryAt" validate:"required"`
	Title       string    `json:"title" validate:"required,max=100"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
}

type UpdateTaskRequest struct {
	ExpiryAt             time.Time `json:"expiryAt" validate:"required"`
	Title                string    `json:"title" validate:"required,max=100"`
	Description          *string   `json:"description" validate:"omitempty,max=5000"`
	CompletionPercentage int       `json:"completionPercentage" validate:"gte=0,lte=100"`
}

type UpdateCompletionPercentageRequest struct {
	CompletionPercentage *int `json:"completionPercentage" validate:"required,gte=0,lte=100"`
}

type TaskResponse struct {
	ID                   uuid.UUID  `json:"id"`
	ExpiryAt             time.Time  `json:"expiryAt"`
	Title                string     `json:"title"`
	Description          *string    `json:"description"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            *time.Time `json:"updatedAt,omitempty"`
	CompletionPercentage int        `json:"completionPercentage"`
	IsDone               bool       `json:"isDone"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func newTaskResponse(out usecase.TaskOutput) TaskResponse {
	return TaskResponse{
		ID:                   out.ID,
		ExpiryAt:             out.ExpiryAt,
		Title:                out.Title,
		Description:          out.Description,
		CreatedAt:            out.CreatedAt,
		UpdatedAt:            out.UpdatedAt,
		CompletionPercentage: out.CompletionPercentage,
		IsDone:               out.IsDone,
	}
}

// CreateTask обрабатывает создание новой задачи.
// @Summary      Создать задачу
// @Description  Создает новую задачу с нулевым прогрессом
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        task body     CreateTaskRequest true "Данные задачи"
// @Success      200  {object} TaskResponse
// @Failure      400  {object} ErrorResponse "Неверный формат данных"
// @Failure      500  {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router       /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !h.decode(w, r, "CreateTask", &req) {
		return
	}

	out, err := h.taskUseCase.CreateOne(r.Context(), usecase.CreateTaskInput{
		ExpiryAt:    req.ExpiryAt,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.respondUseCaseError(w, "CreateTask", uuid.Nil, err)
		return
	}

	respondWithJSON(w, http.StatusOK, newTaskResponse(out))
}

// GetTask обрабатывает получение задачи по ID.
// @Summary      Получить задачу
// @Tags         tasks
// @Produce      json
// @Param        id   path     string true "ID задачи"
// @Success      200  {object} TaskResponse
// @Failure      400  {object} ErrorResponse "Неверный формат ID"
// @Failure      404  {object} ErrorResponse "Задача не найдена"
// @Router       /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "GetTask")
	if !ok {
		return
	}

	out, err := h.taskUseCase.GetOne(r.Context(), id)
	if err != nil {
		h.respondUseCaseError(w, "GetTask", id, err)
		return
	}

	respondWithJSON(w, http.StatusOK, newTaskResponse(out))
}

// ListTasks обрабатывает получение списка задач.
// @Summary      Список задач
// @Description  Возвращает задачи, отфильтрованные по сроку, новые первыми
// @Tags         tasks
// @Produce      json
// @Param        filterBy query    string false "0 (All), 10 (OnlyToday), 20 (OnlyNextDay), 30 (OnlyCurrentWeek), 40 (OnlyNextWeek) или имя фильтра"
// @Success      200      {array}  TaskResponse
// @Failure      400      {object} ErrorResponse "Неизвестный фильтр"
// @Failure      500      {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router       /api/v1/tasks [get]
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := entity.ParseFilter(r.URL.Query().Get("filterBy"))
	if err != nil {
		logger.Log.WithField("method", "ListTasks").WithError(err).Warn("Invalid filter")
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := h.taskUseCase.GetMany(r.Context(), filter)
	if err != nil {
		h.respondUseCaseError(w, "ListTasks", uuid.Nil, err)
		return
	}

	resp := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, newTaskResponse(t))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// UpdateTask обрабатывает обновление задачи.
// @Summary      Обновить задачу
// @Description  Заменяет срок, заголовок, описание и прогресс. Без изменений задача не сохраняется.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id   path     string true "ID задачи"
// @Param        task body     UpdateTaskRequest true "Обновленные данные задачи"
// @Success      200  {object} TaskResponse
// @Failure      400  {object} ErrorResponse "Неверный формат ID или данных"
// @Failure      404  {object} ErrorResponse "Задача не найдена"
// @Router       /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "UpdateTask")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !h.decode(w, r, "UpdateTask", &req) {
		return
	}

	out, err := h.taskUseCase.UpdateOne(r.Context(), usecase.UpdateTaskInput{
		ID:                   id,
		ExpiryAt:             req.ExpiryAt,
		Title:                req.Title,
		Description:          req.Description,
		CompletionPercentage: req.CompletionPercentage,
	})
	if err != nil {
		h.respondUseCaseError(w, "UpdateTask", id, err)
		return
	}

	respondWithJSON(w, http.StatusOK, newTaskResponse(out))
}

// MarkTaskAsDone обрабатывает завершение задачи.
// @Summary      Завершить задачу
// @Tags         tasks
// @Produce      json
// @Param        id   path     string true "ID задачи"
// @Success      200  {object} TaskResponse
// @Failure      400  {object} ErrorResponse "Неверный формат ID"
// @Failure      404  {object} ErrorResponse "Задача не найдена"
// @Router       /api/v1/tasks/{id}/done [patch]
func (h *TaskHandler) MarkTaskAsDone(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "MarkTaskAsDone")
	if !ok {
		return
	}

	out, err := h.taskUseCase.MarkAsDone(r.Context(), id)
	if err != nil {
		h.respondUseCaseError(w, "MarkTaskAsDone", id, err)
		return
	}

	respondWithJSON(w, http.StatusOK, newTaskResponse(out))
}

// UpdateCompletionPercentage обрабатывает изменение прогресса задачи.
// @Summary      Изменить прогресс
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id      path     string true "ID задачи"
// @Param        request body     UpdateCompletionPercentageRequest true "Прогресс 0-100"
// @Success      200     {object} TaskResponse
// @Failure      400     {object} ErrorResponse "Неверный формат ID или данных"
// @Failure      404     {object} ErrorResponse "Задача не найдена"
// @Router       /api/v1/tasks/{id}/completionPercentage [patch]
func (h *TaskHandler) UpdateCompletionPercentage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "UpdateCompletionPercentage")
	if !ok {
		return
	}

	var req UpdateCompletionPercentageRequest
	if !h.decode(w, r, "UpdateCompletionPercentage", &req) {
		return
	}

	out, err := h.taskUseCase.UpdateCompletionPercentage(r.Context(), id, *req.CompletionPercentage)
	if err != nil {
		h.respondUseCaseError(w, "UpdateCompletionPercentage", id, err)
		return
	}

	respondWithJSON(w, http.StatusOK, newTaskResponse(out))
}

// DeleteTask обрабатывает удаление задачи.
// @Summary      Удалить задачу
// @Tags         tasks
// @Param        id   path     string true "ID задачи"
// @Success      202
// @Failure      400  {object} ErrorResponse "Неверный формат ID"
// @Failure      404  {object} ErrorResponse "Задача не найдена"
// @Router       /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "DeleteTask")
	if !ok {
		return
	}

	if err := h.taskUseCase.DeleteOne(r.Context(), id); err != nil {
		h.respondUseCaseError(w, "DeleteTask", id, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *TaskHandler) parseID(w http.ResponseWriter, r *http.Request, method string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"method": method, "task_id": raw}).Warn("Invalid task ID format")
		respondWithError(w, http.StatusBadRequest, "Invalid task ID format")
		return uuid.Nil, false
	}
	return id, true
}

// decode читает JSON-тело и проверяет его по тегам validate.
func (h *TaskHandler) decode(w http.ResponseWriter, r *http.Request, method string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Log.WithField("method", method).WithError(err).Warn("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		logger.Log.WithField("method", method).WithError(err).Warn("Request validation failed")
		respondWithError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func (h *TaskHandler) respondUseCaseError(w http.ResponseWriter, method string, id uuid.UUID, err error) {
	entry := logger.Log.WithField("method", method)
	if id != uuid.Nil {
		entry = entry.WithField("task_id", id.String())
	}

	switch {
	case errors.Is(err, entity.ErrTaskNotFound):
		entry.Warn("Task not found")
		respondWithError(w, http.StatusNotFound, "Task not found")
	case errors.Is(err, entity.ErrInvalidState):
		entry.WithError(err).Warn("Invalid task state")
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		entry.WithError(err).Error("Request failed")
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
