package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/taskmanager/internal/model"
	"github.com/sakif/taskmanager/internal/service"
)

// TaskHandler serves the /task routes.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

type createTaskRequest struct {
	Title     *string `json:"title" validate:"required"`
	Content   *string `json:"content"`
	Priority  *int    `json:"priority" validate:"required"`
	Completed *bool   `json:"completed" validate:"required"`
}

type updateTaskRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Priority  *int    `json:"priority"`
	Completed *bool   `json:"completed"`
}

// HandleCreate creates a task owned by the user_id query parameter.
//
// HTTP: POST /task/create?user_id=1
// REQUEST BODY: {"title": "Buy Milk", "content": "2 liters", "priority": 1, "completed": false}
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := parseQueryID(r, "user_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	_, err = h.tasks.Create(r.Context(), userID, *req.Title, req.Content, *req.Priority, *req.Completed)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeAck(w, h.logger, http.StatusCreated, "Successful")
}

// HTTP: GET /task/[?limit=N&offset=M]
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	tasks, err := h.tasks.List(r.Context(), opts)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, tasks)
}

// HTTP: GET /task/{id}
func (h *TaskHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	task, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, task)
}

// HTTP: PUT /task/update/{id}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	patch := model.TaskPatch{
		Title:     req.Title,
		Content:   req.Content,
		Priority:  req.Priority,
		Completed: req.Completed,
	}
	if err := h.tasks.Update(r.Context(), id, patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeAck(w, h.logger, http.StatusOK, "Task update is successful")
}

// HTTP: DELETE /task/delete/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.tasks.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListByUser returns the tasks owned by one user, 404 if the user
// doesn't exist.
//
// HTTP: GET /task/user/{user_id}/tasks
func (h *TaskHandler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "user_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	tasks, err := h.tasks.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, tasks)
}
