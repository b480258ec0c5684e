package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/taskmanager/internal/model"
	"github.com/sakif/taskmanager/internal/service"
)

// UserHandler serves the /user routes.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// createUserRequest is the body of POST /user/create. Pointer fields tell a
// missing key apart from a zero value.
type createUserRequest struct {
	Username  *string `json:"username" validate:"required"`
	Firstname *string `json:"firstname"`
	Lastname  *string `json:"lastname"`
	Age       *int    `json:"age"`
}

// updateUserRequest is the body of PUT /user/update/{id}. Every field is
// optional; nil (missing or null) leaves the stored value alone.
type updateUserRequest struct {
	Username  *string `json:"username"`
	Firstname *string `json:"firstname"`
	Lastname  *string `json:"lastname"`
	Age       *int    `json:"age"`
}

// HandleCreate creates a user.
//
// HTTP: POST /user/create
// REQUEST BODY: {"username": "alice", "firstname": "Alice", "lastname": "Smith", "age": 30}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if _, err := h.users.Create(r.Context(), *req.Username, req.Firstname, req.Lastname, req.Age); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeAck(w, h.logger, http.StatusCreated, "Successful")
}

// HandleList returns all users in store order.
//
// HTTP: GET /user/all_users[?limit=N&offset=M]
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	users, err := h.users.List(r.Context(), opts)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, users)
}

// HandleGetByID returns one user.
//
// HTTP: GET /user/{id}
func (h *UserHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, user)
}

// HandleUpdate applies a partial update.
//
// HTTP: PUT /user/update/{id}
// REQUEST BODY: any subset of {"username", "firstname", "lastname", "age"}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	patch := model.UserPatch{
		Username:  req.Username,
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Age:       req.Age,
	}
	if err := h.users.Update(r.Context(), id, patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeAck(w, h.logger, http.StatusOK, "User update is successful")
}

// HandleDelete removes a user and every task it owns.
//
// HTTP: DELETE /user/delete/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
