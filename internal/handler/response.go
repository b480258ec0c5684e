package handler

// RESPONSE HELPERS:
// Every handler writes through writeJSON, writeAck and writeError so the
// API has one success shape and one error shape:
//
//	{"status_code": 201, "transaction": "Successful"}
//	{"status": 404, "error": "not_found", "detail": "user not found with id 7"}
//
// Request bodies go through decodeJSON, which also runs the validator on
// struct tags. Path and query parameters go through parseID and
// parseListOptions. Any of these failing is a 422.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"

	"github.com/sakif/taskmanager/internal/apperror"
	"github.com/sakif/taskmanager/internal/repository"
)

// maxBodyBytes caps request bodies. Nothing legitimate comes close.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`  // not_found, conflict, validation_error, internal_error
	Detail string `json:"detail"` // human-readable description
	Field  string `json:"field,omitempty"`
}

// AckResponse acknowledges a successful write.
type AckResponse struct {
	StatusCode  int    `json:"status_code"`
	Transaction string `json:"transaction"`
}

var validate = newValidator()

// newValidator reports fields by their JSON names so error bodies match
// what the client sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeJSON sends a JSON response with the given status code.
// Headers must be set before WriteHeader; anything set afterwards is dropped.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; logging is all that's left.
			logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeAck(w http.ResponseWriter, logger *slog.Logger, status int, transaction string) {
	writeJSON(w, logger, status, AckResponse{StatusCode: status, Transaction: transaction})
}

// writeError maps a domain error to an HTTP status and sends it.
//
// ERROR MAPPING:
//
//	apperror.ErrValidation → 422 validation_error
//	apperror.ErrNotFound   → 404 not_found
//	apperror.ErrConflict   → 400 conflict
//	anything else          → 500 internal_error
//
// Internal errors are never echoed to the client. The client gets an opaque
// reference that also appears in the log line carrying the real error.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp := ErrorResponse{Detail: appErr.Message}

		switch {
		case errors.Is(err, apperror.ErrValidation):
			resp.Status = http.StatusUnprocessableEntity
			resp.Error = "validation_error"
			resp.Field = appErr.Field
		case errors.Is(err, apperror.ErrNotFound):
			resp.Status = http.StatusNotFound
			resp.Error = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			resp.Status = http.StatusBadRequest
			resp.Error = "conflict"
		}

		if resp.Status != 0 {
			writeJSON(w, logger, resp.Status, resp)
			return
		}
	}

	ref := xid.New().String()
	logger.Error("request failed",
		slog.String("ref", ref),
		slog.String("request_id", chimiddleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeJSON(w, logger, http.StatusInternalServerError, ErrorResponse{
		Status: http.StatusInternalServerError,
		Error:  "internal_error",
		Detail: fmt.Sprintf("An internal error occurred (ref %s)", ref),
	})
}

// decodeJSON decodes the request body into dst and validates its struct
// tags. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		var syntaxErr *json.SyntaxError
		var maxErr *http.MaxBytesError

		switch {
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return apperror.ValidationFailed(typeErr.Field,
				fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type))
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return apperror.ValidationFailed("body", "request body is not valid JSON")
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("body",
				fmt.Sprintf("request body must be %d bytes or less", maxErr.Limit))
		default:
			return apperror.ValidationFailed("body", "request body could not be decoded")
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperror.ValidationFailed("body", "request body must contain a single JSON object")
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			if fe.Tag() == "required" {
				return apperror.ValidationFailed(fe.Field(), fe.Field()+" is required")
			}
			return apperror.ValidationFailed(fe.Field(),
				fmt.Sprintf("%s failed the %q check", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("validating request: %w", err)
	}
	return nil
}

// parseID reads an integer chi URL parameter.
func parseID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("%s must be an integer, got %q", name, raw))
	}
	return id, nil
}

// parseQueryID reads a required integer query parameter.
func parseQueryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, apperror.ValidationFailed(name, name+" is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("%s must be an integer, got %q", name, raw))
	}
	return id, nil
}

// parseListOptions reads the optional limit and offset query parameters.
// A missing limit means every row.
func parseListOptions(r *http.Request) (repository.ListOptions, error) {
	var opts repository.ListOptions
	q := r.URL.Query()

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &opts.Limit},
		{"offset", &opts.Offset},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return opts, apperror.ValidationFailed(p.name,
				fmt.Sprintf("%s must be a non-negative integer, got %q", p.name, raw))
		}
		*p.dst = n
	}
	return opts, nil
}
