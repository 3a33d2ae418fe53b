// internal/app/features/errors/errors.go
//
// Package errors turns handler failures into JSON error responses and logs
// them through zap with the request's user and working group attached.
package errors

import (
	"net/http"

	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/app/system/workinggroup"
	"go.uber.org/zap"
)

// ErrorLogger writes error responses and logs the cause.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if u, ok := auth.CurrentUser(r); ok && u != nil {
		fields = append(fields, zap.String("user_id", u.ID.Hex()))
	}
	if id, ok := workinggroup.IDFromContext(r.Context()); ok {
		fields = append(fields, zap.String("working_group_id", id.Hex()))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	return fields
}

// LogServerError logs msg with err at error level and writes a 500 carrying
// userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Error(msg, e.fields(r, err)...)
	respond.Error(w, http.StatusInternalServerError, "server_error", userMsg)
}

// LogBadRequest logs at info level and writes a 400.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Info(msg, e.fields(r, err)...)
	respond.Error(w, http.StatusBadRequest, "bad_request", userMsg)
}

// Unauthorized writes a 401.
func (e *ErrorLogger) Unauthorized(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, http.StatusUnauthorized, "unauthorized", "Please sign in to continue.")
}

// Forbidden logs the denial at debug level and writes a 403.
func (e *ErrorLogger) Forbidden(w http.ResponseWriter, r *http.Request, userMsg string) {
	e.Log.Debug("access denied", e.fields(r, nil)...)
	if userMsg == "" {
		userMsg = "You don't have permission to do that."
	}
	respond.Error(w, http.StatusForbidden, "forbidden", userMsg)
}

// NotFound writes a 404.
func (e *ErrorLogger) NotFound(w http.ResponseWriter, r *http.Request, userMsg string) {
	if userMsg == "" {
		userMsg = "Not found."
	}
	respond.Error(w, http.StatusNotFound, "not_found", userMsg)
}

// Conflict writes a 409 with a specific error code.
func (e *ErrorLogger) Conflict(w http.ResponseWriter, r *http.Request, code, userMsg string) {
	e.Log.Info("conflict", append(e.fields(r, nil), zap.String("code", code))...)
	respond.Error(w, http.StatusConflict, code, userMsg)
}
