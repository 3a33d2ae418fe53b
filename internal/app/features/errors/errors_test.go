package errors_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/printhub/internal/app/features/errors"
	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorLogger_Responses(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop())

	tests := []struct {
		name   string
		write  func(w http.ResponseWriter, r *http.Request)
		status int
		code   string
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			el.LogServerError(w, r, "boom", errors.New("db down"), "A database error occurred.")
		}, http.StatusInternalServerError, "server_error"},
		{"bad request", func(w http.ResponseWriter, r *http.Request) {
			el.LogBadRequest(w, r, "decode failed", errors.New("eof"), "Invalid JSON.")
		}, http.StatusBadRequest, "bad_request"},
		{"unauthorized", el.Unauthorized, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", func(w http.ResponseWriter, r *http.Request) {
			el.Forbidden(w, r, "")
		}, http.StatusForbidden, "forbidden"},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			el.NotFound(w, r, "")
		}, http.StatusNotFound, "not_found"},
		{"conflict", func(w http.ResponseWriter, r *http.Request) {
			el.Conflict(w, r, "duplicate_slug", "Slug taken.")
		}, http.StatusConflict, "duplicate_slug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var body respond.ErrorBody
			testutil.DecodeJSON(t, rec, &body)
			if body.Error != tt.code {
				t.Errorf("error = %q, want %q", body.Error, tt.code)
			}
			if body.Message == "" {
				t.Error("expected a message")
			}
		})
	}
}

func TestErrorLogger_LogsServerErrors(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	el := uierrors.NewErrorLogger(zap.New(core))

	req := testutil.WithUser(httptest.NewRequest(http.MethodGet, "/orders", nil), testutil.PlainUser())
	el.LogServerError(httptest.NewRecorder(), req, "load orders failed", errors.New("timeout"), "A database error occurred.")

	entries := logs.FilterMessage("load orders failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["path"] != "/orders" {
		t.Errorf("path = %v", ctx["path"])
	}
	if _, ok := ctx["user_id"]; !ok {
		t.Error("expected user_id field")
	}
	if ctx["error"] != "timeout" {
		t.Errorf("error = %v", ctx["error"])
	}
}
