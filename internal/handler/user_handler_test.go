package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/kakikomi/internal/model"
	"github.com/hitoshi/kakikomi/internal/user"
)

// --- DELETE /api/users/deactivate/{userId} テスト ---

func TestUserHandler_Deactivate_Success(t *testing.T) {
	called := false
	svc := &mockUserService{
		deactivateFn: func(ctx context.Context, callerID, targetID string) (*user.DeactivationResult, error) {
			called = true
			if callerID != "user-123" || targetID != "user-123" {
				t.Errorf("callerID=%q targetID=%q", callerID, targetID)
			}
			return &user.DeactivationResult{ScrubbedPosts: 2, DeletedPosts: 1}, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/deactivate/user-123", nil)
	req = withChiURLParams(withUserID(req, "user-123"), "userId", "user-123")
	w := httptest.NewRecorder()
	h.Deactivate(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("204 response should have no body, got %q", w.Body.String())
	}
	if !called {
		t.Error("expected Deactivate to be called")
	}
}

func TestUserHandler_Deactivate_NoUserID_ReturnsUnauthorized(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/users/deactivate/user-123", nil)
	// ユーザーIDを注入しない
	w := httptest.NewRecorder()
	h.Deactivate(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestUserHandler_Deactivate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"他人の退会", model.NewForbiddenError(), http.StatusForbidden},
		{"ユーザーなし", model.NewUserNotFoundError(), http.StatusUnauthorized},
		{"整理の失敗", errors.New("1件の投稿で参照除去に失敗しました"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUserHandler(&mockUserService{
				deactivateFn: func(context.Context, string, string) (*user.DeactivationResult, error) {
					return nil, tt.err
				},
			})

			req := httptest.NewRequest(http.MethodDelete, "/api/users/deactivate/other", nil)
			req = withChiURLParams(withUserID(req, "user-123"), "userId", "other")
			w := httptest.NewRecorder()
			h.Deactivate(w, req)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			// 内部エラーの詳細はレスポンスに含めない
			if tt.status == http.StatusInternalServerError {
				if got := parseAPIErrorResponse(t, w)["code"]; got != "INTERNAL_ERROR" {
					t.Errorf("code = %q, want INTERNAL_ERROR", got)
				}
			}
		})
	}
}
