package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/kakikomi/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Deactivate はユーザーの退会処理を実行する。
	// 他ユーザーの投稿からいいね・コメントを除去し、本人の投稿とユーザーを削除する。
	Deactivate(ctx context.Context, callerID, targetID string) (*user.DeactivationResult, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// Deactivate はユーザーの退会処理を実行する。本人以外は403。
// DELETE /api/users/deactivate/{userId}
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	if _, err := h.service.Deactivate(r.Context(), userID, chi.URLParam(r, "userId")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
