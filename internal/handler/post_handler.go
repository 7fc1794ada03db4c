package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/kakikomi/internal/model"
	"github.com/hitoshi/kakikomi/internal/post"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	List(ctx context.Context, callerID string) ([]*model.PostView, error)
	Create(ctx context.Context, callerID, title, content string, isPrivate bool) (*model.PostView, error)
	Update(ctx context.Context, callerID, postID string, in post.UpdateInput) (*model.PostView, error)
	Delete(ctx context.Context, callerID, postID string) (string, error)
}

// PostHandler は投稿のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

type createPostRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	IsPrivate bool   `json:"is_private"`
}

// updatePostRequest は部分更新リクエスト。所有者を表すフィールドは受け付けない。
type updatePostRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	IsPrivate *bool   `json:"is_private"`
}

// ListPosts は公開投稿の新着と自分の投稿を返す。
// GET /api/posts
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	views, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	posts := make([]postResponse, len(views))
	for i, v := range views {
		posts[i] = toPostResponse(v)
	}
	writeJSON(w, http.StatusOK, posts)
}

// CreatePost は投稿を作成する。
// POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req createPostRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	view, err := h.service.Create(r.Context(), userID, req.Title, req.Content, req.IsPrivate)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPostResponse(view))
}

// UpdatePost は自分の投稿を部分更新する。
// PUT /api/posts/{id}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req updatePostRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	view, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), post.UpdateInput{
		Title:     req.Title,
		Content:   req.Content,
		IsPrivate: req.IsPrivate,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(view))
}

// DeletePost は自分の投稿を削除し、削除した投稿IDを返す。
// DELETE /api/posts/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	id, err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, idResponse{ID: id})
}
