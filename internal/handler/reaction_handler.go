package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/kakikomi/internal/post"
)

// LikeServiceInterface はいいねハンドラーが必要とするサービスインターフェース。
type LikeServiceInterface interface {
	Toggle(ctx context.Context, callerID, postID string) (*post.LikeResult, error)
}

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	Add(ctx context.Context, callerID, postID, body string) (*post.CommentResult, error)
	Edit(ctx context.Context, callerID, postID, commentID, body string) (*post.CommentResult, error)
	Remove(ctx context.Context, callerID, postID, commentID string) (*post.CommentResult, error)
}

// ReactionHandler はいいね・コメントのHTTPハンドラー。
type ReactionHandler struct {
	likes    LikeServiceInterface
	comments CommentServiceInterface
}

// NewReactionHandler はReactionHandlerを生成する。
func NewReactionHandler(likes LikeServiceInterface, comments CommentServiceInterface) *ReactionHandler {
	return &ReactionHandler{likes: likes, comments: comments}
}

type commentRequest struct {
	Body string `json:"body"`
}

// ToggleLike はいいねを付け外しする。
// PUT /api/posts/like/{postId}
func (h *ReactionHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	result, err := h.likes.Toggle(r.Context(), userID, chi.URLParam(r, "postId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, likesResponse{
		ID:    result.PostID,
		Likes: toLikeResponses(result.Likes),
		Liked: result.Liked,
	})
}

// AddComment はコメントを追加する。
// POST /api/posts/comment/{postId}
func (h *ReactionHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	result, err := h.comments.Add(r.Context(), userID, chi.URLParam(r, "postId"), req.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCommentsResponse(result))
}

// EditComment は自分のコメントを編集する。
// PUT /api/posts/comment/{postId}/{commentId}
func (h *ReactionHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	result, err := h.comments.Edit(r.Context(), userID, chi.URLParam(r, "postId"), chi.URLParam(r, "commentId"), req.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCommentsResponse(result))
}

// RemoveComment は自分のコメントを削除する。
// DELETE /api/posts/comment/{postId}/{commentId}
func (h *ReactionHandler) RemoveComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	result, err := h.comments.Remove(r.Context(), userID, chi.URLParam(r, "postId"), chi.URLParam(r, "commentId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCommentsResponse(result))
}

func toCommentsResponse(result *post.CommentResult) commentsResponse {
	return commentsResponse{
		ID:       result.PostID,
		Comments: toCommentResponses(result.Comments),
	}
}
