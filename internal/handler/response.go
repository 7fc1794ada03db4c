package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/kakikomi/internal/middleware"
	"github.com/hitoshi/kakikomi/internal/model"
)

// maxRequestBodyBytes はJSONリクエストボディの上限サイズ。
const maxRequestBodyBytes = 1 << 20

// userResponse はユーザー情報のAPIレスポンス。登録・ログイン時はトークンを含む。
type userResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type likeResponse struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

type commentResponse struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	Body     string    `json:"body"`
	Date     time.Time `json:"date"`
}

// postResponse は投稿のAPIレスポンス。投稿者名とコメント投稿者名を含む。
type postResponse struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	UserName  string            `json:"user_name"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	IsPrivate bool              `json:"is_private"`
	Likes     []likeResponse    `json:"likes"`
	Comments  []commentResponse `json:"comments"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// idResponse は削除操作のレスポンス。
type idResponse struct {
	ID string `json:"id"`
}

// likesResponse はいいねトグルのレスポンス。
type likesResponse struct {
	ID    string         `json:"id"`
	Likes []likeResponse `json:"likes"`
	Liked bool           `json:"liked"`
}

// commentsResponse はコメント操作のレスポンス。
type commentsResponse struct {
	ID       string            `json:"id"`
	Comments []commentResponse `json:"comments"`
}

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

func toLikeResponses(likes model.Likes) []likeResponse {
	out := make([]likeResponse, len(likes))
	for i, l := range likes {
		out[i] = likeResponse{ID: l.ID, UserID: l.UserID}
	}
	return out
}

func toCommentResponses(comments []model.CommentView) []commentResponse {
	out := make([]commentResponse, len(comments))
	for i, c := range comments {
		out[i] = commentResponse{
			ID:       c.ID,
			UserID:   c.UserID,
			UserName: c.UserName,
			Body:     c.Body,
			Date:     c.Date,
		}
	}
	return out
}

func toPostResponse(view *model.PostView) postResponse {
	return postResponse{
		ID:        view.ID,
		UserID:    view.UserID,
		UserName:  view.UserName,
		Title:     view.Title,
		Content:   view.Content,
		IsPrivate: view.IsPrivate,
		Likes:     toLikeResponses(view.Likes),
		Comments:  toCommentResponses(view.Comments),
		CreatedAt: view.CreatedAt,
		UpdatedAt: view.UpdatedAt,
	}
}

// writeJSON はステータスコードとJSONボディを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをdstにデコードする。
// 失敗した場合は400レスポンスを書き込んでfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, strict bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Kind:     model.KindValidation,
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return false
	}
	return true
}

// callerID は認証済みユーザーIDを返す。
// 認証ミドルウェアを通っていない場合は401レスポンスを書き込んでfalseを返す。
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, model.NewUnauthenticatedError())
		return "", false
	}
	return userID, true
}

// handleServiceError はサービス層から返されたエラーをエラー種別に応じたHTTPレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}
