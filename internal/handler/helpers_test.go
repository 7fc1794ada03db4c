package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/kakikomi/internal/auth"
	"github.com/hitoshi/kakikomi/internal/middleware"
	"github.com/hitoshi/kakikomi/internal/model"
	"github.com/hitoshi/kakikomi/internal/post"
	"github.com/hitoshi/kakikomi/internal/user"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn       func(ctx context.Context, name, email, password string) (*auth.AuthResult, error)
	loginFn          func(ctx context.Context, email, password string) (*auth.AuthResult, error)
	getCurrentUserFn func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, name, email, password string) (*auth.AuthResult, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, name, email, password)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.AuthResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if m.getCurrentUserFn != nil {
		return m.getCurrentUserFn(ctx, userID)
	}
	return nil, nil
}

type mockPostService struct {
	listFn   func(ctx context.Context, callerID string) ([]*model.PostView, error)
	createFn func(ctx context.Context, callerID, title, content string, isPrivate bool) (*model.PostView, error)
	updateFn func(ctx context.Context, callerID, postID string, in post.UpdateInput) (*model.PostView, error)
	deleteFn func(ctx context.Context, callerID, postID string) (string, error)
}

func (m *mockPostService) List(ctx context.Context, callerID string) ([]*model.PostView, error) {
	if m.listFn != nil {
		return m.listFn(ctx, callerID)
	}
	return nil, nil
}

func (m *mockPostService) Create(ctx context.Context, callerID, title, content string, isPrivate bool) (*model.PostView, error) {
	if m.createFn != nil {
		return m.createFn(ctx, callerID, title, content, isPrivate)
	}
	return nil, nil
}

func (m *mockPostService) Update(ctx context.Context, callerID, postID string, in post.UpdateInput) (*model.PostView, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, callerID, postID, in)
	}
	return nil, nil
}

func (m *mockPostService) Delete(ctx context.Context, callerID, postID string) (string, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, callerID, postID)
	}
	return postID, nil
}

type mockLikeService struct {
	toggleFn func(ctx context.Context, callerID, postID string) (*post.LikeResult, error)
}

func (m *mockLikeService) Toggle(ctx context.Context, callerID, postID string) (*post.LikeResult, error) {
	if m.toggleFn != nil {
		return m.toggleFn(ctx, callerID, postID)
	}
	return &post.LikeResult{PostID: postID}, nil
}

type mockCommentService struct {
	addFn    func(ctx context.Context, callerID, postID, body string) (*post.CommentResult, error)
	editFn   func(ctx context.Context, callerID, postID, commentID, body string) (*post.CommentResult, error)
	removeFn func(ctx context.Context, callerID, postID, commentID string) (*post.CommentResult, error)
}

func (m *mockCommentService) Add(ctx context.Context, callerID, postID, body string) (*post.CommentResult, error) {
	if m.addFn != nil {
		return m.addFn(ctx, callerID, postID, body)
	}
	return &post.CommentResult{PostID: postID}, nil
}

func (m *mockCommentService) Edit(ctx context.Context, callerID, postID, commentID, body string) (*post.CommentResult, error) {
	if m.editFn != nil {
		return m.editFn(ctx, callerID, postID, commentID, body)
	}
	return &post.CommentResult{PostID: postID}, nil
}

func (m *mockCommentService) Remove(ctx context.Context, callerID, postID, commentID string) (*post.CommentResult, error) {
	if m.removeFn != nil {
		return m.removeFn(ctx, callerID, postID, commentID)
	}
	return &post.CommentResult{PostID: postID}, nil
}

type mockUserService struct {
	deactivateFn func(ctx context.Context, callerID, targetID string) (*user.DeactivationResult, error)
}

func (m *mockUserService) Deactivate(ctx context.Context, callerID, targetID string) (*user.DeactivationResult, error) {
	if m.deactivateFn != nil {
		return m.deactivateFn(ctx, callerID, targetID)
	}
	return &user.DeactivationResult{}, nil
}

// --- テストヘルパー ---

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParams はテスト用にchiのURLパラメータを注入するヘルパー。
// key, value, key, value... の順で指定する。
func withChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// jsonRequest はJSONボディ付きのリクエストを生成する。
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response: %v\nbody: %s", err, w.Body.String())
	}
}
