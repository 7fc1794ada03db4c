package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/kakikomi/internal/metrics"
	"github.com/hitoshi/kakikomi/internal/middleware"
)

// HealthChecker はヘルスチェックでDB接続を確認するためのインターフェース。*sql.DBが実装する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler
	HealthChecker     HealthChecker

	AuthService    AuthServiceInterface
	PostService    PostServiceInterface
	LikeService    LikeServiceInterface
	CommentService CommentServiceInterface
	UserService    UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Logging → Recovery → SecurityHeaders → CORS → Auth → RateLimit(General) [→ RateLimit(Write)]
//
// 登録・ログインは認証不要で、接続元IP単位のレート制限のみを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	postHandler := NewPostHandler(deps.PostService)
	reactionHandler := NewReactionHandler(deps.LikeService, deps.CommentService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Post("/api/users", authHandler.Register)
		r.Post("/api/users/login", authHandler.Login)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Authenticator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// /api/usersは登録用のPOSTと共有するためMountせず個別に登録する
		r.Get("/api/users/me", authHandler.Me)
		r.Delete("/api/users/deactivate/{userId}", userHandler.Deactivate)

		r.Route("/api/posts", func(r chi.Router) {
			r.Get("/", postHandler.ListPosts)
			// 作成系は専用のレート制限を追加
			r.With(deps.RateLimiter.WriteMiddleware()).Post("/", postHandler.CreatePost)

			r.Put("/like/{postId}", reactionHandler.ToggleLike)

			r.Route("/comment/{postId}", func(r chi.Router) {
				r.With(deps.RateLimiter.WriteMiddleware()).Post("/", reactionHandler.AddComment)
				r.Put("/{commentId}", reactionHandler.EditComment)
				r.Delete("/{commentId}", reactionHandler.RemoveComment)
			})

			r.Put("/{id}", postHandler.UpdatePost)
			r.Delete("/{id}", postHandler.DeletePost)
		})
	})

	return r
}

// healthHandler はDB接続を確認し、正常なら200、異常なら503を返す。
// checkerがnilの場合はプロセスの生存のみを返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
