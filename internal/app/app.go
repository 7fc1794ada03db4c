// Package app は設定読み込み・依存関係のワイヤリング・起動モードの切り替えを行う。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/kakikomi/internal/auth"
	"github.com/hitoshi/kakikomi/internal/config"
	"github.com/hitoshi/kakikomi/internal/database"
	"github.com/hitoshi/kakikomi/internal/handler"
	"github.com/hitoshi/kakikomi/internal/logger"
	"github.com/hitoshi/kakikomi/internal/metrics"
	"github.com/hitoshi/kakikomi/internal/middleware"
	"github.com/hitoshi/kakikomi/internal/post"
	"github.com/hitoshi/kakikomi/internal/repository"
	"github.com/hitoshi/kakikomi/internal/security"
	"github.com/hitoshi/kakikomi/internal/user"
	"github.com/hitoshi/kakikomi/internal/worker/repair"
	"github.com/prometheus/client_golang/prometheus"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定に従ってログレベルを変更する
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to set log level: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// newRouter はDB接続から全依存関係を組み立て、APIのルーターを返す。
// 返却するRateLimiterはサーバー停止時にStopする。
func newRouter(cfg *config.Config, db *sql.DB, reg prometheus.Registerer, gatherer prometheus.Gatherer) (http.Handler, *middleware.RateLimiter) {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)

	// 2. 横断的な部品の初期化
	collector := metrics.NewCollector(reg)
	sanitizer := security.NewSanitizer()
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	// 3. ドメインサービスの初期化
	authService := auth.NewService(userRepo, tokens, auth.ServiceConfig{BcryptCost: cfg.BcryptCost})
	postService := post.NewService(postRepo, userRepo, sanitizer, collector, post.ServiceConfig{
		PublicFeedLimit: cfg.PublicFeedLimit,
	})
	likeService := post.NewLikeService(postRepo, collector)
	commentService := post.NewCommentService(postRepo, userRepo, sanitizer, collector)
	userService := user.NewService(userRepo, postRepo, collector)

	// 4. ルーターの構築（configのレート制限はreq/min単位）
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral, cfg.RateLimitWrite),
	)

	deps := &handler.RouterDeps{
		Authenticator:     auth.NewGuard(tokens, userRepo),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(gatherer),
		HealthChecker:     db,

		AuthService:    authService,
		PostService:    postService,
		LikeService:    likeService,
		CommentService: commentService,
		UserService:    userService,
	}

	return handler.NewRouter(deps), rateLimiter
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	router, rateLimiter := newRouter(cfg, db, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、孤立したいいね・コメントの修復ジョブを定期実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	// ワーカーは/metricsを公開しないため、メトリクスは記録しない
	job := repair.NewJob(db, slog.Default(), metrics.Nop{})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("worker starting",
		slog.Duration("repair_interval", cfg.RepairInterval),
	)

	// 修復ジョブをメインgoroutineで実行（ブロッキング）
	job.RunEvery(ctx, cfg.RepairInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
