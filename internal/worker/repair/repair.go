// Package repair は退会済みユーザーへの参照を投稿から取り除く修復ジョブを提供する。
// 退会処理の整理と同時に書き込まれたいいね・コメントなど、
// 存在しないユーザーを指す埋め込み要素を定期的に除去する。
package repair

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/kakikomi/internal/metrics"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// scrubOrphansQuery はusersに存在しないuser_idを持つコメント・いいねを除去する。
// 配列内の順序は保ち、書き換えた投稿はバージョンを進めて並行する読み込み→書き戻しを衝突させる。
const scrubOrphansQuery = `
UPDATE posts p SET
    comments = COALESCE((
        SELECT jsonb_agg(e.elem ORDER BY e.ord)
        FROM jsonb_array_elements(p.comments) WITH ORDINALITY AS e(elem, ord)
        WHERE EXISTS (SELECT 1 FROM users u WHERE u.id::text = e.elem->>'user_id')
    ), '[]'::jsonb),
    likes = COALESCE((
        SELECT jsonb_agg(e.elem ORDER BY e.ord)
        FROM jsonb_array_elements(p.likes) WITH ORDINALITY AS e(elem, ord)
        WHERE EXISTS (SELECT 1 FROM users u WHERE u.id::text = e.elem->>'user_id')
    ), '[]'::jsonb),
    version = p.version + 1,
    updated_at = now()
WHERE EXISTS (
        SELECT 1 FROM jsonb_array_elements(p.comments) AS c(elem)
        WHERE NOT EXISTS (SELECT 1 FROM users u WHERE u.id::text = c.elem->>'user_id')
    )
   OR EXISTS (
        SELECT 1 FROM jsonb_array_elements(p.likes) AS l(elem)
        WHERE NOT EXISTS (SELECT 1 FROM users u WHERE u.id::text = l.elem->>'user_id')
    )`

// Job は孤立したいいね・コメントの修復ジョブ。
// 何度実行しても結果は変わらない。
type Job struct {
	db      Executor
	logger  *slog.Logger
	metrics metrics.MetricsCollector
}

// NewJob は新しいJobを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewJob(db Executor, logger *slog.Logger, collector metrics.MetricsCollector) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Job{
		db:      db,
		logger:  logger,
		metrics: collector,
	}
}

// Run は1回分の修復を実行し、書き換えた投稿数を返す。
func (j *Job) Run(ctx context.Context) (int64, error) {
	start := time.Now()

	result, err := j.db.ExecContext(ctx, scrubOrphansQuery)
	if err != nil {
		j.logger.Error("参照修復ジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("参照修復の実行に失敗: %w", err)
	}

	repaired, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("修復件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("修復件数の取得に失敗: %w", err)
	}

	j.metrics.RecordOrphansRepaired(repaired)

	duration := time.Since(start)
	j.logger.Info("参照修復ジョブが完了しました",
		slog.Int64("repaired_posts", repaired),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return repaired, nil
}

// RunEvery は起動直後に1回実行し、その後interval毎に実行する。
// ctxがキャンセルされるまで戻らない。個々の実行の失敗はログに残して次回に持ち越す。
func (j *Job) RunEvery(ctx context.Context, interval time.Duration) {
	j.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("参照修復ジョブを停止します")
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *Job) runOnce(ctx context.Context) {
	// エラーはRun内でログ済み
	_, _ = j.Run(ctx)
}
