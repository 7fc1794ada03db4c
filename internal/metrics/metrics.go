// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 上限超過の種別ラベル
const (
	QuotaPost    = "post"
	QuotaComment = "comment"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層・ワーカー・HTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordPostCreated()
	RecordPostDeleted()
	RecordQuotaRejected(kind string)
	RecordLikeToggled(liked bool)
	RecordCommentAdded()
	RecordCommentRemoved()
	RecordVersionConflict()
	RecordDeactivation(scrubbedPosts int, deletedPosts int64)
	RecordOrphansRepaired(count int64)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	postsCreated     prometheus.Counter
	postsDeleted     prometheus.Counter
	quotaRejected    *prometheus.CounterVec
	likesToggled     *prometheus.CounterVec
	commentsAdded    prometheus.Counter
	commentsRemoved  prometheus.Counter
	versionConflicts prometheus.Counter
	deactivations    prometheus.Counter
	cascadeScrubbed  prometheus.Counter
	cascadeDeleted   prometheus.Counter
	orphansRepaired  prometheus.Counter
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kakikomi_posts_created_total",
			Help: "作成された投稿の合計数",
		}),
		postsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kakikomi_posts_deleted_total",
			Help: "削除された投稿の合計数",
		}),
		quotaRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kakikomi_quota_rejected_total",
			Help: "上限超過で拒否された作成リクエスト数",
		}, []string{"kind"}),
		likesToggled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kakikomi_likes_toggled_total",
			Help: "いいねの付与・取り消しの合計数",
		}, []string{"action"}),
		commentsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kakikomi_comments_added_total",
			Help: "追加されたコメントの合計数",
		}),
		commentsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kakikomi_comments_removed_total",
			Help: "削除されたコメントの合計数",
		}),
		versionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kakikomi_version_conflicts_total",
			Help: "同時更新の衝突で拒否された更新の合計数",
		}),
		deactivations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kakikomi_deactivations_total",
			Help: "退会処理が完了したユーザー数",
		}),
		cascadeScrubbed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kakikomi_cascade_scrubbed_posts_total",
			Help: "退会処理でいいね・コメントを除去した他ユーザー投稿の合計数",
		}),
		cascadeDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kakikomi_cascade_deleted_posts_total",
			Help: "退会処理で削除された投稿の合計数",
		}),
		orphansRepaired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kakikomi_orphans_repaired_total",
			Help: "修復ジョブで孤立参照を除去した投稿の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kakikomi_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kakikomi_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.postsCreated,
		c.postsDeleted,
		c.quotaRejected,
		c.likesToggled,
		c.commentsAdded,
		c.commentsRemoved,
		c.versionConflicts,
		c.deactivations,
		c.cascadeScrubbed,
		c.cascadeDeleted,
		c.orphansRepaired,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

func (c *Collector) RecordPostCreated() { c.postsCreated.Inc() }

func (c *Collector) RecordPostDeleted() { c.postsDeleted.Inc() }

// RecordQuotaRejected は上限超過による拒否を記録する。kindはQuotaPostまたはQuotaComment。
func (c *Collector) RecordQuotaRejected(kind string) {
	c.quotaRejected.WithLabelValues(kind).Inc()
}

// RecordLikeToggled はいいねの付与（liked=true）または取り消しを記録する。
func (c *Collector) RecordLikeToggled(liked bool) {
	action := "unlike"
	if liked {
		action = "like"
	}
	c.likesToggled.WithLabelValues(action).Inc()
}

func (c *Collector) RecordCommentAdded() { c.commentsAdded.Inc() }

func (c *Collector) RecordCommentRemoved() { c.commentsRemoved.Inc() }

func (c *Collector) RecordVersionConflict() { c.versionConflicts.Inc() }

// RecordDeactivation は退会処理の完了と整理した投稿数を記録する。
func (c *Collector) RecordDeactivation(scrubbedPosts int, deletedPosts int64) {
	c.deactivations.Inc()
	c.cascadeScrubbed.Add(float64(scrubbedPosts))
	c.cascadeDeleted.Add(float64(deletedPosts))
}

// RecordOrphansRepaired は修復ジョブで更新した投稿数を記録する。
func (c *Collector) RecordOrphansRepaired(count int64) {
	c.orphansRepaired.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使用する。
type Nop struct{}

func (Nop) RecordPostCreated()                 {}
func (Nop) RecordPostDeleted()                 {}
func (Nop) RecordQuotaRejected(string)         {}
func (Nop) RecordLikeToggled(bool)             {}
func (Nop) RecordCommentAdded()                {}
func (Nop) RecordCommentRemoved()              {}
func (Nop) RecordVersionConflict()             {}
func (Nop) RecordDeactivation(int, int64)      {}
func (Nop) RecordOrphansRepaired(int64)        {}
func (Nop) RecordHTTPStatus(int)               {}
func (Nop) RecordRequestLatency(time.Duration) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
