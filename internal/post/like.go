package post

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/kakikomi/internal/metrics"
	"github.com/hitoshi/kakikomi/internal/model"
	"github.com/hitoshi/kakikomi/internal/repository"
)

// LikeResult はいいねトグル後の投稿IDといいね一覧。
type LikeResult struct {
	PostID string
	Likes  model.Likes
	Liked  bool
}

// LikeService はいいねのトグルを提供する。
type LikeService struct {
	postRepo repository.PostRepository
	metrics  metrics.MetricsCollector
	now      func() time.Time
}

// NewLikeService はLikeServiceを生成する。
func NewLikeService(postRepo repository.PostRepository, collector metrics.MetricsCollector) *LikeService {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &LikeService{postRepo: postRepo, metrics: collector, now: time.Now}
}

// Toggle は呼び出し元のいいねを付け外しする。
// 未いいねなら先頭に追加し、いいね済みなら最初に一致した1件だけを取り除く。
// 他ユーザーの非公開投稿にはいいねできない。
func (s *LikeService) Toggle(ctx context.Context, callerID, postID string) (*LikeResult, error) {
	p, err := loadVisiblePost(ctx, s.postRepo, callerID, postID)
	if err != nil {
		return nil, err
	}

	liked := false
	if i := p.Likes.IndexOfUser(callerID); i >= 0 {
		p.Likes = p.Likes.RemoveAt(i)
	} else {
		p.Likes = p.Likes.Prepend(model.Like{ID: uuid.New().String(), UserID: callerID})
		liked = true
	}
	p.UpdatedAt = s.now()

	if err := savePost(ctx, s.postRepo, s.metrics, p); err != nil {
		return nil, err
	}

	s.metrics.RecordLikeToggled(liked)
	slog.Info("like toggled",
		slog.String("post_id", postID),
		slog.String("user_id", callerID),
		slog.Bool("liked", liked),
	)

	return &LikeResult{PostID: p.ID, Likes: p.Likes, Liked: liked}, nil
}
