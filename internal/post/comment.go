package post

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/kakikomi/internal/metrics"
	"github.com/hitoshi/kakikomi/internal/model"
	"github.com/hitoshi/kakikomi/internal/repository"
	"github.com/hitoshi/kakikomi/internal/security"
)

// CommentResult はコメント操作後の投稿IDと投稿者名付きコメント一覧。
type CommentResult struct {
	PostID   string
	Comments []model.CommentView
}

// CommentService はコメントの追加・編集・削除を提供する。
type CommentService struct {
	postRepo  repository.PostRepository
	resolver  nameResolver
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	now       func() time.Time
}

// NewCommentService はCommentServiceを生成する。
func NewCommentService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	sanitizer security.TextSanitizer,
	collector metrics.MetricsCollector,
) *CommentService {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &CommentService{
		postRepo:  postRepo,
		resolver:  nameResolver{userRepo: userRepo},
		sanitizer: sanitizer,
		metrics:   collector,
		now:       time.Now,
	}
}

// Add はコメントを先頭に追加する。
// 1ユーザーが1投稿に付けられるコメントは上限件数まで。他ユーザーの非公開投稿には付けられない。
func (s *CommentService) Add(ctx context.Context, callerID, postID, body string) (*CommentResult, error) {
	p, err := loadVisiblePost(ctx, s.postRepo, callerID, postID)
	if err != nil {
		return nil, err
	}

	body = s.sanitizer.SanitizeComment(body)
	if body == "" {
		return nil, model.NewValidationError("コメントを入力してください")
	}

	if p.Comments.CountByUser(callerID) >= model.MaxCommentsPerUserPerPost {
		s.metrics.RecordQuotaRejected(metrics.QuotaComment)
		return nil, model.NewCommentLimitError()
	}

	now := s.now()
	p.Comments = p.Comments.Prepend(model.Comment{
		ID:     uuid.New().String(),
		UserID: callerID,
		Body:   body,
		Date:   now,
	})
	p.UpdatedAt = now

	if err := savePost(ctx, s.postRepo, s.metrics, p); err != nil {
		return nil, err
	}

	s.metrics.RecordCommentAdded()
	slog.Info("comment added",
		slog.String("post_id", postID),
		slog.String("user_id", callerID),
	)

	return s.result(ctx, p)
}

// Edit は自分のコメントの本文を置き換え、日時を現在時刻に更新する。
func (s *CommentService) Edit(ctx context.Context, callerID, postID, commentID, body string) (*CommentResult, error) {
	p, i, err := s.loadOwnedComment(ctx, callerID, postID, commentID)
	if err != nil {
		return nil, err
	}

	body = s.sanitizer.SanitizeComment(body)
	if body == "" {
		return nil, model.NewValidationError("コメントを入力してください")
	}

	now := s.now()
	comments := make(model.Comments, len(p.Comments))
	copy(comments, p.Comments)
	comments[i].Body = body
	comments[i].Date = now
	p.Comments = comments
	p.UpdatedAt = now

	if err := savePost(ctx, s.postRepo, s.metrics, p); err != nil {
		return nil, err
	}

	slog.Info("comment edited",
		slog.String("post_id", postID),
		slog.String("comment_id", commentID),
	)

	return s.result(ctx, p)
}

// Remove は自分のコメントを1件削除する。
func (s *CommentService) Remove(ctx context.Context, callerID, postID, commentID string) (*CommentResult, error) {
	p, i, err := s.loadOwnedComment(ctx, callerID, postID, commentID)
	if err != nil {
		return nil, err
	}

	p.Comments = p.Comments.RemoveAt(i)
	p.UpdatedAt = s.now()

	if err := savePost(ctx, s.postRepo, s.metrics, p); err != nil {
		return nil, err
	}

	s.metrics.RecordCommentRemoved()
	slog.Info("comment removed",
		slog.String("post_id", postID),
		slog.String("comment_id", commentID),
	)

	return s.result(ctx, p)
}

// loadOwnedComment は投稿とコメント位置を取得し、呼び出し元がコメント投稿者であることを確認する。
func (s *CommentService) loadOwnedComment(ctx context.Context, callerID, postID, commentID string) (*model.Post, int, error) {
	p, err := loadVisiblePost(ctx, s.postRepo, callerID, postID)
	if err != nil {
		return nil, 0, err
	}

	i := p.Comments.IndexOf(commentID)
	if i < 0 {
		return nil, 0, model.NewCommentNotFoundError(commentID)
	}
	if p.Comments[i].UserID != callerID {
		return nil, 0, model.NewForbiddenError()
	}
	return p, i, nil
}

func (s *CommentService) result(ctx context.Context, p *model.Post) (*CommentResult, error) {
	views, err := s.resolver.commentViews(ctx, p.Comments)
	if err != nil {
		return nil, err
	}
	return &CommentResult{PostID: p.ID, Comments: views}, nil
}
