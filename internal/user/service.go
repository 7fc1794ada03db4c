// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/kakikomi/internal/metrics"
	"github.com/hitoshi/kakikomi/internal/model"
	"github.com/hitoshi/kakikomi/internal/repository"
)

// PostStore は退会処理で使う投稿の操作インターフェース。
type PostStore interface {
	ListReferencingUser(ctx context.Context, userID string) ([]*model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}

// DeactivationResult は退会処理で整理した件数。
type DeactivationResult struct {
	ScrubbedPosts int   // いいね・コメントを除去した他ユーザーの投稿数
	DeletedPosts  int64 // 削除した本人の投稿数
}

// Service はユーザー管理のサービス層。
// 退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	posts    PostStore
	metrics  metrics.MetricsCollector
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, posts PostStore, collector metrics.MetricsCollector) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		userRepo: userRepo,
		posts:    posts,
		metrics:  collector,
		now:      time.Now,
	}
}

// Deactivate はユーザーの退会処理を実行する。本人以外は退会させられない。
// 処理順序: 他ユーザーの投稿からいいね・コメントを除去 → 本人の投稿を削除 → ユーザーを削除。
// トランザクションは使わず、除去に失敗した投稿があった場合はログを残して残りの投稿を続行し、
// 最後にエラーを返してユーザーは削除しない（再実行で残りを整理できる）。
func (s *Service) Deactivate(ctx context.Context, callerID, targetID string) (*DeactivationResult, error) {
	if callerID != targetID {
		return nil, model.NewForbiddenError()
	}

	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", targetID),
	)

	// 1. 他ユーザーの投稿から本人のいいね・コメントを除去
	scrubbed, err := s.scrubReferences(ctx, targetID)
	if err != nil {
		return nil, err
	}

	// 2. 本人の投稿を削除（埋め込みのいいね・コメントごと）
	deleted, err := s.posts.DeleteByUserID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}

	// 3. ユーザーを削除
	if err := s.userRepo.DeleteByID(ctx, targetID); err != nil {
		return nil, fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	s.metrics.RecordDeactivation(scrubbed, deleted)
	slog.Info("退会処理が完了しました",
		slog.String("user_id", targetID),
		slog.Int("scrubbed_posts", scrubbed),
		slog.Int64("deleted_posts", deleted),
	)

	return &DeactivationResult{ScrubbedPosts: scrubbed, DeletedPosts: deleted}, nil
}

// scrubReferences は本人のいいね・コメントを含む投稿を1件ずつ書き戻す。
// 本人の投稿は後で削除するため対象外とする。
func (s *Service) scrubReferences(ctx context.Context, userID string) (int, error) {
	posts, err := s.posts.ListReferencingUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("参照投稿の取得に失敗しました: %w", err)
	}

	scrubbed := 0
	var errs []error
	for _, p := range posts {
		if p.UserID == userID {
			continue
		}

		comments, removedComments := p.Comments.WithoutUser(userID)
		likes, removedLikes := p.Likes.WithoutUser(userID)
		if removedComments == 0 && removedLikes == 0 {
			continue
		}
		p.Comments = comments
		p.Likes = likes
		p.UpdatedAt = s.now()

		if err := s.posts.Update(ctx, p); err != nil {
			slog.Error("退会ユーザーの参照除去に失敗しました",
				slog.String("user_id", userID),
				slog.String("post_id", p.ID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("post %s: %w", p.ID, err))
			continue
		}
		scrubbed++
	}

	if len(errs) > 0 {
		return scrubbed, fmt.Errorf("%d件の投稿で参照除去に失敗しました: %w", len(errs), errors.Join(errs...))
	}
	return scrubbed, nil
}
