// Package post は投稿・いいね・コメントのドメインロジックを提供する。
//
// 投稿の所有者確認、投稿数・コメント数の上限、いいねのトグルを扱う。
// いいねとコメントは投稿に埋め込まれているため、変更はすべて
// 投稿単位の読み込み→検証→書き戻しで行い、同時更新はバージョンで検出する。
package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/kakikomi/internal/metrics"
	"github.com/hitoshi/kakikomi/internal/model"
	"github.com/hitoshi/kakikomi/internal/repository"
	"github.com/hitoshi/kakikomi/internal/security"
)

// DefaultPublicFeedLimit は一覧に含める公開投稿の既定件数。
const DefaultPublicFeedLimit = 15

// ServiceConfig は投稿サービスの設定。
type ServiceConfig struct {
	PublicFeedLimit int
}

// UpdateInput は投稿の部分更新内容。nilのフィールドは変更しない。
// 所有者は変更対象に含まれない。
type UpdateInput struct {
	Title     *string
	Content   *string
	IsPrivate *bool
}

// Service は投稿の一覧・作成・更新・削除を提供する。
type Service struct {
	postRepo  repository.PostRepository
	resolver  nameResolver
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	config    ServiceConfig
	now       func() time.Time
}

// NewService はServiceを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	sanitizer security.TextSanitizer,
	collector metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	if config.PublicFeedLimit <= 0 {
		config.PublicFeedLimit = DefaultPublicFeedLimit
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		postRepo:  postRepo,
		resolver:  nameResolver{userRepo: userRepo},
		sanitizer: sanitizer,
		metrics:   collector,
		config:    config,
		now:       time.Now,
	}
}

// List は公開投稿の新着と呼び出し元の全投稿を重複なしで返す。
// 並び順は公開投稿（新しい順）が先で、その後に未出の自分の投稿（新しい順）が続く。
// 他ユーザーの非公開投稿は含まれない。
func (s *Service) List(ctx context.Context, callerID string) ([]*model.PostView, error) {
	public, err := s.postRepo.ListPublic(ctx, s.config.PublicFeedLimit)
	if err != nil {
		return nil, fmt.Errorf("公開投稿の取得に失敗しました: %w", err)
	}
	own, err := s.postRepo.ListByUserID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("自分の投稿の取得に失敗しました: %w", err)
	}

	return s.resolver.postViews(ctx, mergeFeed(public, own))
}

// mergeFeed はpublicの順序を保ったまま、未出のownを末尾に追加する。
func mergeFeed(public, own []*model.Post) []*model.Post {
	merged := make([]*model.Post, 0, len(public)+len(own))
	seen := make(map[string]bool, len(public)+len(own))
	for _, list := range [][]*model.Post{public, own} {
		for _, p := range list {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			merged = append(merged, p)
		}
	}
	return merged
}

// Create は投稿を作成する。
// タイトル・本文はサニタイズ後に空であれば入力不正、保有投稿数が上限に達していれば上限超過となる。
func (s *Service) Create(ctx context.Context, callerID, title, content string, isPrivate bool) (*model.PostView, error) {
	title, content, err := s.sanitizePost(title, content)
	if err != nil {
		return nil, err
	}

	count, err := s.postRepo.CountByUserID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("投稿数の取得に失敗しました: %w", err)
	}
	if count >= model.MaxPostsPerUser {
		s.metrics.RecordQuotaRejected(metrics.QuotaPost)
		return nil, model.NewPostLimitError()
	}

	now := s.now()
	p := &model.Post{
		ID:        uuid.New().String(),
		UserID:    callerID,
		Title:     title,
		Content:   content,
		IsPrivate: isPrivate,
		Likes:     model.Likes{},
		Comments:  model.Comments{},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.postRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}

	s.metrics.RecordPostCreated()
	slog.Info("post created",
		slog.String("post_id", p.ID),
		slog.String("user_id", callerID),
		slog.Bool("is_private", isPrivate),
	)

	return s.resolver.postView(ctx, p)
}

// Update は自分の投稿のタイトル・本文・公開設定を部分更新する。
// 作成日時と所有者は変更しない。
func (s *Service) Update(ctx context.Context, callerID, postID string, in UpdateInput) (*model.PostView, error) {
	p, err := loadOwnedPost(ctx, s.postRepo, callerID, postID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := s.sanitizer.SanitizeTitle(*in.Title)
		if title == "" {
			return nil, model.NewValidationError("タイトルを入力してください")
		}
		p.Title = title
	}
	if in.Content != nil {
		content := s.sanitizer.SanitizeContent(*in.Content)
		if content == "" {
			return nil, model.NewValidationError("本文を入力してください")
		}
		p.Content = content
	}
	if in.IsPrivate != nil {
		p.IsPrivate = *in.IsPrivate
	}
	p.UpdatedAt = s.now()

	if err := savePost(ctx, s.postRepo, s.metrics, p); err != nil {
		return nil, err
	}

	return s.resolver.postView(ctx, p)
}

// Delete は自分の投稿を削除し、削除した投稿IDを返す。
// 埋め込みのいいね・コメントも同時に削除される。
func (s *Service) Delete(ctx context.Context, callerID, postID string) (string, error) {
	if _, err := loadOwnedPost(ctx, s.postRepo, callerID, postID); err != nil {
		return "", err
	}

	if err := s.postRepo.DeleteByID(ctx, postID); err != nil {
		return "", fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}

	s.metrics.RecordPostDeleted()
	slog.Info("post deleted",
		slog.String("post_id", postID),
		slog.String("user_id", callerID),
	)
	return postID, nil
}

func (s *Service) sanitizePost(title, content string) (string, string, error) {
	title = s.sanitizer.SanitizeTitle(title)
	if title == "" {
		return "", "", model.NewValidationError("タイトルを入力してください")
	}
	content = s.sanitizer.SanitizeContent(content)
	if content == "" {
		return "", "", model.NewValidationError("本文を入力してください")
	}
	return title, content, nil
}

// loadPost は投稿を取得する。存在しない場合はNotFoundを返す。
func loadPost(ctx context.Context, repo repository.PostRepository, postID string) (*model.Post, error) {
	p, err := repo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	return p, nil
}

// loadVisiblePost は投稿を取得し、他ユーザーの非公開投稿であればForbiddenを返す。
// いいね・コメント操作はいずれも投稿のいいね・コメント一覧を返すため、閲覧と同じ制限をかける。
func loadVisiblePost(ctx context.Context, repo repository.PostRepository, callerID, postID string) (*model.Post, error) {
	p, err := loadPost(ctx, repo, postID)
	if err != nil {
		return nil, err
	}
	if p.IsPrivate && p.UserID != callerID {
		return nil, model.NewForbiddenError()
	}
	return p, nil
}

// loadOwnedPost は投稿を取得し、呼び出し元が所有者であることを確認する。
func loadOwnedPost(ctx context.Context, repo repository.PostRepository, callerID, postID string) (*model.Post, error) {
	p, err := loadPost(ctx, repo, postID)
	if err != nil {
		return nil, err
	}
	if p.UserID != callerID {
		return nil, model.NewForbiddenError()
	}
	return p, nil
}

// savePost は投稿を書き戻す。読み込み後に他の更新が入っていた場合はConflictを返す。
func savePost(ctx context.Context, repo repository.PostRepository, collector metrics.MetricsCollector, p *model.Post) error {
	if err := repo.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			collector.RecordVersionConflict()
			slog.Warn("post version conflict", slog.String("post_id", p.ID))
			return model.NewConcurrentUpdateError(p.ID)
		}
		return fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}
	return nil
}
