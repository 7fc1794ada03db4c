package post

import (
	"context"
	"fmt"

	"github.com/hitoshi/kakikomi/internal/model"
	"github.com/hitoshi/kakikomi/internal/repository"
)

// nameResolver は投稿者・コメント投稿者の表示名を一括で解決する。
type nameResolver struct {
	userRepo repository.UserRepository
}

// postViews は投稿一覧を表示名付きのビューに変換する。
// ユーザー名の取得は投稿数に関わらず1回のクエリで行う。
func (r nameResolver) postViews(ctx context.Context, posts []*model.Post) ([]*model.PostView, error) {
	var ids []string
	for _, p := range posts {
		ids = append(ids, p.UserID)
		ids = append(ids, p.Comments.AuthorIDs()...)
	}

	names, err := r.names(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*model.PostView, len(posts))
	for i, p := range posts {
		views[i] = &model.PostView{
			Post:     *p,
			UserName: names[p.UserID],
			Comments: commentViews(p.Comments, names),
		}
	}
	return views, nil
}

// postView は単一投稿を表示名付きのビューに変換する。
func (r nameResolver) postView(ctx context.Context, p *model.Post) (*model.PostView, error) {
	views, err := r.postViews(ctx, []*model.Post{p})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// commentViews はコメント一覧を投稿者名付きのビューに変換する。
func (r nameResolver) commentViews(ctx context.Context, comments model.Comments) ([]model.CommentView, error) {
	names, err := r.names(ctx, comments.AuthorIDs())
	if err != nil {
		return nil, err
	}
	return commentViews(comments, names), nil
}

func (r nameResolver) names(ctx context.Context, ids []string) (map[string]string, error) {
	uniq := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}

	names, err := r.userRepo.FindNamesByIDs(ctx, uniq)
	if err != nil {
		return nil, fmt.Errorf("ユーザー名の取得に失敗しました: %w", err)
	}
	return names, nil
}

// commentViews は退会済みユーザーのコメントも除外せず、名前を空のまま返す。
func commentViews(comments model.Comments, names map[string]string) []model.CommentView {
	views := make([]model.CommentView, len(comments))
	for i, c := range comments {
		views[i] = model.CommentView{Comment: c, UserName: names[c.UserID]}
	}
	return views
}
