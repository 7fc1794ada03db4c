package post

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/kakikomi/internal/model"
	"github.com/hitoshi/kakikomi/internal/repository"
)

// memPostRepo はテスト用のインメモリ投稿リポジトリ。
// バージョン検査を含め、PostgresPostRepoと同じ契約で振る舞う。
type memPostRepo struct {
	mu    sync.Mutex
	posts map[string]*model.Post

	// updateFn が設定されている場合はUpdateの前に呼ばれ、エラーを返すとUpdateは失敗する。
	updateFn func(post *model.Post) error
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{posts: make(map[string]*model.Post)}
}

func clonePost(p *model.Post) *model.Post {
	c := *p
	c.Likes = append(model.Likes{}, p.Likes...)
	c.Comments = append(model.Comments{}, p.Comments...)
	return &c
}

func (r *memPostRepo) FindByID(_ context.Context, id string) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[id]; ok {
		return clonePost(p), nil
	}
	return nil, nil
}

func (r *memPostRepo) sorted(filter func(*model.Post) bool) []*model.Post {
	var out []*model.Post
	for _, p := range r.posts {
		if filter(p) {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *memPostRepo) ListPublic(_ context.Context, limit int) ([]*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sorted(func(p *model.Post) bool { return !p.IsPrivate })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memPostRepo) ListByUserID(_ context.Context, userID string) ([]*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(p *model.Post) bool { return p.UserID == userID }), nil
}

func (r *memPostRepo) CountByUserID(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.posts {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *memPostRepo) ListReferencingUser(_ context.Context, userID string) ([]*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(p *model.Post) bool {
		return p.Comments.CountByUser(userID) > 0 || p.Likes.IndexOfUser(userID) >= 0
	}), nil
}

func (r *memPostRepo) Create(_ context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post.Version == 0 {
		post.Version = 1
	}
	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *memPostRepo) Update(_ context.Context, post *model.Post) error {
	if r.updateFn != nil {
		if err := r.updateFn(post); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.posts[post.ID]
	if !ok || stored.Version != post.Version {
		return repository.ErrVersionConflict
	}
	next := clonePost(post)
	next.UserID = stored.UserID
	next.CreatedAt = stored.CreatedAt
	next.Version = stored.Version + 1
	r.posts[post.ID] = next
	post.Version = next.Version
	return nil
}

func (r *memPostRepo) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

func (r *memPostRepo) DeleteByUserID(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, p := range r.posts {
		if p.UserID == userID {
			delete(r.posts, id)
			n++
		}
	}
	return n, nil
}

// stored はテストから保存済みの投稿を直接参照する。
func (r *memPostRepo) stored(id string) *model.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[id]; ok {
		return clonePost(p)
	}
	return nil
}

// memUserRepo はテスト用のインメモリユーザーリポジトリ。表示名解決のみを使う。
type memUserRepo struct {
	names map[string]string
	calls int
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	if name, ok := r.names[id]; ok {
		return &model.User{ID: id, Name: name}, nil
	}
	return nil, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, nil
}

func (r *memUserRepo) Create(_ context.Context, _ *model.User) error { return nil }

func (r *memUserRepo) FindNamesByIDs(_ context.Context, ids []string) (map[string]string, error) {
	r.calls++
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if name, ok := r.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func (r *memUserRepo) DeleteByID(_ context.Context, id string) error {
	delete(r.names, id)
	return nil
}

var (
	_ repository.PostRepository = (*memPostRepo)(nil)
	_ repository.UserRepository = (*memUserRepo)(nil)
)

// tickingClock は呼ばれるたびに1秒進む時計。作成順と日時更新を決定的にする。
type tickingClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTickingClock() *tickingClock {
	return &tickingClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}
