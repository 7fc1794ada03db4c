// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/kakikomi/internal/model"
)

// ErrDuplicateEmail はメールアドレスの一意制約違反を表す。
var ErrDuplicateEmail = errors.New("email already registered")

// ErrVersionConflict は楽観的ロックのバージョン不一致を表す。
// 読み込み後に他のリクエストが同じ投稿を更新した場合に返る。
var ErrVersionConflict = errors.New("post version conflict")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレス（大文字小文字を区別しない）でユーザーを取得する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスが登録済みの場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// FindNamesByIDs は指定IDのユーザー表示名をまとめて取得する。
	// 存在しないIDはマップに含まれない。
	FindNamesByIDs(ctx context.Context, ids []string) (map[string]string, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 投稿・コメントの整理は呼び出し側（user.Service）が事前に行う。
	DeleteByID(ctx context.Context, id string) error
}

// PostRepository は投稿データ（埋め込みのいいね・コメントを含む）の永続化インターフェース。
type PostRepository interface {
	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// ListPublic は公開投稿をcreated_at降順で最大limit件取得する。
	ListPublic(ctx context.Context, limit int) ([]*model.Post, error)

	// ListByUserID はユーザーの全投稿（公開・非公開とも）をcreated_at降順で取得する。
	ListByUserID(ctx context.Context, userID string) ([]*model.Post, error)

	// CountByUserID はユーザーの投稿数を返す。
	CountByUserID(ctx context.Context, userID string) (int, error)

	// ListReferencingUser は指定ユーザーのいいねまたはコメントを含む投稿を取得する。
	ListReferencingUser(ctx context.Context, userID string) ([]*model.Post, error)

	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// Update はタイトル・本文・公開設定・いいね・コメントを上書き更新する。
	// post.Versionが保存済みのバージョンと一致しない場合はErrVersionConflictを返す。
	// 成功時はpost.Versionを新しいバージョンに更新する。
	Update(ctx context.Context, post *model.Post) error

	// DeleteByID は指定IDの投稿を削除する。埋め込みのいいね・コメントも同時に消える。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUserID はユーザーの全投稿を削除し、削除件数を返す。
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}
