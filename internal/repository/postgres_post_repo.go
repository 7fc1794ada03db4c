package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/kakikomi/internal/model"
)

// postColumns はSELECTで取得する投稿カラム。scanPostの順序と一致させる。
const postColumns = `id, user_id, title, content, is_private, likes, comments, version, created_at, updated_at`

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
// いいね・コメントはJSONBカラムに順序付き配列として埋め込む。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPost は1行分の投稿をスキャンし、JSONBカラムをデコードする。
func scanPost(s rowScanner) (*model.Post, error) {
	post := &model.Post{}
	var likesJSON, commentsJSON []byte
	if err := s.Scan(
		&post.ID, &post.UserID, &post.Title, &post.Content, &post.IsPrivate,
		&likesJSON, &commentsJSON, &post.Version, &post.CreatedAt, &post.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(likesJSON, &post.Likes); err != nil {
		return nil, fmt.Errorf("failed to decode likes: %w", err)
	}
	if err := json.Unmarshal(commentsJSON, &post.Comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	return post, nil
}

// encodeSequences はいいね・コメントをJSONBに書き込める形式へエンコードする。
// nilスライスはnullではなく空配列として保存する。
func encodeSequences(post *model.Post) ([]byte, []byte, error) {
	likes := post.Likes
	if likes == nil {
		likes = model.Likes{}
	}
	comments := post.Comments
	if comments == nil {
		comments = model.Comments{}
	}

	likesJSON, err := json.Marshal(likes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode likes: %w", err)
	}
	commentsJSON, err := json.Marshal(comments)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode comments: %w", err)
	}
	return likesJSON, commentsJSON, nil
}

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
// UUIDとして解釈できないIDも該当なしとして扱う。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows || isInvalidID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}
	return post, nil
}

// ListPublic は公開投稿をcreated_at降順で最大limit件取得する。
func (r *PostgresPostRepo) ListPublic(ctx context.Context, limit int) ([]*model.Post, error) {
	return r.queryPosts(ctx, "failed to list public posts",
		`SELECT `+postColumns+` FROM posts
		 WHERE is_private = FALSE
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
}

// ListByUserID はユーザーの全投稿をcreated_at降順で取得する。
func (r *PostgresPostRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Post, error) {
	return r.queryPosts(ctx, "failed to list posts by user",
		`SELECT `+postColumns+` FROM posts
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
}

// ListReferencingUser は指定ユーザーのいいねまたはコメントを含む投稿を取得する。
// JSONBの包含演算子(@>)でGINインデックスを利用する。
func (r *PostgresPostRepo) ListReferencingUser(ctx context.Context, userID string) ([]*model.Post, error) {
	ref, err := json.Marshal([]map[string]string{{"user_id": userID}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode user reference: %w", err)
	}
	return r.queryPosts(ctx, "failed to list posts referencing user",
		`SELECT `+postColumns+` FROM posts
		 WHERE comments @> $1::jsonb OR likes @> $1::jsonb
		 ORDER BY created_at DESC, id DESC`,
		string(ref),
	)
}

// CountByUserID はユーザーの投稿数を返す。
func (r *PostgresPostRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// Create は投稿を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	likesJSON, commentsJSON, err := encodeSequences(post)
	if err != nil {
		return err
	}
	if post.Version == 0 {
		post.Version = 1
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO posts (id, user_id, title, content, is_private, likes, comments, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		post.ID, post.UserID, post.Title, post.Content, post.IsPrivate,
		likesJSON, commentsJSON, post.Version, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// Update は投稿を上書き更新する。
// user_idとcreated_atは更新対象に含めない（所有者の付け替えや作成日時の書き換えを防ぐ）。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) error {
	likesJSON, commentsJSON, err := encodeSequences(post)
	if err != nil {
		return err
	}

	var newVersion int
	err = r.db.QueryRowContext(ctx,
		`UPDATE posts
		 SET title = $3, content = $4, is_private = $5, likes = $6, comments = $7,
		     updated_at = $8, version = version + 1
		 WHERE id = $1 AND version = $2
		 RETURNING version`,
		post.ID, post.Version, post.Title, post.Content, post.IsPrivate,
		likesJSON, commentsJSON, post.UpdatedAt,
	).Scan(&newVersion)
	if err == sql.ErrNoRows {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	post.Version = newVersion
	return nil
}

// DeleteByID は指定IDの投稿を削除する。
func (r *PostgresPostRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// DeleteByUserID はユーザーの全投稿を削除し、削除件数を返す。
func (r *PostgresPostRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user posts: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// queryPosts は複数行の投稿を取得する共通処理。
func (r *PostgresPostRepo) queryPosts(ctx context.Context, errMsg, query string, args ...any) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errMsg, err)
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errMsg, err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errMsg, err)
	}
	return posts, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
