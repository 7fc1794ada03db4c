// Package model はドメインモデルを定義する。
package model

import "time"

const (
	// MaxPostsPerUser は1ユーザーが同時に保有できる投稿数の上限。
	MaxPostsPerUser = 5
	// MaxCommentsPerUserPerPost は1ユーザーが1投稿に同時に付けられるコメント数の上限。
	MaxCommentsPerUserPerPost = 2
)

// Post はユーザーの投稿を表す。
// いいねとコメントは投稿に埋め込まれた順序付きシーケンスとして保持し、
// 投稿レコードの外に独立したライフサイクルを持たない。
type Post struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	IsPrivate bool
	Likes     Likes
	Comments  Comments
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostView は投稿者名とコメント投稿者名を解決済みの投稿。
type PostView struct {
	Post
	UserName string
	Comments []CommentView
}

// Like は投稿へのいいねを表す。
type Like struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

// Comment は投稿へのコメントを表す。
// Dateは作成時刻で初期化され、編集時に更新される。
type Comment struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id"`
	Body   string    `json:"body"`
	Date   time.Time `json:"date"`
}

// CommentView はコメント投稿者名を解決済みのコメント。
// 投稿者が既に存在しない場合UserNameは空になる。
type CommentView struct {
	Comment
	UserName string
}

// Likes は新しい順に並んだいいねのシーケンス。
type Likes []Like

// IndexOfUser は指定ユーザーの最初のいいねの位置を返す。見つからない場合は-1。
func (l Likes) IndexOfUser(userID string) int {
	for i, like := range l {
		if like.UserID == userID {
			return i
		}
	}
	return -1
}

// Prepend は先頭にいいねを追加した新しいシーケンスを返す。
func (l Likes) Prepend(like Like) Likes {
	out := make(Likes, 0, len(l)+1)
	out = append(out, like)
	return append(out, l...)
}

// RemoveAt は指定位置のいいねを除いた新しいシーケンスを返す。
func (l Likes) RemoveAt(i int) Likes {
	out := make(Likes, 0, len(l))
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...)
}

// WithoutUser は指定ユーザーのいいねをすべて除いたシーケンスと除去件数を返す。
func (l Likes) WithoutUser(userID string) (Likes, int) {
	out := make(Likes, 0, len(l))
	for _, like := range l {
		if like.UserID != userID {
			out = append(out, like)
		}
	}
	return out, len(l) - len(out)
}

// Comments は新しい順に並んだコメントのシーケンス。
type Comments []Comment

// CountByUser は指定ユーザーのコメント数を返す。
func (c Comments) CountByUser(userID string) int {
	n := 0
	for _, comment := range c {
		if comment.UserID == userID {
			n++
		}
	}
	return n
}

// IndexOf は指定IDのコメントの位置を返す。見つからない場合は-1。
func (c Comments) IndexOf(commentID string) int {
	for i, comment := range c {
		if comment.ID == commentID {
			return i
		}
	}
	return -1
}

// Prepend は先頭にコメントを追加した新しいシーケンスを返す。
func (c Comments) Prepend(comment Comment) Comments {
	out := make(Comments, 0, len(c)+1)
	out = append(out, comment)
	return append(out, c...)
}

// RemoveAt は指定位置のコメントを除いた新しいシーケンスを返す。
func (c Comments) RemoveAt(i int) Comments {
	out := make(Comments, 0, len(c))
	out = append(out, c[:i]...)
	return append(out, c[i+1:]...)
}

// WithoutUser は指定ユーザーのコメントをすべて除いたシーケンスと除去件数を返す。
func (c Comments) WithoutUser(userID string) (Comments, int) {
	out := make(Comments, 0, len(c))
	for _, comment := range c {
		if comment.UserID != userID {
			out = append(out, comment)
		}
	}
	return out, len(c) - len(out)
}

// AuthorIDs はコメント投稿者IDを重複なしで返す。
func (c Comments) AuthorIDs() []string {
	seen := make(map[string]bool, len(c))
	ids := make([]string, 0, len(c))
	for _, comment := range c {
		if !seen[comment.UserID] {
			seen[comment.UserID] = true
			ids = append(ids, comment.UserID)
		}
	}
	return ids
}
