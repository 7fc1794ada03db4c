// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrorKind はドメインエラーの種別を表す。
// ハンドラー層はKindからHTTPステータスコードを決定する。
type ErrorKind string

const (
	KindValidation       ErrorKind = "ValidationError"
	KindUnauthenticated  ErrorKind = "Unauthenticated"
	KindIdentityNotFound ErrorKind = "IdentityNotFound"
	KindNotFound         ErrorKind = "NotFound"
	KindForbidden        ErrorKind = "Forbidden"
	KindQuotaExceeded    ErrorKind = "QuotaExceeded"
	KindConflict         ErrorKind = "Conflict"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Kind     ErrorKind // エラー種別
	Code     string    // エラーコード
	Message  string    // エラーメッセージ
	Category string    // カテゴリ: auth, validation, post, system
	Action   string    // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeUnauthenticated   = "UNAUTHENTICATED"
	ErrCodeInvalidCredential = "INVALID_CREDENTIALS"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeEmailTaken        = "EMAIL_TAKEN"
	ErrCodePostNotFound      = "POST_NOT_FOUND"
	ErrCodeCommentNotFound   = "COMMENT_NOT_FOUND"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodePostLimit         = "POST_LIMIT"
	ErrCodeCommentLimit      = "COMMENT_LIMIT"
	ErrCodeConcurrentUpdate  = "CONCURRENT_UPDATE"
)

// IsKind はerrがAPIErrorを含み、指定した種別かどうかを判定する。
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// NewValidationError は入力値不正エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Kind:     KindValidation,
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容に不備があります: %s", reason),
		Category: "validation",
		Action:   "必須項目をすべて入力してください。",
	}
}

// NewUnauthenticatedError は認証情報が無い、または無効な場合のエラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Kind:     KindUnauthenticated,
		Code:     ErrCodeUnauthenticated,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidCredentialsError はログイン時にメールアドレスまたはパスワードが一致しない場合のエラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Kind:     KindUnauthenticated,
		Code:     ErrCodeInvalidCredential,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認してから再度ログインしてください。",
	}
}

// NewUserNotFoundError はトークンは有効だがユーザーが既に存在しない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Kind:     KindIdentityNotFound,
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewEmailTakenError はメールアドレスが登録済みの場合のエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewPostNotFoundError は投稿未検出エラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %s", postID),
		Category: "post",
		Action:   "投稿IDを確認してください。",
	}
}

// NewCommentNotFoundError はコメント未検出エラーを生成する。
func NewCommentNotFoundError(commentID string) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeCommentNotFound,
		Message:  fmt.Sprintf("指定されたコメントが見つかりません: %s", commentID),
		Category: "post",
		Action:   "コメントIDを確認してください。",
	}
}

// NewForbiddenError は所有者以外による操作のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Kind:     KindForbidden,
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "自分が作成したコンテンツのみ変更できます。",
	}
}

// NewPostLimitError は投稿数上限エラーを生成する。
func NewPostLimitError() *APIError {
	return &APIError{
		Kind:     KindQuotaExceeded,
		Code:     ErrCodePostLimit,
		Message:  fmt.Sprintf("投稿数が上限（%d件）に達しています。", MaxPostsPerUser),
		Category: "post",
		Action:   "不要な投稿を削除してから、新しい投稿を作成してください。",
	}
}

// NewCommentLimitError は1投稿あたりのコメント数上限エラーを生成する。
func NewCommentLimitError() *APIError {
	return &APIError{
		Kind:     KindQuotaExceeded,
		Code:     ErrCodeCommentLimit,
		Message:  fmt.Sprintf("1つの投稿に付けられるコメントは%d件までです。", MaxCommentsPerUserPerPost),
		Category: "post",
		Action:   "既存のコメントを編集または削除してください。",
	}
}

// NewConcurrentUpdateError は同一投稿への同時更新が衝突した場合のエラーを生成する。
func NewConcurrentUpdateError(postID string) *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeConcurrentUpdate,
		Message:  fmt.Sprintf("投稿が他の操作によって更新されました: %s", postID),
		Category: "post",
		Action:   "最新の状態を取得してから再度お試しください。",
	}
}
