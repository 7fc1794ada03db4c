// Package auth はユーザー登録・ログイン・アクセストークンによる本人確認を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/kakikomi/internal/model"
	"github.com/hitoshi/kakikomi/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes はbcryptが扱えるパスワードの最大バイト数。
const maxPasswordBytes = 72

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	BcryptCost int
}

// AuthResult は登録・ログイン成功時の結果。
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   *TokenIssuer
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tokens *TokenIssuer, config ServiceConfig) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		config:   config,
	}
}

// Register はユーザーを新規登録し、アクセストークンを発行する。
// メールアドレスは前後の空白を除去し小文字化して保存する。
func (s *Service) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return nil, model.NewValidationError("名前を入力してください")
	}
	if email == "" {
		return nil, model.NewValidationError("メールアドレスを入力してください")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, model.NewValidationError("メールアドレスの形式が正しくありません")
	}
	if password == "" {
		return nil, model.NewValidationError("パスワードを入力してください")
	}
	if len(password) > maxPasswordBytes {
		return nil, model.NewValidationError(fmt.Sprintf("パスワードは%dバイト以内で入力してください", maxPasswordBytes))
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 事前確認後に同じメールアドレスで登録された場合は一意制約で検出する
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", slog.String("user_id", user.ID))

	return s.issue(user)
}

// Login はメールアドレスとパスワードを照合し、アクセストークンを発行する。
// ユーザー不在とパスワード不一致は区別せず同じエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, model.NewValidationError("メールアドレスとパスワードを入力してください")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, model.NewInvalidCredentialsError()
		}
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return s.issue(user)
}

// GetCurrentUser は指定IDのユーザーを取得する。
// トークン発行後にユーザーが退会していた場合はIdentityNotFoundを返す。
func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

func (s *Service) issue(user *model.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Guard はBearerトークンを検証し、呼び出し元ユーザーを解決する。
type Guard struct {
	tokens   *TokenIssuer
	userRepo repository.UserRepository
}

// NewGuard はGuardを生成する。
func NewGuard(tokens *TokenIssuer, userRepo repository.UserRepository) *Guard {
	return &Guard{tokens: tokens, userRepo: userRepo}
}

// Authenticate はトークンを検証してユーザーを返す。
// トークンが無い・不正・期限切れの場合はUnauthenticated、
// トークンは有効だがユーザーが存在しない場合はIdentityNotFoundを返す。
func (g *Guard) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, model.NewUnauthenticatedError()
	}

	userID, err := g.tokens.Verify(token)
	if err != nil {
		slog.Debug("token verification failed", slog.String("error", err.Error()))
		return nil, model.NewUnauthenticatedError()
	}

	user, err := g.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}
