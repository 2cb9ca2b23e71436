package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tejus/liftman/internal/model"
	"github.com/tejus/liftman/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
// ローカル認証（メール+パスワード）とGoogle OAuth認証の両方を扱う。
type Service struct {
	oauth       OAuthProvider
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService は認証サービスを生成する。
func NewService(oauth OAuthProvider, userRepo repository.UserRepository, sessionRepo repository.SessionRepository, config ServiceConfig) *Service {
	if config.SessionMaxAge <= 0 {
		config.SessionMaxAge = 86400
	}
	return &Service{
		oauth:       oauth,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// LoginLocal はメールアドレスとパスワードでローカルユーザーを認証し、
// セッションを発行する。OAuthユーザー（パスワード無し）はErrNotLocalを返す。
func (s *Service) LoginLocal(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, nil, model.ErrInvalidCredentials
	}

	if !user.IsLocal || user.Password == nil {
		return nil, nil, model.ErrNotLocal
	}

	if !CheckPassword(*user.Password, password) {
		return nil, nil, model.ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, session, nil
}

// HandleGoogleCallback はOAuthコールバックを処理する。
// 認可コードをユーザー情報に交換し、メールアドレスをキーとして
// ユーザーを検索または作成し、セッションを発行する。
// 同じメールアドレスで再ログインした場合は既存ユーザーを再利用する。
func (s *Service) HandleGoogleCallback(ctx context.Context, code string) (*model.User, *model.Session, error) {
	info, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("oauth code exchange failed: %w", err)
	}

	user, err := s.userRepo.FindByEmail(ctx, info.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		user, err = s.createOAuthUser(ctx, info)
		if err != nil {
			return nil, nil, err
		}
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, session, nil
}

// createOAuthUser はOAuthユーザー情報から新規ユーザーを作成する。
// 同時リクエストで重複作成が競合した場合は既存レコードを取得し直す。
func (s *Service) createOAuthUser(ctx context.Context, info *OAuthUserInfo) (*model.User, error) {
	now := time.Now()
	user := &model.User{
		ID:        uuid.New().String(),
		IsLocal:   false,
		Username:  info.Name,
		Email:     info.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			existing, ferr := s.userRepo.FindByEmail(ctx, info.Email)
			if ferr != nil {
				return nil, fmt.Errorf("failed to find user after duplicate: %w", ferr)
			}
			if existing == nil {
				return nil, fmt.Errorf("user disappeared after duplicate email conflict")
			}
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Logout はセッションを削除する。セッションが存在しなくてもエラーにしない。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id is empty")
	}
	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// LogoutAll はユーザーの全セッションを削除する。
// コア情報（ユーザー名・パスワード）の変更後に呼ばれる。
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

// GetCurrentUser はセッションIDから現在のユーザーを取得する。
// セッションが無効・期限切れの場合はErrNotFoundを返す。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, model.ErrNotFound
	}
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.ErrNotFound
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.ErrNotFound
	}

	return user, nil
}

// CleanupExpiredSessions は期限切れセッションを削除し、削除件数を返す。
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessionRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return n, nil
}

// createSession は新しいセッションを発行して永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号論的に安全な乱数からセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateState はOAuthのstateパラメータ用の乱数文字列を生成する。
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
