// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tejus/liftman/internal/auth"
	"github.com/tejus/liftman/internal/model"
	"github.com/tejus/liftman/internal/repository"
	"github.com/tejus/liftman/internal/security"
)

// Service はユーザー管理のサービス層。
// 登録・取得・更新・退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	sanitizer   security.DisplaySanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	sanitizer security.DisplaySanitizer,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		sanitizer:   sanitizer,
	}
}

// Register はローカルユーザーを新規登録する。
// メールアドレスが既に存在する場合はmodel.ErrDuplicateEmailを返す。
// 入力値の形式検証は呼び出し側（ハンドラー）の責務。
func (s *Service) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrDuplicateEmail
	}

	// マークアップのみのユーザー名はサニタイズで空になるため登録前に弾く
	name := s.sanitize(username)
	if name == "" {
		return nil, model.ErrEmptySanitized
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:        uuid.New().String(),
		IsLocal:   true,
		Username:  name,
		Email:     email,
		Password:  &hash,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// EmailExistsチェックと挿入の間で競合した場合もErrDuplicateEmailになる
		return nil, err
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// Get は指定IDのユーザーの公開射影を返す。
// パスワードハッシュとisLocalフラグは含まれない。
func (s *Service) Get(ctx context.Context, userID string) (*model.PublicUser, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.ErrNotFound
	}
	return user.Public(), nil
}

// UpdateCore はユーザー名とパスワードを更新する。
// ローカル認証を使っていないユーザーにはmodel.ErrNotLocalを返す。
// 保存値が変化しなかった場合はmodel.ErrNotModifiedを返し、セッションは維持する。
// 変化した場合は全セッションを無効化する（資格情報変更後の再認証を強制）。
func (s *Service) UpdateCore(ctx context.Context, userID, username, password string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.ErrNotFound
	}
	if !user.IsLocal {
		return model.ErrNotLocal
	}

	name := s.sanitize(username)
	if name == "" {
		return model.ErrEmptySanitized
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	changed, err := s.userRepo.UpdateCore(ctx, userID, name, hash)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if !changed {
		return model.ErrNotModified
	}

	// コア情報の変更は全セッションを失効させる
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to invalidate sessions: %w", err)
	}

	slog.Info("user core identity updated",
		slog.String("user_id", userID),
	)

	return nil
}

// UpdatePersonalInfo は身体情報を部分更新する。
// nilフィールドは変更しない。供給されたどの値も保存値と変わらなかった場合は
// model.ErrNotModifiedを返す。セッションは維持される。
func (s *Service) UpdatePersonalInfo(ctx context.Context, userID string, info *model.PersonalInfo) error {
	changed, err := s.userRepo.UpdatePersonalInfo(ctx, userID, info)
	if err != nil {
		return fmt.Errorf("failed to update personal info: %w", err)
	}
	if !changed {
		return model.ErrNotModified
	}
	return nil
}

// Delete はユーザーの退会処理を実行する。
// 削除順序: sessions → user。
// ユーザーが作成したワークアウトプログラムは削除しない（孤児として残る）。
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	deleted, err := s.userRepo.DeleteByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !deleted {
		return model.ErrNotFound
	}

	slog.Info("user deleted",
		slog.String("user_id", userID),
	)

	return nil
}

func (s *Service) sanitize(raw string) string {
	if s.sanitizer == nil {
		return raw
	}
	return s.sanitizer.Sanitize(raw)
}
