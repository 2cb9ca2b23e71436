// Package program はワークアウトプログラムのドメインロジックを提供する。
//
// プログラムは作成者に所有され、isPublicフラグが非作成者の読み取りを制御する。
// 変更・削除は作成者のみが行える。所有判定はcanModifyに一本化されている。
package program

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tejus/liftman/internal/model"
	"github.com/tejus/liftman/internal/repository"
	"github.com/tejus/liftman/internal/security"
)

// ErrExerciseNotFound は指定IDのエクササイズがカタログに存在しないことを示す。
var ErrExerciseNotFound = errors.New("exercise not found")

// Service はワークアウトプログラムのサービス層。
type Service struct {
	programRepo  repository.ProgramRepository
	exerciseRepo repository.ExerciseRepository
	sanitizer    security.DisplaySanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	programRepo repository.ProgramRepository,
	exerciseRepo repository.ExerciseRepository,
	sanitizer security.DisplaySanitizer,
) *Service {
	return &Service{
		programRepo:  programRepo,
		exerciseRepo: exerciseRepo,
		sanitizer:    sanitizer,
	}
}

// canModify はuserIDがプログラムの変更権限を持つかを判定する。
// 全ての変更・削除操作と非公開プログラムの読み取りはこの判定を通る。
func canModify(p *model.WorkoutProgram, userID string) bool {
	return userID != "" && p.CreatedBy == userID
}

// Create は新しいワークアウトプログラムを作成する。
// エクササイズリストは空で初期化される。
func (s *Service) Create(ctx context.Context, ownerID string, isPublic bool, nameOfProgram string) (*model.WorkoutProgram, error) {
	name := s.sanitize(nameOfProgram)
	if name == "" {
		return nil, model.ErrEmptySanitized
	}

	now := time.Now()
	p := &model.WorkoutProgram{
		ID:            uuid.New().String(),
		IsPublic:      isPublic,
		NameOfProgram: name,
		CreatedBy:     ownerID,
		Exercises:     []model.ProgramExercise{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.programRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create workout program: %w", err)
	}

	slog.Info("workout program created",
		slog.String("program_id", p.ID),
		slog.String("user_id", ownerID),
	)

	return p, nil
}

// Get は指定IDのプログラムを可視性判定付きで取得する。
// 公開プログラムは誰でも取得できる。非公開プログラムは作成者のみが取得でき、
// それ以外（未認証含む）にはmodel.ErrNotOwnerを返す。
// 存在しない場合はmodel.ErrNotFoundを返す。
func (s *Service) Get(ctx context.Context, id, requesterID string) (*model.WorkoutProgram, error) {
	p, err := s.programRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find workout program: %w", err)
	}
	if p == nil {
		return nil, model.ErrNotFound
	}

	if !p.IsPublic && !canModify(p, requesterID) {
		return nil, model.ErrNotOwner
	}

	return p, nil
}

// ListPublic は全ての公開プログラムを返す。認証不要。
func (s *Service) ListPublic(ctx context.Context) ([]*model.WorkoutProgram, error) {
	programs, err := s.programRepo.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list public programs: %w", err)
	}
	return programs, nil
}

// ListByOwner は指定ユーザーが作成した全プログラムを返す。
func (s *Service) ListByOwner(ctx context.Context, userID string) ([]*model.WorkoutProgram, error) {
	programs, err := s.programRepo.ListByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	return programs, nil
}

// UpdateDetails はisPublicとnameOfProgramを部分更新する。nilフィールドは変更しない。
// 作成者以外にはmodel.ErrNotOwnerを返す。
func (s *Service) UpdateDetails(ctx context.Context, id, requesterID string, isPublic *bool, nameOfProgram *string) error {
	p, err := s.loadOwned(ctx, id, requesterID)
	if err != nil {
		return err
	}

	if nameOfProgram != nil {
		clean := s.sanitize(*nameOfProgram)
		if clean == "" {
			return model.ErrEmptySanitized
		}
		nameOfProgram = &clean
	}

	if _, err := s.programRepo.UpdateDetails(ctx, p.ID, isPublic, nameOfProgram); err != nil {
		return fmt.Errorf("failed to update workout program: %w", err)
	}
	return nil
}

// Delete は指定IDのプログラムを削除する。作成者以外にはmodel.ErrNotOwnerを返す。
func (s *Service) Delete(ctx context.Context, id, requesterID string) error {
	p, err := s.loadOwned(ctx, id, requesterID)
	if err != nil {
		return err
	}

	if _, err := s.programRepo.DeleteByID(ctx, p.ID); err != nil {
		return fmt.Errorf("failed to delete workout program: %w", err)
	}

	slog.Info("workout program deleted",
		slog.String("program_id", p.ID),
		slog.String("user_id", requesterID),
	)

	return nil
}

// AddExercise はカタログIDをエクササイズレコードに解決し、そのスナップショットを
// numSets/numRepsとともにプログラム末尾に追加する。
// スナップショット方式のため、追加後のカタログ変更はプログラムに反映されない。
// 存在しないエクササイズIDにはErrExerciseNotFoundを返す。
func (s *Service) AddExercise(ctx context.Context, id, requesterID, exerciseID string, numSets, numReps int) error {
	p, err := s.loadOwned(ctx, id, requesterID)
	if err != nil {
		return err
	}

	exercise, err := s.exerciseRepo.FindByExerciseID(ctx, exerciseID)
	if err != nil {
		return fmt.Errorf("failed to find exercise: %w", err)
	}
	if exercise == nil {
		return ErrExerciseNotFound
	}

	entry := model.ProgramExercise{
		Exercise: *exercise,
		NumSets:  numSets,
		NumReps:  numReps,
	}

	added, err := s.programRepo.AppendExercise(ctx, p.ID, entry)
	if err != nil {
		return fmt.Errorf("failed to add exercise: %w", err)
	}
	if !added {
		return model.ErrNotModified
	}
	return nil
}

// RemoveExercise はスナップショットのカタログIDが一致するエントリを全て削除する。
// 同一エクササイズが複数回追加されている場合も1回の呼び出しで全て削除される。
// 1件も削除されなかった場合はmodel.ErrNotModifiedを返す。
func (s *Service) RemoveExercise(ctx context.Context, id, requesterID, exerciseID string) error {
	p, err := s.loadOwned(ctx, id, requesterID)
	if err != nil {
		return err
	}

	removed, err := s.programRepo.RemoveExercisesByExerciseID(ctx, p.ID, exerciseID)
	if err != nil {
		return fmt.Errorf("failed to remove exercise: %w", err)
	}
	if !removed {
		return model.ErrNotModified
	}
	return nil
}

// loadOwned はプログラムを取得し、requesterIDに変更権限があることを確認する。
func (s *Service) loadOwned(ctx context.Context, id, requesterID string) (*model.WorkoutProgram, error) {
	p, err := s.programRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find workout program: %w", err)
	}
	if p == nil {
		return nil, model.ErrNotFound
	}
	if !canModify(p, requesterID) {
		return nil, model.ErrNotOwner
	}
	return p, nil
}

func (s *Service) sanitize(raw string) string {
	if s.sanitizer == nil {
		return raw
	}
	return s.sanitizer.Sanitize(raw)
}
