// Package exercise はエクササイズカタログの読み取り専用サービスを提供する。
// カタログはシードコマンドで投入される静的データであり、APIからは変更できない。
package exercise

import (
	"context"
	"fmt"

	"github.com/tejus/liftman/internal/model"
	"github.com/tejus/liftman/internal/repository"
)

// Service はエクササイズカタログのサービス層。
type Service struct {
	exerciseRepo repository.ExerciseRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(exerciseRepo repository.ExerciseRepository) *Service {
	return &Service{exerciseRepo: exerciseRepo}
}

// Get はカタログIDでエクササイズを取得する。
// 存在しない場合はmodel.ErrNotFoundを返す。
func (s *Service) Get(ctx context.Context, exerciseID string) (*model.Exercise, error) {
	exercise, err := s.exerciseRepo.FindByExerciseID(ctx, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find exercise: %w", err)
	}
	if exercise == nil {
		return nil, model.ErrNotFound
	}
	return exercise, nil
}

// List はフィルタに合致するエクササイズ一覧を返す。
// bodyPart/target/equipmentは全て任意で、指定されたものだけがAND条件になる。
func (s *Service) List(ctx context.Context, filter model.ExerciseFilter) ([]*model.Exercise, error) {
	exercises, err := s.exerciseRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	return exercises, nil
}
