// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/tejus/liftman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// メールアドレスが既に存在する場合はmodel.ErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// EmailExists は指定メールアドレスのユーザーが存在するかを返す。
	EmailExists(ctx context.Context, email string) (bool, error)

	// UpdateCore はusernameとパスワードハッシュを更新する。
	// いずれかの保存値が実際に変化した場合にtrueを返す。
	UpdateCore(ctx context.Context, id, username, password string) (bool, error)

	// UpdatePersonalInfo は供給されたフィールドのみを部分更新する。
	// nilフィールドは変更せず、いずれかの保存値が実際に変化した場合にtrueを返す。
	UpdatePersonalInfo(ctx context.Context, id string, info *model.PersonalInfo) (bool, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 削除された場合はtrueを返す。ユーザーの作成したプログラムは削除しない。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ExerciseRepository はエクササイズカタログの読み取りインターフェース。
// カタログはシードコマンド以外から書き込まれることはない。
type ExerciseRepository interface {
	// FindByExerciseID はカタログIDでエクササイズを取得する。見つからない場合はnilを返す。
	FindByExerciseID(ctx context.Context, exerciseID string) (*model.Exercise, error)

	// List はフィルタに合致するエクササイズ一覧を返す。
	// フィルタの空フィールドは条件に含めない。
	List(ctx context.Context, filter model.ExerciseFilter) ([]*model.Exercise, error)

	// Count はカタログの総件数を返す。
	Count(ctx context.Context) (int, error)
}

// ProgramRepository はワークアウトプログラムの永続化インターフェース。
type ProgramRepository interface {
	// Create はプログラムを作成する。
	Create(ctx context.Context, program *model.WorkoutProgram) error

	// FindByID は指定IDのプログラムを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.WorkoutProgram, error)

	// ListPublic はisPublic=trueの全プログラムを返す。
	ListPublic(ctx context.Context) ([]*model.WorkoutProgram, error)

	// ListByCreator は指定ユーザーが作成した全プログラムを返す。
	ListByCreator(ctx context.Context, userID string) ([]*model.WorkoutProgram, error)

	// UpdateDetails はisPublicとnameOfProgramを部分更新する。
	// nilフィールドは変更しない。行が更新された場合にtrueを返す。
	UpdateDetails(ctx context.Context, id string, isPublic *bool, nameOfProgram *string) (bool, error)

	// DeleteByID は指定IDのプログラムを削除する。削除された場合はtrueを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)

	// AppendExercise はエクササイズのスナップショットエントリを末尾に追加する。
	// 追加された場合はtrueを返す。
	AppendExercise(ctx context.Context, id string, entry model.ProgramExercise) (bool, error)

	// RemoveExercisesByExerciseID はスナップショットのカタログIDが一致する
	// エントリを全て削除する。1件以上削除された場合にtrueを返す。
	RemoveExercisesByExerciseID(ctx context.Context, id, exerciseID string) (bool, error)
}
