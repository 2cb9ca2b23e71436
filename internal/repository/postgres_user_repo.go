package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/tejus/liftman/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, is_local, username, email, password,
	age, gender, height, weight, goal_weight, created_at, updated_at`

// Create はユーザーを作成する。
// emailのユニーク制約違反はmodel.ErrDuplicateEmailに変換して返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		user.ID, user.IsLocal, user.Username, user.Email, user.Password,
		user.PersonalInfo.Age, user.PersonalInfo.Gender, user.PersonalInfo.Height,
		user.PersonalInfo.Weight, user.PersonalInfo.GoalWeight,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return model.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, query, arg string) (*model.User, error) {
	user := &model.User{}
	var password sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.IsLocal, &user.Username, &user.Email, &password,
		&user.PersonalInfo.Age, &user.PersonalInfo.Gender, &user.PersonalInfo.Height,
		&user.PersonalInfo.Weight, &user.PersonalInfo.GoalWeight,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if password.Valid {
		user.Password = &password.String
	}
	return user, nil
}

// EmailExists は指定メールアドレスのユーザーが存在するかを返す。
func (r *PostgresUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// UpdateCore はusernameとパスワードハッシュを更新する。
// いずれの保存値も変化しない場合は更新せずfalseを返す。
func (r *PostgresUserRepo) UpdateCore(ctx context.Context, id, username, password string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET username = $2, password = $3, updated_at = now()
		 WHERE id = $1
		   AND (username IS DISTINCT FROM $2 OR password IS DISTINCT FROM $3)`,
		id, username, password,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update user core fields: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// UpdatePersonalInfo は供給されたフィールドのみを部分更新する。
// nilフィールドは変更せず、いずれかの保存値が実際に変化した場合にtrueを返す。
func (r *PostgresUserRepo) UpdatePersonalInfo(ctx context.Context, id string, info *model.PersonalInfo) (bool, error) {
	var (
		sets    []string
		changed []string
		args    []interface{}
	)
	args = append(args, id)

	add := func(column string, value interface{}) {
		args = append(args, value)
		n := len(args)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, n))
		changed = append(changed, fmt.Sprintf("%s IS DISTINCT FROM $%d", column, n))
	}

	if info.Age != nil {
		add("age", *info.Age)
	}
	if info.Gender != nil {
		add("gender", *info.Gender)
	}
	if info.Height != nil {
		add("height", *info.Height)
	}
	if info.Weight != nil {
		add("weight", *info.Weight)
	}
	if info.GoalWeight != nil {
		add("goal_weight", *info.GoalWeight)
	}

	if len(sets) == 0 {
		return false, nil
	}

	query := fmt.Sprintf(
		`UPDATE users SET %s, updated_at = now() WHERE id = $1 AND (%s)`,
		strings.Join(sets, ", "),
		strings.Join(changed, " OR "),
	)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update personal info: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// DeleteByID は指定IDのユーザーを削除する。削除された場合はtrueを返す。
// workout_programsのcreated_byは外部キーではないため、作成済みプログラムは残る。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
