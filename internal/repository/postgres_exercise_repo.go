package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tejus/liftman/internal/model"
)

// PostgresExerciseRepo はPostgreSQLを使用したエクササイズカタログリポジトリ。
type PostgresExerciseRepo struct {
	db *sql.DB
}

// NewPostgresExerciseRepo はPostgresExerciseRepoを生成する。
func NewPostgresExerciseRepo(db *sql.DB) *PostgresExerciseRepo {
	return &PostgresExerciseRepo{db: db}
}

// FindByExerciseID はカタログIDでエクササイズを取得する。見つからない場合はnilを返す。
func (r *PostgresExerciseRepo) FindByExerciseID(ctx context.Context, exerciseID string) (*model.Exercise, error) {
	ex := &model.Exercise{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, body_part, equipment, gif_url, name, target
		 FROM exercises WHERE id = $1`,
		exerciseID,
	).Scan(&ex.ExerciseID, &ex.BodyPart, &ex.Equipment, &ex.GifURL, &ex.Name, &ex.Target)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find exercise: %w", err)
	}

	return ex, nil
}

// List はフィルタに合致するエクササイズ一覧を返す。
// bodyPart/target/equipmentのうち空でない条件をANDで結合する。
func (r *PostgresExerciseRepo) List(ctx context.Context, filter model.ExerciseFilter) ([]*model.Exercise, error) {
	var (
		conds []string
		args  []interface{}
	)

	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("body_part", filter.BodyPart)
	add("target", filter.Target)
	add("equipment", filter.Equipment)

	query := `SELECT id, body_part, equipment, gif_url, name, target FROM exercises`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	defer rows.Close()

	exercises := []*model.Exercise{}
	for rows.Next() {
		ex := &model.Exercise{}
		if err := rows.Scan(&ex.ExerciseID, &ex.BodyPart, &ex.Equipment, &ex.GifURL, &ex.Name, &ex.Target); err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		exercises = append(exercises, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exercises: %w", err)
	}

	return exercises, nil
}

// Count はカタログの総件数を返す。
func (r *PostgresExerciseRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM exercises`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count exercises: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ ExerciseRepository = (*PostgresExerciseRepo)(nil)
