package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tejus/liftman/internal/model"
)

// PostgresProgramRepo はPostgreSQLを使用したワークアウトプログラムリポジトリ。
// エクササイズエントリはexercises JSONB列に追加時点のスナップショット値で
// 埋め込まれ、カタログの後続変更は既存エントリに反映されない。
type PostgresProgramRepo struct {
	db *sql.DB
}

// NewPostgresProgramRepo はPostgresProgramRepoを生成する。
func NewPostgresProgramRepo(db *sql.DB) *PostgresProgramRepo {
	return &PostgresProgramRepo{db: db}
}

const programColumns = `id, is_public, name_of_program, created_by, exercises, created_at, updated_at`

// Create はプログラムを作成する。
func (r *PostgresProgramRepo) Create(ctx context.Context, program *model.WorkoutProgram) error {
	exercises := program.Exercises
	if exercises == nil {
		exercises = []model.ProgramExercise{}
	}
	data, err := json.Marshal(exercises)
	if err != nil {
		return fmt.Errorf("failed to marshal exercises: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO workout_programs (`+programColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		program.ID, program.IsPublic, program.NameOfProgram, program.CreatedBy,
		data, program.CreatedAt, program.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert workout program: %w", err)
	}
	return nil
}

// FindByID は指定IDのプログラムを取得する。見つからない場合はnilを返す。
func (r *PostgresProgramRepo) FindByID(ctx context.Context, id string) (*model.WorkoutProgram, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+programColumns+` FROM workout_programs WHERE id = $1`,
		id,
	)
	program, err := scanProgram(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find workout program: %w", err)
	}
	return program, nil
}

// ListPublic はisPublic=trueの全プログラムを作成日時順で返す。
func (r *PostgresProgramRepo) ListPublic(ctx context.Context) ([]*model.WorkoutProgram, error) {
	return r.list(ctx,
		`SELECT `+programColumns+` FROM workout_programs WHERE is_public ORDER BY created_at`,
	)
}

// ListByCreator は指定ユーザーが作成した全プログラムを作成日時順で返す。
func (r *PostgresProgramRepo) ListByCreator(ctx context.Context, userID string) ([]*model.WorkoutProgram, error) {
	return r.list(ctx,
		`SELECT `+programColumns+` FROM workout_programs WHERE created_by = $1 ORDER BY created_at`,
		userID,
	)
}

func (r *PostgresProgramRepo) list(ctx context.Context, query string, args ...interface{}) ([]*model.WorkoutProgram, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list workout programs: %w", err)
	}
	defer rows.Close()

	programs := []*model.WorkoutProgram{}
	for rows.Next() {
		program, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workout program: %w", err)
		}
		programs = append(programs, program)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workout programs: %w", err)
	}

	return programs, nil
}

// scanner はsql.Rowとsql.Rowsの共通部分。
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProgram(s scanner) (*model.WorkoutProgram, error) {
	program := &model.WorkoutProgram{}
	var exercisesData []byte
	err := s.Scan(
		&program.ID, &program.IsPublic, &program.NameOfProgram, &program.CreatedBy,
		&exercisesData, &program.CreatedAt, &program.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(exercisesData, &program.Exercises); err != nil {
		return nil, fmt.Errorf("failed to unmarshal exercises: %w", err)
	}
	return program, nil
}

// UpdateDetails はisPublicとnameOfProgramを部分更新する。
// nilのフィールドは変更しない。行が更新された場合にtrueを返す。
func (r *PostgresProgramRepo) UpdateDetails(ctx context.Context, id string, isPublic *bool, nameOfProgram *string) (bool, error) {
	var (
		sets []string
		args []interface{}
	)
	args = append(args, id)

	if isPublic != nil {
		args = append(args, *isPublic)
		sets = append(sets, fmt.Sprintf("is_public = $%d", len(args)))
	}
	if nameOfProgram != nil {
		args = append(args, *nameOfProgram)
		sets = append(sets, fmt.Sprintf("name_of_program = $%d", len(args)))
	}

	if len(sets) == 0 {
		return false, nil
	}

	query := fmt.Sprintf(
		`UPDATE workout_programs SET %s, updated_at = now() WHERE id = $1`,
		strings.Join(sets, ", "),
	)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update workout program: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// DeleteByID は指定IDのプログラムを削除する。削除された場合はtrueを返す。
func (r *PostgresProgramRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM workout_programs WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete workout program: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// AppendExercise はエクササイズのスナップショットエントリをexercises配列の
// 末尾に追加する。追加は単一UPDATEで行われ、ドキュメント単位で原子的。
func (r *PostgresProgramRepo) AppendExercise(ctx context.Context, id string, entry model.ProgramExercise) (bool, error) {
	data, err := json.Marshal([]model.ProgramExercise{entry})
	if err != nil {
		return false, fmt.Errorf("failed to marshal exercise entry: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE workout_programs
		 SET exercises = exercises || $2::jsonb, updated_at = now()
		 WHERE id = $1`,
		id, data,
	)
	if err != nil {
		return false, fmt.Errorf("failed to append exercise: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// RemoveExercisesByExerciseID はスナップショットのカタログIDが一致する
// エントリを全て取り除く。重複エントリがある場合も1回の呼び出しで全て消える。
// 1件以上削除された場合にtrueを返す。
func (r *PostgresProgramRepo) RemoveExercisesByExerciseID(ctx context.Context, id, exerciseID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE workout_programs
		 SET exercises = COALESCE(
		       (SELECT jsonb_agg(e)
		        FROM jsonb_array_elements(exercises) AS e
		        WHERE e->'exercise'->>'id' <> $2),
		       '[]'::jsonb),
		     updated_at = now()
		 WHERE id = $1
		   AND EXISTS (
		     SELECT 1 FROM jsonb_array_elements(exercises) AS e
		     WHERE e->'exercise'->>'id' = $2)`,
		id, exerciseID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove exercises: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// compile-time interface check
var _ ProgramRepository = (*PostgresProgramRepo)(nil)
