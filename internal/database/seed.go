package database

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tejus/liftman/internal/model"
)

//go:embed seed/exercises.json
var seedFS embed.FS

// Seed はエクササイズカタログをexercisesテーブルに投入する。
// seedFileが空の場合は埋め込みのスターターカタログを使用する。
// カタログIDによる冪等なUPSERTを行うため、繰り返し実行しても安全。
// 投入した件数を返す。
func Seed(ctx context.Context, db *sql.DB, seedFile string) (int, error) {
	var r io.Reader

	if seedFile != "" {
		f, err := os.Open(seedFile)
		if err != nil {
			return 0, fmt.Errorf("failed to open seed file: %w", err)
		}
		defer f.Close()
		r = f
	} else {
		data, err := seedFS.ReadFile("seed/exercises.json")
		if err != nil {
			return 0, fmt.Errorf("failed to read embedded seed data: %w", err)
		}
		r = bytes.NewReader(data)
	}

	return seedFromReader(ctx, db, r)
}

// seedFromReader はJSON配列形式のカタログを読み込みUPSERTする。
func seedFromReader(ctx context.Context, db *sql.DB, r io.Reader) (int, error) {
	var exercises []model.Exercise
	if err := json.NewDecoder(r).Decode(&exercises); err != nil {
		return 0, fmt.Errorf("failed to decode seed data: %w", err)
	}

	for i, ex := range exercises {
		if ex.ExerciseID == "" {
			return 0, fmt.Errorf("seed entry %d has an empty id", i)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	count := 0
	for _, ex := range exercises {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO exercises (id, body_part, equipment, gif_url, name, target)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE SET
			   body_part = EXCLUDED.body_part,
			   equipment = EXCLUDED.equipment,
			   gif_url = EXCLUDED.gif_url,
			   name = EXCLUDED.name,
			   target = EXCLUDED.target`,
			ex.ExerciseID, ex.BodyPart, ex.Equipment, ex.GifURL, ex.Name, ex.Target,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert exercise %s: %w", ex.ExerciseID, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	return count, nil
}
