// Package model はドメインモデルを定義する。
package model

import "time"

// ProgramExercise はワークアウトプログラムに追加されたエクササイズの1エントリ。
// Exerciseは追加時点のカタログレコードのスナップショットであり、
// 後からカタログが変更されても既存エントリには反映されない。
type ProgramExercise struct {
	Exercise Exercise `json:"exercise"`
	NumSets  int      `json:"numSets"`
	NumReps  int      `json:"numReps"`
}

// WorkoutProgram はユーザーが作成したワークアウトプログラムを表す。
// 変更・削除はCreatedByのユーザーのみが行える。
// IsPublicがfalseの場合、作成者以外は閲覧できない。
type WorkoutProgram struct {
	ID            string            `json:"id"`
	IsPublic      bool              `json:"isPublic"`
	NameOfProgram string            `json:"nameOfProgram"`
	CreatedBy     string            `json:"createdBy"`
	Exercises     []ProgramExercise `json:"exercises"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}
