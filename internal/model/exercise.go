// Package model はドメインモデルを定義する。
package model

// Exercise は静的エクササイズカタログの1エントリを表す。
// カタログは読み取り専用であり、シードコマンドによってのみ追加・更新される。
// ExerciseIDはカタログ固有のID（例: "0047"）で、DBの主キーとして使用する。
type Exercise struct {
	BodyPart   string `json:"bodyPart"`
	Equipment  string `json:"equipment"`
	GifURL     string `json:"gifUrl"`
	ExerciseID string `json:"id"`
	Name       string `json:"name"`
	Target     string `json:"target"`
}

// ExerciseFilter はカタログ検索の絞り込み条件。
// 空文字のフィールドは条件に含めない。
type ExerciseFilter struct {
	BodyPart  string
	Target    string
	Equipment string
}
