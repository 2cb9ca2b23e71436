// Package security はアプリケーションのセキュリティ機能を提供する。
//
// DisplaySanitizer はユーザー入力の表示用文字列（ユーザー名、
// ワークアウトプログラム名）をサニタイズし、XSS攻撃などの
// セキュリティリスクからユーザーを保護する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DisplaySanitizer は表示用文字列のサニタイズ機能のインターフェースを定義する。
// 登録・作成・更新時に、永続化前のユーザー入力文字列に対して使用される。
type DisplaySanitizer interface {
	// Sanitize はHTMLタグを全て除去し、前後の空白を取り除いた文字列を返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// displaySanitizer はDisplaySanitizerの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type displaySanitizer struct {
	policy *bluemonday.Policy
}

// NewDisplaySanitizer はDisplaySanitizerの新しいインスタンスを生成する。
// StrictPolicyは全てのHTMLタグと属性を除去する。
func NewDisplaySanitizer() *displaySanitizer {
	return &displaySanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はHTMLタグを全て除去した文字列を返す。
// bluemondayはエスケープされたエンティティを残すため、
// タグ除去後にアンエスケープして平文に戻す。
func (s *displaySanitizer) Sanitize(raw string) string {
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
