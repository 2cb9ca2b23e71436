// Package model はドメインモデルを定義する。
package model

import "errors"

// ドメイン共通のセンチネルエラー。
// サービス層が返し、ハンドラー層がerrors.Isで判別してエンベロープに変換する。
var (
	// ErrNotFound は対象レコードが存在しないことを表す。
	ErrNotFound = errors.New("record not found")

	// ErrNotOwner は操作者がレコードの作成者でないことを表す。
	ErrNotOwner = errors.New("requester is not the owner")

	// ErrDuplicateEmail は登録済みメールアドレスでの再登録を表す。
	ErrDuplicateEmail = errors.New("email address already exists")

	// ErrNotModified は更新操作が保存済みの値を1つも変更しなかったことを表す。
	ErrNotModified = errors.New("no stored value was modified")

	// ErrNotLocal はローカル認証ユーザー専用の操作を
	// OAuthユーザーに対して行おうとしたことを表す。
	ErrNotLocal = errors.New("user doesn't use local authentication")

	// ErrInvalidCredentials はメールアドレスまたはパスワードの不一致を表す。
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmptySanitized は表示用文字列がサニタイズ後に空になったことを表す。
	// マークアップのみで構成された入力（例: "<b></b>"）で発生する。
	ErrEmptySanitized = errors.New("value is empty after sanitization")
)
