// Package model はドメインモデルを定義する。
package model

import "time"

// PersonalInfo はユーザーの身体情報を表す。
// 全フィールドが任意であり、未設定の場合はnilのままとなる。
type PersonalInfo struct {
	Age        *int     `json:"age"`
	Gender     *string  `json:"gender"`
	Height     *float64 `json:"height"`
	Weight     *float64 `json:"weight"`
	GoalWeight *float64 `json:"goalWeight"`
}

// User はサービス利用ユーザーを表す。
// IsLocalがtrueのユーザーはパスワードハッシュを保持し、
// OAuth経由で登録されたユーザー（IsLocal=false）のPasswordはnilとなる。
type User struct {
	ID           string
	IsLocal      bool
	Username     string
	Email        string
	Password     *string
	PersonalInfo PersonalInfo
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser はAPIレスポンス用のユーザー射影。
// パスワードハッシュとisLocalフラグを含まない。
type PublicUser struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PersonalInfo PersonalInfo `json:"personalInfo"`
}

// Public はレスポンスに安全な射影を返す。
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PersonalInfo: u.PersonalInfo,
	}
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
