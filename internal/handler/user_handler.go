package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/tejus/liftman/internal/middleware"
	"github.com/tejus/liftman/internal/model"
	"github.com/tejus/liftman/internal/validate"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.PublicUser, error)
	UpdateCore(ctx context.Context, userID, username, password string) error
	UpdatePersonalInfo(ctx context.Context, userID string, info *model.PersonalInfo) error
	Delete(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
	metrics LoginRecorder
	// 退会・コア情報更新後にセッションCookieを破棄するための設定
	cookieDomain string
	cookieSecure bool
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, metrics LoginRecorder, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{
		service:      service,
		metrics:      metrics,
		cookieDomain: cookieDomain,
		cookieSecure: cookieSecure,
	}
}

// GetSelf は現在のユーザーのレコードを返す。
// パスワードハッシュとisLocalフラグは含まれない。エンベロープなし。
// GET /user
func (h *UserHandler) GetSelf(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeEnvelope(w, false, "User needs to be authenticated to perform this action.")
		return
	}

	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		slog.Error("failed to get user", slog.String("error", err.Error()))
		writeEnvelope(w, false, "Could not fetch user.")
		return
	}

	writeJSON(w, user)
}

// Register はローカルユーザーを新規登録する。
// POST /user
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeEnvelope(w, false, "Invalid request body.")
		return
	}

	username := body.stringField("username")
	email := body.stringField("email")
	password := body.stringField("password")

	if result := validate.UserInfo(username, email, password); !result.Valid {
		writeValidationErrors(w, result.Errors)
		return
	}

	user, err := h.service.Register(r.Context(), username, email, password)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			writeEnvelope(w, false, "Email address already exists. Try logging in.")
			return
		}
		// サニタイズで空になったユーザー名は未入力と同じ扱い
		if errors.Is(err, model.ErrEmptySanitized) {
			writeValidationErrors(w, []string{"Please enter an username"})
			return
		}
		slog.Error("failed to register user", slog.String("error", err.Error()))
		writeEnvelope(w, false, "Could not register user.")
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRegistration()
	}

	writeEnvelope(w, true, fmt.Sprintf("User %s was correctly inserted to the database.", user.Username))
}

// UpdateCore はユーザー名とパスワードを更新する。
// 成功時は資格情報変更のため全セッションが失効し、Cookieも破棄される。
// PUT /user
func (h *UserHandler) UpdateCore(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeEnvelope(w, false, "User needs to be authenticated to perform this action.")
		return
	}

	body, err := decodeBody(r)
	if err != nil {
		writeEnvelope(w, false, "Invalid request body.")
		return
	}

	username := body.stringField("username")
	password := body.stringField("password")

	// メールアドレスは変更対象外。保存値を取得して検証に通す。
	current, err := h.service.Get(r.Context(), userID)
	if err != nil {
		slog.Error("failed to get user", slog.String("error", err.Error()))
		writeEnvelope(w, false, "Could not update user.")
		return
	}

	if result := validate.UserInfo(username, current.Email, password); !result.Valid {
		writeValidationErrors(w, result.Errors)
		return
	}

	if err := h.service.UpdateCore(r.Context(), userID, username, password); err != nil {
		switch {
		case errors.Is(err, model.ErrNotLocal):
			writeEnvelope(w, false, "User doesn't use local authentication.")
		case errors.Is(err, model.ErrNotModified):
			writeEnvelope(w, false, "User was not updated.")
		case errors.Is(err, model.ErrEmptySanitized):
			writeValidationErrors(w, []string{"Please enter an username"})
		default:
			slog.Error("failed to update user", slog.String("error", err.Error()))
			writeEnvelope(w, false, "Could not update user.")
		}
		return
	}

	// コア情報の更新は再認証を強制する
	h.clearSessionCookie(w)

	writeEnvelope(w, true, "User was updated.")
}

// UpdatePersonalInfo は身体情報を部分更新する。供給されたフィールドのみ書き込まれる。
// セッションは維持される。
// PUT /user/personalInformation
func (h *UserHandler) UpdatePersonalInfo(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeEnvelope(w, false, "User needs to be authenticated to perform this action.")
		return
	}

	body, err := decodeBody(r)
	if err != nil {
		writeEnvelope(w, false, "Invalid request body.")
		return
	}

	age := body.field("age")
	gender := body.field("gender")
	height := body.field("height")
	weight := body.field("weight")
	goalWeight := body.field("goalWeight")

	if result := validate.PersonalInfo(age, gender, height, weight, goalWeight); !result.Valid {
		writeValidationErrors(w, result.Errors)
		return
	}

	info := &model.PersonalInfo{
		Gender:     gender,
		Height:     parseFloatField(height),
		Weight:     parseFloatField(weight),
		GoalWeight: parseFloatField(goalWeight),
	}
	if age != nil {
		f, err := strconv.ParseFloat(strings.TrimSpace(*age), 64)
		if err == nil {
			n := int(f)
			info.Age = &n
		}
	}

	if err := h.service.UpdatePersonalInfo(r.Context(), userID, info); err != nil {
		if errors.Is(err, model.ErrNotModified) {
			writeEnvelope(w, false, "User was not updated.")
			return
		}
		slog.Error("failed to update personal info", slog.String("error", err.Error()))
		writeEnvelope(w, false, "Could not update user.")
		return
	}

	writeEnvelope(w, true, "User was updated.")
}

// Delete は現在のユーザーを退会させ、セッションCookieを破棄する。
// ユーザーが作成したワークアウトプログラムは削除されない。
// DELETE /user
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeEnvelope(w, false, "User needs to be authenticated to perform this action.")
		return
	}

	if err := h.service.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeEnvelope(w, false, "User was not deleted.")
			return
		}
		slog.Error("failed to delete user", slog.String("error", err.Error()))
		writeEnvelope(w, false, "User was not deleted.")
		return
	}

	h.clearSessionCookie(w)

	writeEnvelope(w, true, "User was deleted.")
}

func (h *UserHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.cookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// parseFloatField は文字列フィールドをfloat64ポインタに変換する。
// nilまたは解釈不能な値にはnilを返す（検証済みの値のみ到達する前提）。
func parseFloatField(v *string) *float64 {
	if v == nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*v), 64)
	if err != nil {
		return nil
	}
	return &f
}
