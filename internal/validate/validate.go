// Package validate はリクエストフィールドの検証を提供する。
// 各検証関数は純粋関数であり、エラーメッセージを明示的なアキュムレータに
// 蓄積して返す。共有状態を持たないため並行リクエスト下でも安全。
package validate

import (
	"net/mail"
	"strconv"
	"strings"
)

// Result は1回の検証操作の結果を表す。
// 該当する全てのサブチェックが実行され、メッセージはErrorsに蓄積される。
type Result struct {
	Valid  bool
	Errors []string
}

// UserInfo はユーザー登録・コア情報更新のフィールドを検証する。
// username/passwordは非空、emailは非空かつRFC形式であること。
// 全サブチェックを短絡せずに実行し、全エラーメッセージを返す。
func UserInfo(username, email, password string) Result {
	var errs []string
	errs = checkUsername(errs, username)
	errs = checkEmail(errs, email)
	errs = checkPassword(errs, password)
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// PersonalInfo は身体情報更新のフィールドを検証する。
// 各フィールドは任意であり、nilのフィールドは検証対象外となる。
// age/height/weight/goalWeightは数値として解釈できること、
// genderはmale/female/otherのいずれかであること。
func PersonalInfo(age, gender, height, weight, goalWeight *string) Result {
	var errs []string
	errs = checkNumeric(errs, age, "Age must be a valid number")
	errs = checkGender(errs, gender)
	errs = checkNumeric(errs, height, "Height must be a valid number")
	errs = checkNumeric(errs, weight, "Weight must be a valid number")
	errs = checkNumeric(errs, goalWeight, "Goal Weight must be a valid number")
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// WorkoutProgramInfo はワークアウトプログラム作成のフィールドを検証する。
// isPublicは文字列の"0"または"1"であること（欠落・真偽値・その他の値は全て不正）。
// nameOfProgramは非空であること。
func WorkoutProgramInfo(isPublic, nameOfProgram *string) Result {
	var errs []string
	errs = checkIsPublic(errs, isPublic)
	errs = checkNameOfProgram(errs, nameOfProgram)
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// WorkoutProgramUpdate はワークアウトプログラム更新のフィールドを検証する。
// 両フィールドとも任意であり、供給されたフィールドのみ検証する。
func WorkoutProgramUpdate(isPublic, nameOfProgram *string) Result {
	var errs []string
	if isPublic != nil {
		errs = checkIsPublic(errs, isPublic)
	}
	if nameOfProgram != nil {
		errs = checkNameOfProgram(errs, nameOfProgram)
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

func checkUsername(errs []string, username string) []string {
	if username == "" {
		return append(errs, "Please enter an username")
	}
	return errs
}

func checkEmail(errs []string, email string) []string {
	if email == "" {
		return append(errs, "Please enter an email address")
	}
	if !validEmailShape(email) {
		return append(errs, "Invalid email address")
	}
	return errs
}

func checkPassword(errs []string, password string) []string {
	if password == "" {
		return append(errs, "Please enter a password")
	}
	return errs
}

func checkNumeric(errs []string, v *string, msg string) []string {
	if v == nil {
		return errs
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(*v), 64); err != nil {
		return append(errs, msg)
	}
	return errs
}

func checkGender(errs []string, gender *string) []string {
	if gender == nil {
		return errs
	}
	switch *gender {
	case "male", "female", "other":
		return errs
	}
	return append(errs, "Illegal value for gender")
}

func checkIsPublic(errs []string, isPublic *string) []string {
	if isPublic == nil || (*isPublic != "0" && *isPublic != "1") {
		return append(errs, "Invalid value for isPublic")
	}
	return errs
}

func checkNameOfProgram(errs []string, nameOfProgram *string) []string {
	if nameOfProgram == nil || *nameOfProgram == "" {
		return append(errs, "Name of Program cannot be empty")
	}
	return errs
}

// validEmailShape はメールアドレスがRFC形式かを判定する。
// 表示名付きアドレスは認めず、ドメイン部にドットを要求する。
func validEmailShape(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}
