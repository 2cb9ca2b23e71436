package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tejus/liftman/internal/auth"
	"github.com/tejus/liftman/internal/exercise"
	"github.com/tejus/liftman/internal/middleware"
	"github.com/tejus/liftman/internal/model"
	"github.com/tejus/liftman/internal/program"
	"github.com/tejus/liftman/internal/repository"
	"github.com/tejus/liftman/internal/security"
	"github.com/tejus/liftman/internal/user"
)

// --- 統合テスト用のインメモリリポジトリ ---

// integrationState は統合テスト用の共有状態を保持する。
// 実サービス層をインメモリリポジトリで動かし、ルーター経由の
// リクエスト列が永続化状態をどう変化させるかを検証する。
type integrationState struct {
	users    map[string]*model.User
	sessions map[string]*model.Session
	programs map[string]*model.WorkoutProgram
	catalog  map[string]*model.Exercise
}

func newIntegrationState() *integrationState {
	return &integrationState{
		users:    make(map[string]*model.User),
		sessions: make(map[string]*model.Session),
		programs: make(map[string]*model.WorkoutProgram),
		catalog: map[string]*model.Exercise{
			"0047": {
				BodyPart:   "shoulders",
				Equipment:  "band",
				GifURL:     "https://example.com/0047.gif",
				ExerciseID: "0047",
				Name:       "band shoulder press",
				Target:     "delts",
			},
		},
	}
}

type memUserRepo struct {
	state *integrationState
}

func (r *memUserRepo) Create(_ context.Context, u *model.User) error {
	for _, existing := range r.state.users {
		if existing.Email == u.Email {
			return model.ErrDuplicateEmail
		}
	}
	r.state.users[u.ID] = u
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	return r.state.users[id], nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.state.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range r.state.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) UpdateCore(_ context.Context, id, username, password string) (bool, error) {
	u, ok := r.state.users[id]
	if !ok {
		return false, nil
	}
	u.Username = username
	u.Password = &password
	u.UpdatedAt = time.Now()
	return true, nil
}

func (r *memUserRepo) UpdatePersonalInfo(_ context.Context, id string, info *model.PersonalInfo) (bool, error) {
	u, ok := r.state.users[id]
	if !ok {
		return false, nil
	}
	if info.Age != nil {
		u.PersonalInfo.Age = info.Age
	}
	if info.Gender != nil {
		u.PersonalInfo.Gender = info.Gender
	}
	if info.Height != nil {
		u.PersonalInfo.Height = info.Height
	}
	if info.Weight != nil {
		u.PersonalInfo.Weight = info.Weight
	}
	if info.GoalWeight != nil {
		u.PersonalInfo.GoalWeight = info.GoalWeight
	}
	return true, nil
}

func (r *memUserRepo) DeleteByID(_ context.Context, id string) (bool, error) {
	if _, ok := r.state.users[id]; !ok {
		return false, nil
	}
	delete(r.state.users, id)
	return true, nil
}

type memSessionRepo struct {
	state *integrationState
}

func (r *memSessionRepo) Create(_ context.Context, s *model.Session) error {
	r.state.sessions[s.ID] = s
	return nil
}

func (r *memSessionRepo) FindByID(_ context.Context, id string) (*model.Session, error) {
	s, ok := r.state.sessions[id]
	if !ok || s.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	return s, nil
}

func (r *memSessionRepo) DeleteByID(_ context.Context, id string) error {
	delete(r.state.sessions, id)
	return nil
}

func (r *memSessionRepo) DeleteByUserID(_ context.Context, userID string) error {
	for id, s := range r.state.sessions {
		if s.UserID == userID {
			delete(r.state.sessions, id)
		}
	}
	return nil
}

func (r *memSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, s := range r.state.sessions {
		if s.ExpiresAt.Before(now) {
			delete(r.state.sessions, id)
			n++
		}
	}
	return n, nil
}

type memExerciseRepo struct {
	state *integrationState
}

func (r *memExerciseRepo) FindByExerciseID(_ context.Context, exerciseID string) (*model.Exercise, error) {
	return r.state.catalog[exerciseID], nil
}

func (r *memExerciseRepo) List(_ context.Context, filter model.ExerciseFilter) ([]*model.Exercise, error) {
	var results []*model.Exercise
	for _, e := range r.state.catalog {
		if filter.BodyPart != "" && e.BodyPart != filter.BodyPart {
			continue
		}
		if filter.Target != "" && e.Target != filter.Target {
			continue
		}
		if filter.Equipment != "" && e.Equipment != filter.Equipment {
			continue
		}
		results = append(results, e)
	}
	return results, nil
}

func (r *memExerciseRepo) Count(_ context.Context) (int, error) {
	return len(r.state.catalog), nil
}

type memProgramRepo struct {
	state *integrationState
}

func (r *memProgramRepo) Create(_ context.Context, p *model.WorkoutProgram) error {
	r.state.programs[p.ID] = p
	return nil
}

func (r *memProgramRepo) FindByID(_ context.Context, id string) (*model.WorkoutProgram, error) {
	return r.state.programs[id], nil
}

func (r *memProgramRepo) ListPublic(_ context.Context) ([]*model.WorkoutProgram, error) {
	var results []*model.WorkoutProgram
	for _, p := range r.state.programs {
		if p.IsPublic {
			results = append(results, p)
		}
	}
	return results, nil
}

func (r *memProgramRepo) ListByCreator(_ context.Context, userID string) ([]*model.WorkoutProgram, error) {
	var results []*model.WorkoutProgram
	for _, p := range r.state.programs {
		if p.CreatedBy == userID {
			results = append(results, p)
		}
	}
	return results, nil
}

func (r *memProgramRepo) UpdateDetails(_ context.Context, id string, isPublic *bool, nameOfProgram *string) (bool, error) {
	p, ok := r.state.programs[id]
	if !ok {
		return false, nil
	}
	if isPublic != nil {
		p.IsPublic = *isPublic
	}
	if nameOfProgram != nil {
		p.NameOfProgram = *nameOfProgram
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *memProgramRepo) DeleteByID(_ context.Context, id string) (bool, error) {
	if _, ok := r.state.programs[id]; !ok {
		return false, nil
	}
	delete(r.state.programs, id)
	return true, nil
}

func (r *memProgramRepo) AppendExercise(_ context.Context, id string, entry model.ProgramExercise) (bool, error) {
	p, ok := r.state.programs[id]
	if !ok {
		return false, nil
	}
	p.Exercises = append(p.Exercises, entry)
	return true, nil
}

func (r *memProgramRepo) RemoveExercisesByExerciseID(_ context.Context, id, exerciseID string) (bool, error) {
	p, ok := r.state.programs[id]
	if !ok {
		return false, nil
	}
	kept := p.Exercises[:0]
	removed := false
	for _, entry := range p.Exercises {
		if entry.Exercise.ExerciseID == exerciseID {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	p.Exercises = kept
	return removed, nil
}

// --- compile-time interface checks ---
var _ repository.UserRepository = (*memUserRepo)(nil)
var _ repository.SessionRepository = (*memSessionRepo)(nil)
var _ repository.ExerciseRepository = (*memExerciseRepo)(nil)
var _ repository.ProgramRepository = (*memProgramRepo)(nil)

// integrationOAuth はローカル認証フローでは呼ばれないOAuthプロバイダーのスタブ。
type integrationOAuth struct{}

func (integrationOAuth) GetLoginURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (integrationOAuth) ExchangeCode(_ context.Context, _ string) (*auth.OAuthUserInfo, error) {
	return nil, nil
}

// --- 統合テスト用ルーター構築ヘルパー ---

// createIntegrationRouter は実サービス層をインメモリリポジトリで組み立て、
// NewRouterで構成したハンドラーを返す。
func createIntegrationRouter(t *testing.T, state *integrationState) http.Handler {
	t.Helper()

	userRepo := &memUserRepo{state: state}
	sessionRepo := &memSessionRepo{state: state}
	exerciseRepo := &memExerciseRepo{state: state}
	programRepo := &memProgramRepo{state: state}
	sanitizer := security.NewDisplaySanitizer()

	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(limiter.Stop)

	deps := &RouterDeps{
		SessionFinder:     sessionRepo,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       limiter,
		DB:                &mockPinger{},
		AuthService:       auth.NewService(integrationOAuth{}, userRepo, sessionRepo, auth.ServiceConfig{SessionMaxAge: 86400}),
		AuthConfig:        AuthHandlerConfig{BaseURL: "http://localhost:3000", SessionMaxAge: 86400},
		UserService:       user.NewService(userRepo, sessionRepo, sanitizer),
		ProgramService:    program.NewService(programRepo, exerciseRepo, sanitizer),
		ExerciseService:   exercise.NewService(exerciseRepo),
	}

	return NewRouter(deps)
}

func doJSON(router http.Handler, method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// --- エンドツーエンド統合テスト ---

// TestIntegration_UserAndProgramLifecycle はユーザーとプログラムのライフサイクル
// 全体を検証する。登録 → ログイン → 非公開/公開プログラム作成 → ログアウト →
// 未認証での可視性確認 → 再ログイン → エクササイズ追加/削除 → プログラム削除 →
// 退会 → セッション失効確認。
func TestIntegration_UserAndProgramLifecycle(t *testing.T) {
	state := newIntegrationState()
	router := createIntegrationRouter(t, state)

	// 1. 登録: ユーザーが永続化されること
	w := doJSON(router, http.MethodPost, "/user",
		`{"username":"taro","email":"taro@example.com","password":"secret123"}`, nil)
	if success, message := parseEnvelope(t, w); !success || message != "User taro was correctly inserted to the database." {
		t.Fatalf("step1: register envelope = (%v, %q)", success, message)
	}
	if len(state.users) != 1 {
		t.Fatalf("step1: stored users = %d, want 1", len(state.users))
	}

	// 2. ログイン: セッションCookieが発行されること
	w = doJSON(router, http.MethodPost, "/auth/local",
		`{"email":"taro@example.com","password":"secret123"}`, nil)
	if success, message := parseEnvelope(t, w); !success || message != "Successfully logged in." {
		t.Fatalf("step2: login envelope = (%v, %q)", success, message)
	}
	session := sessionCookie(w)
	if session == nil || session.Value == "" {
		t.Fatal("step2: expected session cookie")
	}

	// 3. 非公開プログラムP1と公開プログラムP2を作成
	w = doJSON(router, http.MethodPost, "/workoutProgram",
		`{"isPublic":"0","nameOfProgram":"Private Push"}`, session)
	p1 := insertedID(t, w)

	w = doJSON(router, http.MethodPost, "/workoutProgram",
		`{"isPublic":"1","nameOfProgram":"Public Pull"}`, session)
	p2 := insertedID(t, w)

	if len(state.programs) != 2 {
		t.Fatalf("step3: stored programs = %d, want 2", len(state.programs))
	}

	// 4. ログアウト: セッションが破棄されること
	w = doJSON(router, http.MethodGet, "/logout", "", session)
	if success, message := parseEnvelope(t, w); !success || message != "Successfully logged out." {
		t.Fatalf("step4: logout envelope = (%v, %q)", success, message)
	}
	if len(state.sessions) != 0 {
		t.Fatalf("step4: remaining sessions = %d, want 0", len(state.sessions))
	}

	// 5. 破棄済みセッションでは認証必須ルートに入れないこと
	w = doJSON(router, http.MethodGet, "/user", "", session)
	if success, message := parseEnvelope(t, w); success || message != "User needs to be authenticated to perform this action." {
		t.Fatalf("step5: envelope = (%v, %q)", success, message)
	}

	// 6. 未認証の一覧には公開プログラムだけが載ること
	w = doJSON(router, http.MethodGet, "/workoutProgram", "", nil)
	var listed []model.WorkoutProgram
	if err := json.NewDecoder(w.Body).Decode(&listed); err != nil {
		t.Fatalf("step6: decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != p2 {
		t.Fatalf("step6: public list = %+v, want only %q", listed, p2)
	}

	// 7. 未認証では非公開プログラムは閲覧不可、公開プログラムは閲覧可
	w = doJSON(router, http.MethodGet, "/workoutProgram/"+p1, "", nil)
	if success, message := parseEnvelope(t, w); success || message != "You are not authorized to view this information." {
		t.Fatalf("step7: private fetch envelope = (%v, %q)", success, message)
	}

	w = doJSON(router, http.MethodGet, "/workoutProgram/"+p2, "", nil)
	var fetched model.WorkoutProgram
	if err := json.NewDecoder(w.Body).Decode(&fetched); err != nil {
		t.Fatalf("step7: decode public program: %v", err)
	}
	if fetched.NameOfProgram != "Public Pull" {
		t.Fatalf("step7: nameOfProgram = %q, want %q", fetched.NameOfProgram, "Public Pull")
	}

	// 8. 再ログイン
	w = doJSON(router, http.MethodPost, "/auth/local",
		`{"email":"taro@example.com","password":"secret123"}`, nil)
	session = sessionCookie(w)
	if session == nil || session.Value == "" {
		t.Fatal("step8: expected session cookie after re-login")
	}

	// 9. エクササイズ0047をP1に追加: カタログのスナップショットが載ること
	w = doJSON(router, http.MethodPut, "/workoutProgram/addExercise/"+p1,
		`{"exerciseID":"0047","numSets":4,"numReps":12}`, session)
	if success, message := parseEnvelope(t, w); !success || message != "Exercise was addedd to workout program." {
		t.Fatalf("step9: add envelope = (%v, %q)", success, message)
	}

	w = doJSON(router, http.MethodGet, "/workoutProgram/"+p1, "", session)
	if err := json.NewDecoder(w.Body).Decode(&fetched); err != nil {
		t.Fatalf("step9: decode private program: %v", err)
	}
	if len(fetched.Exercises) != 1 {
		t.Fatalf("step9: exercises = %d, want 1", len(fetched.Exercises))
	}
	if fetched.Exercises[0].Exercise.Name != "band shoulder press" || fetched.Exercises[0].NumSets != 4 {
		t.Fatalf("step9: entry = %+v", fetched.Exercises[0])
	}

	// 10. エクササイズ0047をP1から削除
	w = doJSON(router, http.MethodPut, "/workoutProgram/removeExercise/"+p1+"?exerciseID=0047", "", session)
	if success, message := parseEnvelope(t, w); !success || message != "Exercise removed from workout program." {
		t.Fatalf("step10: remove envelope = (%v, %q)", success, message)
	}
	if got := len(state.programs[p1].Exercises); got != 0 {
		t.Fatalf("step10: exercises = %d, want 0", got)
	}

	// 11. 両プログラムを削除
	for _, id := range []string{p1, p2} {
		w = doJSON(router, http.MethodDelete, "/workoutProgram/"+id, "", session)
		if success, message := parseEnvelope(t, w); !success || message != "Workout Plan was deleted." {
			t.Fatalf("step11: delete %s envelope = (%v, %q)", id, success, message)
		}
	}
	if len(state.programs) != 0 {
		t.Fatalf("step11: stored programs = %d, want 0", len(state.programs))
	}

	// 12. 退会: ユーザーと全セッションが消えること
	w = doJSON(router, http.MethodDelete, "/user", "", session)
	if success, message := parseEnvelope(t, w); !success || message != "User was deleted." {
		t.Fatalf("step12: withdraw envelope = (%v, %q)", success, message)
	}
	if len(state.users) != 0 || len(state.sessions) != 0 {
		t.Fatalf("step12: users = %d, sessions = %d, want 0/0", len(state.users), len(state.sessions))
	}

	// 13. 退会後の旧セッションは無効であること
	w = doJSON(router, http.MethodGet, "/user", "", session)
	if success, message := parseEnvelope(t, w); success || message != "User needs to be authenticated to perform this action." {
		t.Fatalf("step13: envelope = (%v, %q)", success, message)
	}
}

// TestIntegration_Register_RejectsBadInput は登録系の入力検証が
// サービス層込みで機能することを検証する。
func TestIntegration_Register_RejectsBadInput(t *testing.T) {
	state := newIntegrationState()
	router := createIntegrationRouter(t, state)

	// 1. マークアップだけのユーザー名はサニタイズ後に空となり拒否されること
	w := doJSON(router, http.MethodPost, "/user",
		`{"username":"<b></b>","email":"empty@example.com","password":"secret123"}`, nil)
	success, messages := parseValidationMessages(t, w)
	if success {
		t.Fatal("step1: success should be false")
	}
	if len(messages) != 1 || messages[0] != "Please enter an username" {
		t.Fatalf("step1: messages = %v", messages)
	}
	if len(state.users) != 0 {
		t.Fatalf("step1: stored users = %d, want 0", len(state.users))
	}

	// 2. 同一メールアドレスの再登録は拒否されること
	w = doJSON(router, http.MethodPost, "/user",
		`{"username":"taro","email":"taro@example.com","password":"secret123"}`, nil)
	if success, _ := parseEnvelope(t, w); !success {
		t.Fatal("step2: first registration should succeed")
	}

	w = doJSON(router, http.MethodPost, "/user",
		`{"username":"jiro","email":"taro@example.com","password":"secret456"}`, nil)
	if success, message := parseEnvelope(t, w); success || message != "Email address already exists. Try logging in." {
		t.Fatalf("step2: duplicate envelope = (%v, %q)", success, message)
	}
	if len(state.users) != 1 {
		t.Fatalf("step2: stored users = %d, want 1", len(state.users))
	}
}

func insertedID(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success    bool   `json:"success"`
		InsertedID string `json:"insertedID"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if !body.Success || body.InsertedID == "" {
		t.Fatalf("create response = %+v", body)
	}
	return body.InsertedID
}
