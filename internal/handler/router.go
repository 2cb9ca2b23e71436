package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tejus/liftman/internal/metrics"
	"github.com/tejus/liftman/internal/middleware"
)

// Pinger はヘルスチェックに必要なDB接続インターフェース。
// *sql.DB がこれを満たす。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 可観測性
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer

	// ヘルスチェック
	DB Pinger

	// サービス層
	AuthService     AuthServiceInterface
	AuthConfig      AuthHandlerConfig
	UserService     UserServiceInterface
	ProgramService  ProgramServiceInterface
	ExerciseService ExerciseServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging
//
// 認証が必要なルートにはさらに RequireSession → RateLimit(General) が適用される。
// GET /workoutProgram/{id} は未認証でも公開プログラムを取得できるよう
// OptionalSession を使う。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))

	authHandler := NewAuthHandler(deps.AuthService, deps.Metrics, deps.AuthConfig)
	userHandler := NewUserHandler(deps.UserService, deps.Metrics, deps.AuthConfig.CookieDomain, deps.AuthConfig.CookieSecure)
	programHandler := NewProgramHandler(deps.ProgramService, deps.Metrics)
	exerciseHandler := NewExerciseHandler(deps.ExerciseService)

	// --- 認証不要のルート ---

	// 認証フロー
	r.Route("/auth", func(r chi.Router) {
		r.Post("/local", authHandler.LoginLocal)
		r.Get("/google", authHandler.GoogleLogin)
		r.Get("/google/callback", authHandler.GoogleCallback)
	})

	// ユーザー登録（IPベースの登録専用レート制限）
	r.With(deps.RateLimiter.RegisterMiddleware()).Post("/user", userHandler.Register)

	// 公開プログラムの閲覧
	r.Get("/workoutProgram", programHandler.ListPublic)
	r.With(middleware.NewOptionalSession(deps.SessionFinder)).
		Get("/workoutProgram/{workoutProgramID}", programHandler.GetByID)

	// エクササイズカタログ
	r.Route("/exercise", func(r chi.Router) {
		r.Get("/", exerciseHandler.List)
		r.Get("/{exerciseID}", exerciseHandler.GetByID)
	})

	// 運用系エンドポイント
	r.Get("/health", newHealthHandler(deps.DB))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: RequireSession → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRequireSession(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ユーザー管理
		// POST /user は未認証ルート側にあるため、ここでは個別に登録する
		r.Get("/user", userHandler.GetSelf)
		r.Put("/user", userHandler.UpdateCore)
		r.Delete("/user", userHandler.Delete)
		r.Put("/user/personalInformation", userHandler.UpdatePersonalInfo)
		r.Get("/user/workoutPrograms", programHandler.ListOwn)

		// プログラム管理
		r.Post("/workoutProgram", programHandler.Create)
		r.Put("/workoutProgram/{workoutProgramID}", programHandler.Update)
		r.Delete("/workoutProgram/{workoutProgramID}", programHandler.Delete)
		r.Put("/workoutProgram/addExercise/{workoutProgramID}", programHandler.AddExercise)
		r.Put("/workoutProgram/removeExercise/{workoutProgramID}", programHandler.RemoveExercise)

		// セッション終了
		r.Get("/logout", authHandler.Logout)
	})

	return r
}

// newHealthHandler はDBへの疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				slog.Error("health check db ping failed", slog.String("error", err.Error()))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}
