package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tejus/liftman/internal/middleware"
	"github.com/tejus/liftman/internal/model"
	"github.com/tejus/liftman/internal/program"
	"github.com/tejus/liftman/internal/validate"
)

// ProgramServiceInterface はワークアウトプログラムハンドラーが必要とする
// サービスインターフェース。
type ProgramServiceInterface interface {
	Create(ctx context.Context, ownerID string, isPublic bool, nameOfProgram string) (*model.WorkoutProgram, error)
	Get(ctx context.Context, id, requesterID string) (*model.WorkoutProgram, error)
	ListPublic(ctx context.Context) ([]*model.WorkoutProgram, error)
	ListByOwner(ctx context.Context, userID string) ([]*model.WorkoutProgram, error)
	UpdateDetails(ctx context.Context, id, requesterID string, isPublic *bool, nameOfProgram *string) error
	Delete(ctx context.Context, id, requesterID string) error
	AddExercise(ctx context.Context, id, requesterID, exerciseID string, numSets, numReps int) error
	RemoveExercise(ctx context.Context, id, requesterID, exerciseID string) error
}

// MutationRecorder はプログラム変更メトリクスの記録インターフェース。
type MutationRecorder interface {
	RecordProgramMutation(operation string)
}

// ProgramHandler はワークアウトプログラムのHTTPハンドラー。
type ProgramHandler struct {
	service ProgramServiceInterface
	metrics MutationRecorder
}

// NewProgramHandler はProgramHandlerを生成する。
func NewProgramHandler(service ProgramServiceInterface, metrics MutationRecorder) *ProgramHandler {
	return &ProgramHandler{
		service: service,
		metrics: metrics,
	}
}

// ListPublic は全ての公開プログラムを返す。認証不要、エンベロープなし。
// GET /workoutProgram
func (h *ProgramHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	programs, err := h.service.ListPublic(r.Context())
	if err != nil {
		slog.Error("failed to list public programs", slog.String("error", err.Error()))
		writeEnvelope(w, false, "Could not fetch workout programs.")
		return
	}
	if programs == nil {
		programs = []*model.WorkoutProgram{}
	}
	writeJSON(w, programs)
}

// GetByID は可視性判定付きでプログラムを返す。
// 公開プログラムは誰でも、非公開プログラムは作成者のみ取得できる。
// GET /workoutProgram/{workoutProgramID}
func (h *ProgramHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	programID := chi.URLParam(r, "workoutProgramID")
	// OptionalSession経由のため、未認証なら空のままでよい
	requesterID, _ := middleware.UserIDFromContext(r.Context())

	p, err := h.service.Get(r.Context(), programID, requesterID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			writeEnvelope(w, false, "Invalid Workout Program ID.")
		case errors.Is(err, model.ErrNotOwner):
			writeEnvelope(w, false, "You are not authorized to view this information.")
		default:
			slog.Error("failed to get program", slog.String("error", err.Error()))
			writeEnvelope(w, false, "Could not fetch workout program.")
		}
		return
	}

	writeJSON(w, p)
}

// ListOwn は現在のユーザーが作成した全プログラムを返す。エンベロープなし。
// GET /user/workoutPrograms
func (h *ProgramHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeEnvelope(w, false, "User needs to be authenticated to perform this action.")
		return
	}

	programs, err := h.service.ListByOwner(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list programs", slog.String("error", err.Error()))
		writeEnvelope(w, false, "Could not fetch workout programs.")
		return
	}
	if programs == nil {
		programs = []*model.WorkoutProgram{}
	}
	writeJSON(w, programs)
}

// Create は新しいワークアウトプログラムを作成する。
// isPublicは文字列リテラルの"0"/"1"のみ受理する。
// POST /workoutProgram
func (h *ProgramHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	isPublic := body.field("isPublic")
	nameOfProgram := body.field("nameOfProgram")

	if result := validate.WorkoutProgramInfo(isPublic, nameOfProgram); !result.Valid {
		writeValidationErrors(w, result.Errors)
		return
	}

	p, err := h.service.Create(r.Context(), userID, *isPublic == "1", *nameOfProgram)
	if err != nil {
		// サニタイズで空になった名前は未入力と同じ扱い
		if errors.Is(err, model.ErrEmptySanitized) {
			writeValidationErrors(w, []string{"Name of Program cannot be empty"})
			return
		}
		slog.Error("failed to create program", slog.String("error", err.Error()))
		writeEnvelope(w, false, "Could not create workout program.")
		return
	}

	h.recordMutation("create")

	writeCreated(w, "A new workout program was created.", p.ID)
}

// Update はisPublicとnameOfProgramを部分更新する。作成者のみ実行できる。
// PUT /workoutProgram/{workoutProgramID}
func (h *ProgramHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeEnvelope(w, false, "User needs to be authenticated to perform this action.")
		return
	}

	programID := chi.URLParam(r, "workoutProgramID")

	body, err := decodeBody(r)
	if err != nil {
		writeEnvelope(w, false, "Invalid request body.")
		return
	}

	isPublicField := body.field("isPublic")
	nameOfProgram := body.field("nameOfProgram")

	if result := validate.WorkoutProgramUpdate(isPublicField, nameOfProgram); !result.Valid {
		writeValidationErrors(w, result.Errors)
		return
	}

	var isPublic *bool
	if isPublicField != nil {
		v := *isPublicField == "1"
		isPublic = &v
	}

	if err := h.service.UpdateDetails(r.Context(), programID, userID, isPublic, nameOfProgram); err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			writeEnvelope(w, false, "Invalid Workout Program ID.")
		case errors.Is(err, model.ErrNotOwner):
			writeEnvelope(w, false, "You are not authorized to update this information.")
		case errors.Is(err, model.ErrEmptySanitized):
			writeValidationErrors(w, []string{"Name of Program cannot be empty"})
		default:
			slog.Error("failed to update program", slog.String("error", err.Error()))
			writeEnvelope(w, false, "Could not update workout program.")
		}
		return
	}

	h.recordMutation("update")

	writeEnvelope(w, true, "Workout Plan was updated.")
}

// Delete はプログラムを削除する。作成者のみ実行できる。
// DELETE /workoutProgram/{workoutProgramID}
func (h *ProgramHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeEnvelope(w, false, "User needs to be authenticated to perform this action.")
		return
	}

	programID := chi.URLParam(r, "workoutProgramID")

	if err := h.service.Delete(r.Context(), programID, userID); err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			writeEnvelope(w, false, "Invalid Workout Program ID.")
		case errors.Is(err, model.ErrNotOwner):
			writeEnvelope(w, false, "You are not authorized to delete this information.")
		default:
			slog.Error("failed to delete program", slog.String("error", err.Error()))
			writeEnvelope(w, false, "Could not delete workout program.")
		}
		return
	}

	h.recordMutation("delete")

	writeEnvelope(w, true, "Workout Plan was deleted.")
}

// AddExercise はカタログのエクササイズをスナップショットとして
// プログラム末尾に追加する。作成者のみ実行できる。
// PUT /workoutProgram/addExercise/{workoutProgramID}
func (h *ProgramHandler) AddExercise(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeEnvelope(w, false, "User needs to be authenticated to perform this action.")
		return
	}

	programID := chi.URLParam(r, "workoutProgramID")

	body, err := decodeBody(r)
	if err != nil {
		writeEnvelope(w, false, "Invalid request body.")
		return
	}

	exerciseID := body.stringField("exerciseID")
	numSets := body.intField("numSets")
	numReps := body.intField("numReps")

	if err := h.service.AddExercise(r.Context(), programID, userID, exerciseID, numSets, numReps); err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			writeEnvelope(w, false, "Invalid Workout Program ID.")
		case errors.Is(err, model.ErrNotOwner):
			writeEnvelope(w, false, "You are not authorized to add exercises to this program.")
		case errors.Is(err, program.ErrExerciseNotFound):
			writeEnvelope(w, false, "Invalid Exercise ID.")
		case errors.Is(err, model.ErrNotModified):
			writeEnvelope(w, false, "Exercise was not addedd to workout program.")
		default:
			slog.Error("failed to add exercise", slog.String("error", err.Error()))
			writeEnvelope(w, false, "Exercise was not addedd to workout program.")
		}
		return
	}

	h.recordMutation("add_exercise")

	writeEnvelope(w, true, "Exercise was addedd to workout program.")
}

// RemoveExercise はスナップショットIDが一致するエントリを全て削除する。
// 作成者のみ実行できる。削除対象はクエリパラメータで指定する。
// PUT /workoutProgram/removeExercise/{workoutProgramID}?exerciseID=xxx
func (h *ProgramHandler) RemoveExercise(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeEnvelope(w, false, "User needs to be authenticated to perform this action.")
		return
	}

	programID := chi.URLParam(r, "workoutProgramID")
	exerciseID := r.URL.Query().Get("exerciseID")

	if err := h.service.RemoveExercise(r.Context(), programID, userID, exerciseID); err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			writeEnvelope(w, false, "Invalid ID.")
		case errors.Is(err, model.ErrNotOwner):
			writeEnvelope(w, false, "You are not authorized to add exercises to this program.")
		case errors.Is(err, model.ErrNotModified):
			writeEnvelope(w, false, "Could not removed exercise from the workout program.")
		default:
			slog.Error("failed to remove exercise", slog.String("error", err.Error()))
			writeEnvelope(w, false, "Could not removed exercise from the workout program.")
		}
		return
	}

	h.recordMutation("remove_exercise")

	writeEnvelope(w, true, "Exercise removed from workout program.")
}

func (h *ProgramHandler) recordMutation(operation string) {
	if h.metrics != nil {
		h.metrics.RecordProgramMutation(operation)
	}
}
