package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tejus/liftman/internal/model"
)

// ExerciseServiceInterface はエクササイズハンドラーが必要とするサービスインターフェース。
type ExerciseServiceInterface interface {
	Get(ctx context.Context, exerciseID string) (*model.Exercise, error)
	List(ctx context.Context, filter model.ExerciseFilter) ([]*model.Exercise, error)
}

// ExerciseHandler はエクササイズカタログのHTTPハンドラー。
type ExerciseHandler struct {
	service ExerciseServiceInterface
}

// NewExerciseHandler はExerciseHandlerを生成する。
func NewExerciseHandler(service ExerciseServiceInterface) *ExerciseHandler {
	return &ExerciseHandler{service: service}
}

// List はフィルタに合致するエクササイズの配列を返す。認証不要、エンベロープなし。
// GET /exercise?bodyPart=xxx&target=xxx&equipment=xxx
func (h *ExerciseHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := model.ExerciseFilter{
		BodyPart:  query.Get("bodyPart"),
		Target:    query.Get("target"),
		Equipment: query.Get("equipment"),
	}

	exercises, err := h.service.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list exercises", slog.String("error", err.Error()))
		writeEnvelope(w, false, "Could not fetch exercises.")
		return
	}
	if exercises == nil {
		exercises = []*model.Exercise{}
	}
	writeJSON(w, exercises)
}

// GetByID はカタログIDでエクササイズを返す。認証不要。
// GET /exercise/{exerciseID}
func (h *ExerciseHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	exerciseID := chi.URLParam(r, "exerciseID")

	exercise, err := h.service.Get(r.Context(), exerciseID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeEnvelope(w, false, "Incorrect ID.")
			return
		}
		slog.Error("failed to get exercise", slog.String("error", err.Error()))
		writeEnvelope(w, false, "Could not fetch exercise.")
		return
	}

	writeJSON(w, exercise)
}
