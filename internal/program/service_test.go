package program

import (
	"context"
	"errors"
	"testing"

	"github.com/tejus/liftman/internal/model"
	"github.com/tejus/liftman/internal/repository"
	"github.com/tejus/liftman/internal/security"
)

// --- モック定義 ---

type mockProgramRepo struct {
	createFn          func(ctx context.Context, program *model.WorkoutProgram) error
	findByIDFn        func(ctx context.Context, id string) (*model.WorkoutProgram, error)
	listPublicFn      func(ctx context.Context) ([]*model.WorkoutProgram, error)
	listByCreatorFn   func(ctx context.Context, userID string) ([]*model.WorkoutProgram, error)
	updateDetailsFn   func(ctx context.Context, id string, isPublic *bool, nameOfProgram *string) (bool, error)
	deleteByIDFn      func(ctx context.Context, id string) (bool, error)
	appendExerciseFn  func(ctx context.Context, id string, entry model.ProgramExercise) (bool, error)
	removeExercisesFn func(ctx context.Context, id, exerciseID string) (bool, error)
}

func (m *mockProgramRepo) Create(ctx context.Context, program *model.WorkoutProgram) error {
	if m.createFn != nil {
		return m.createFn(ctx, program)
	}
	return nil
}

func (m *mockProgramRepo) FindByID(ctx context.Context, id string) (*model.WorkoutProgram, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockProgramRepo) ListPublic(ctx context.Context) ([]*model.WorkoutProgram, error) {
	if m.listPublicFn != nil {
		return m.listPublicFn(ctx)
	}
	return nil, nil
}

func (m *mockProgramRepo) ListByCreator(ctx context.Context, userID string) ([]*model.WorkoutProgram, error) {
	if m.listByCreatorFn != nil {
		return m.listByCreatorFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockProgramRepo) UpdateDetails(ctx context.Context, id string, isPublic *bool, nameOfProgram *string) (bool, error) {
	if m.updateDetailsFn != nil {
		return m.updateDetailsFn(ctx, id, isPublic, nameOfProgram)
	}
	return false, nil
}

func (m *mockProgramRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return false, nil
}

func (m *mockProgramRepo) AppendExercise(ctx context.Context, id string, entry model.ProgramExercise) (bool, error) {
	if m.appendExerciseFn != nil {
		return m.appendExerciseFn(ctx, id, entry)
	}
	return false, nil
}

func (m *mockProgramRepo) RemoveExercisesByExerciseID(ctx context.Context, id, exerciseID string) (bool, error) {
	if m.removeExercisesFn != nil {
		return m.removeExercisesFn(ctx, id, exerciseID)
	}
	return false, nil
}

type mockExerciseRepo struct {
	findByExerciseIDFn func(ctx context.Context, exerciseID string) (*model.Exercise, error)
	listFn             func(ctx context.Context, filter model.ExerciseFilter) ([]*model.Exercise, error)
	countFn            func(ctx context.Context) (int, error)
}

func (m *mockExerciseRepo) FindByExerciseID(ctx context.Context, exerciseID string) (*model.Exercise, error) {
	if m.findByExerciseIDFn != nil {
		return m.findByExerciseIDFn(ctx, exerciseID)
	}
	return nil, nil
}

func (m *mockExerciseRepo) List(ctx context.Context, filter model.ExerciseFilter) ([]*model.Exercise, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockExerciseRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

// --- compile-time interface checks ---
var _ repository.ProgramRepository = (*mockProgramRepo)(nil)
var _ repository.ExerciseRepository = (*mockExerciseRepo)(nil)

func ownedProgram(id, owner string, isPublic bool) *model.WorkoutProgram {
	return &model.WorkoutProgram{
		ID:            id,
		IsPublic:      isPublic,
		NameOfProgram: "Push Day",
		CreatedBy:     owner,
		Exercises:     []model.ProgramExercise{},
	}
}

// --- テスト ---

func TestCreate_InitializesEmptyExerciseList(t *testing.T) {
	ctx := context.Background()

	var created *model.WorkoutProgram

	repo := &mockProgramRepo{
		createFn: func(ctx context.Context, program *model.WorkoutProgram) error {
			created = program
			return nil
		},
	}

	svc := NewService(repo, &mockExerciseRepo{}, security.NewDisplaySanitizer())

	p, err := svc.Create(ctx, "owner-1", false, "Leg Day")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created == nil {
		t.Fatal("expected program to be persisted")
	}
	if created.CreatedBy != "owner-1" {
		t.Errorf("createdBy = %q, want %q", created.CreatedBy, "owner-1")
	}
	if created.Exercises == nil || len(created.Exercises) != 0 {
		t.Error("exercise list should be initialized empty")
	}
	if p.ID == "" {
		t.Error("expected generated program ID")
	}
}

func TestCreate_SanitizesProgramName(t *testing.T) {
	ctx := context.Background()

	var created *model.WorkoutProgram

	repo := &mockProgramRepo{
		createFn: func(ctx context.Context, program *model.WorkoutProgram) error {
			created = program
			return nil
		},
	}

	svc := NewService(repo, &mockExerciseRepo{}, security.NewDisplaySanitizer())

	if _, err := svc.Create(ctx, "owner-1", true, "<b>Pull</b> Day"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.NameOfProgram != "Pull Day" {
		t.Errorf("nameOfProgram = %q, want %q", created.NameOfProgram, "Pull Day")
	}
}

func TestCreate_MarkupOnlyName_Rejected(t *testing.T) {
	ctx := context.Background()

	repo := &mockProgramRepo{
		createFn: func(ctx context.Context, program *model.WorkoutProgram) error {
			t.Fatal("Create should not be called when the sanitized name is empty")
			return nil
		},
	}

	svc := NewService(repo, &mockExerciseRepo{}, security.NewDisplaySanitizer())

	_, err := svc.Create(ctx, "owner-1", true, "<b></b>")
	if !errors.Is(err, model.ErrEmptySanitized) {
		t.Fatalf("Create() error = %v, want ErrEmptySanitized", err)
	}
}

func TestUpdateDetails_MarkupOnlyName_Rejected(t *testing.T) {
	ctx := context.Background()

	repo := &mockProgramRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.WorkoutProgram, error) {
			return ownedProgram(id, "owner-1", true), nil
		},
		updateDetailsFn: func(ctx context.Context, id string, isPublic *bool, name *string) (bool, error) {
			t.Fatal("UpdateDetails should not be called when the sanitized name is empty")
			return false, nil
		},
	}

	svc := NewService(repo, &mockExerciseRepo{}, security.NewDisplaySanitizer())

	name := "<i></i>"
	err := svc.UpdateDetails(ctx, "program-1", "owner-1", nil, &name)
	if !errors.Is(err, model.ErrEmptySanitized) {
		t.Fatalf("UpdateDetails() error = %v, want ErrEmptySanitized", err)
	}
}

func TestGet_PublicProgram_VisibleToAnyone(t *testing.T) {
	ctx := context.Background()

	repo := &mockProgramRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.WorkoutProgram, error) {
			return ownedProgram(id, "owner-1", true), nil
		},
	}

	svc := NewService(repo, &mockExerciseRepo{}, nil)

	// 未認証（空のrequesterID）でも取得できる
	p, err := svc.Get(ctx, "p1", "")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.ID != "p1" {
		t.Errorf("program ID = %q, want %q", p.ID, "p1")
	}
}

func TestGet_PrivateProgram_OnlyCreatorCanView(t *testing.T) {
	ctx := context.Background()

	repo := &mockProgramRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.WorkoutProgram, error) {
			return ownedProgram(id, "owner-1", false), nil
		},
	}

	svc := NewService(repo, &mockExerciseRepo{}, nil)

	tests := []struct {
		name        string
		requesterID string
		wantErr     error
	}{
		{"creator", "owner-1", nil},
		{"other user", "other-user", model.ErrNotOwner},
		{"unauthenticated", "", model.ErrNotOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Get(ctx, "p1", tt.requesterID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Get() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGet_UnknownProgram_ReturnsNotFound(t *testing.T) {
	svc := NewService(&mockProgramRepo{}, &mockExerciseRepo{}, nil)

	_, err := svc.Get(context.Background(), "missing", "anyone")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateDetails_NonOwner_ReturnsNotOwner(t *testing.T) {
	ctx := context.Background()

	repo := &mockProgramRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.WorkoutProgram, error) {
			return ownedProgram(id, "owner-1", true), nil
		},
		updateDetailsFn: func(ctx context.Context, id string, isPublic *bool, nameOfProgram *string) (bool, error) {
			t.Fatal("UpdateDetails should not reach the repository for a non-owner")
			return false, nil
		},
	}

	svc := NewService(repo, &mockExerciseRepo{}, nil)

	err := svc.UpdateDetails(ctx, "p1", "other-user", nil, nil)
	if !errors.Is(err, model.ErrNotOwner) {
		t.Fatalf("UpdateDetails() error = %v, want ErrNotOwner", err)
	}
}

func TestUpdateDetails_Owner_PassesPartialFields(t *testing.T) {
	ctx := context.Background()

	var gotPublic *bool
	var gotName *string

	repo := &mockProgramRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.WorkoutProgram, error) {
			return ownedProgram(id, "owner-1", false), nil
		},
		updateDetailsFn: func(ctx context.Context, id string, isPublic *bool, nameOfProgram *string) (bool, error) {
			gotPublic = isPublic
			gotName = nameOfProgram
			return true, nil
		},
	}

	svc := NewService(repo, &mockExerciseRepo{}, nil)

	public := true
	if err := svc.UpdateDetails(ctx, "p1", "owner-1", &public, nil); err != nil {
		t.Fatalf("UpdateDetails() error = %v", err)
	}

	if gotPublic == nil || *gotPublic != true {
		t.Error("expected isPublic=true to be passed through")
	}
	if gotName != nil {
		t.Error("omitted name should stay nil")
	}
}

func TestDelete_OnlyOwnerCanDelete(t *testing.T) {
	ctx := context.Background()

	deleted := false

	repo := &mockProgramRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.WorkoutProgram, error) {
			return ownedProgram(id, "owner-1", true), nil
		},
		deleteByIDFn: func(ctx context.Context, id string) (bool, error) {
			deleted = true
			return true, nil
		},
	}

	svc := NewService(repo, &mockExerciseRepo{}, nil)

	if err := svc.Delete(ctx, "p1", "other-user"); !errors.Is(err, model.ErrNotOwner) {
		t.Fatalf("Delete() as non-owner error = %v, want ErrNotOwner", err)
	}
	if deleted {
		t.Fatal("program should not be deleted by a non-owner")
	}

	if err := svc.Delete(ctx, "p1", "owner-1"); err != nil {
		t.Fatalf("Delete() as owner error = %v", err)
	}
	if !deleted {
		t.Error("expected program to be deleted by the owner")
	}
}

func TestAddExercise_SnapshotsCatalogRecord(t *testing.T) {
	ctx := context.Background()

	var appended model.ProgramExercise

	programRepo := &mockProgramRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.WorkoutProgram, error) {
			return ownedProgram(id, "owner-1", true), nil
		},
		appendExerciseFn: func(ctx context.Context, id string, entry model.ProgramExercise) (bool, error) {
			appended = entry
			return true, nil
		},
	}
	exerciseRepo := &mockExerciseRepo{
		findByExerciseIDFn: func(ctx context.Context, exerciseID string) (*model.Exercise, error) {
			return &model.Exercise{
				ExerciseID: exerciseID,
				Name:       "band shoulder press",
				BodyPart:   "shoulders",
				Target:     "delts",
				Equipment:  "band",
			}, nil
		},
	}

	svc := NewService(programRepo, exerciseRepo, nil)

	if err := svc.AddExercise(ctx, "p1", "owner-1", "0047", 4, 12); err != nil {
		t.Fatalf("AddExercise() error = %v", err)
	}

	if appended.Exercise.ExerciseID != "0047" {
		t.Errorf("snapshot exercise ID = %q, want %q", appended.Exercise.ExerciseID, "0047")
	}
	if appended.Exercise.Name != "band shoulder press" {
		t.Errorf("snapshot name = %q, want %q", appended.Exercise.Name, "band shoulder press")
	}
	if appended.NumSets != 4 || appended.NumReps != 12 {
		t.Errorf("sets/reps = %d/%d, want 4/12", appended.NumSets, appended.NumReps)
	}
}

func TestAddExercise_UnknownExercise_ReturnsExerciseNotFound(t *testing.T) {
	ctx := context.Background()

	programRepo := &mockProgramRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.WorkoutProgram, error) {
			return ownedProgram(id, "owner-1", true), nil
		},
		appendExerciseFn: func(ctx context.Context, id string, entry model.ProgramExercise) (bool, error) {
			t.Fatal("AppendExercise should not be called for an unknown exercise")
			return false, nil
		},
	}
	exerciseRepo := &mockExerciseRepo{
		findByExerciseIDFn: func(ctx context.Context, exerciseID string) (*model.Exercise, error) {
			return nil, nil
		},
	}

	svc := NewService(programRepo, exerciseRepo, nil)

	err := svc.AddExercise(ctx, "p1", "owner-1", "9999", 3, 10)
	if !errors.Is(err, ErrExerciseNotFound) {
		t.Fatalf("AddExercise() error = %v, want ErrExerciseNotFound", err)
	}
}

func TestAddExercise_UnknownProgram_ReturnsNotFound(t *testing.T) {
	svc := NewService(&mockProgramRepo{}, &mockExerciseRepo{}, nil)

	err := svc.AddExercise(context.Background(), "missing", "owner-1", "0047", 3, 10)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("AddExercise() error = %v, want ErrNotFound", err)
	}
}

func TestRemoveExercise_RemovesAllMatchingEntries(t *testing.T) {
	ctx := context.Background()

	var removedExerciseID string

	repo := &mockProgramRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.WorkoutProgram, error) {
			return ownedProgram(id, "owner-1", true), nil
		},
		removeExercisesFn: func(ctx context.Context, id, exerciseID string) (bool, error) {
			removedExerciseID = exerciseID
			return true, nil
		},
	}

	svc := NewService(repo, &mockExerciseRepo{}, nil)

	if err := svc.RemoveExercise(ctx, "p1", "owner-1", "0047"); err != nil {
		t.Fatalf("RemoveExercise() error = %v", err)
	}
	if removedExerciseID != "0047" {
		t.Errorf("removed exercise ID = %q, want %q", removedExerciseID, "0047")
	}
}

func TestRemoveExercise_NothingRemoved_ReturnsNotModified(t *testing.T) {
	ctx := context.Background()

	repo := &mockProgramRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.WorkoutProgram, error) {
			return ownedProgram(id, "owner-1", true), nil
		},
		removeExercisesFn: func(ctx context.Context, id, exerciseID string) (bool, error) {
			return false, nil
		},
	}

	svc := NewService(repo, &mockExerciseRepo{}, nil)

	err := svc.RemoveExercise(ctx, "p1", "owner-1", "not-in-program")
	if !errors.Is(err, model.ErrNotModified) {
		t.Fatalf("RemoveExercise() error = %v, want ErrNotModified", err)
	}
}

func TestListByOwner_PassesUserID(t *testing.T) {
	ctx := context.Background()

	repo := &mockProgramRepo{
		listByCreatorFn: func(ctx context.Context, userID string) ([]*model.WorkoutProgram, error) {
			if userID != "owner-1" {
				t.Errorf("userID = %q, want %q", userID, "owner-1")
			}
			return []*model.WorkoutProgram{ownedProgram("p1", userID, false)}, nil
		},
	}

	svc := NewService(repo, &mockExerciseRepo{}, nil)

	programs, err := svc.ListByOwner(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(programs) != 1 {
		t.Fatalf("got %d programs, want 1", len(programs))
	}
}
