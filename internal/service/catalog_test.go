package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/deppfellow/lodging/internal/errs"
	"github.com/deppfellow/lodging/internal/lib/job"
	"github.com/deppfellow/lodging/internal/model"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// memoryRepo is a map-backed repository for exercising the service.
type memoryRepo struct {
	rows    map[model.Kind]map[uuid.UUID]model.Entity
	saveErr error
	patches []map[string]any
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[model.Kind]map[uuid.UUID]model.Entity)}
}

func (m *memoryRepo) GetAll(_ context.Context, kind model.Kind) ([]model.Entity, error) {
	var out []model.Entity
	for _, e := range m.rows[kind] {
		out = append(out, e)
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, kind model.Kind, id string) (model.Entity, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	return m.rows[kind][uid], nil
}

func (m *memoryRepo) Save(_ context.Context, e model.Entity) (model.Entity, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	if err := model.Validate(e); err != nil {
		return nil, err
	}
	meta := e.Meta()
	meta.ID = uuid.New()
	meta.CreatedAt = time.Now().UTC()
	meta.UpdatedAt = meta.CreatedAt
	if m.rows[e.Kind()] == nil {
		m.rows[e.Kind()] = make(map[uuid.UUID]model.Entity)
	}
	m.rows[e.Kind()][meta.ID] = e
	return e, nil
}

func (m *memoryRepo) Update(ctx context.Context, kind model.Kind, id string, patch map[string]any) (model.Entity, error) {
	m.patches = append(m.patches, patch)
	e, _ := m.Get(ctx, kind, id)
	if e == nil {
		return nil, errs.NewNotFoundError(kind.String(), id)
	}
	if _, err := model.ApplyPatch(e, patch); err != nil {
		return nil, err
	}
	return e, nil
}

func (m *memoryRepo) Delete(_ context.Context, kind model.Kind, id string) (bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	_, ok := m.rows[kind][uid]
	delete(m.rows[kind], uid)
	return ok, nil
}

func (m *memoryRepo) Reload(context.Context) error { return nil }

func (m *memoryRepo) CountryByCode(context.Context, string) (*model.Country, error) {
	return nil, nil
}

func (m *memoryRepo) FindPlaceAmenity(context.Context, uuid.UUID, uuid.UUID) (*model.PlaceAmenity, error) {
	return nil, nil
}

func (m *memoryRepo) DeletePlaceAmenity(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

// plainHasher marks digests so tests can tell hashed values apart.
type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errs.NewFieldValidationError("password", "is required")
	}
	return "hashed:" + plaintext, nil
}

func (plainHasher) Verify(plaintext, digest string) (bool, error) {
	return digest == "hashed:"+plaintext, nil
}

type recordingEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: "t1"}, nil
}

func newTestCatalog() (*Catalog, *memoryRepo, *recordingEnqueuer) {
	repo := newMemoryRepo()
	tasks := &recordingEnqueuer{}
	return NewCatalog(CatalogDeps{Repo: repo, Hasher: plainHasher{}, Tasks: tasks}), repo, tasks
}

func userPayload() map[string]any {
	return map[string]any{
		"email":      "ada@x.io",
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"password":   "s3cret",
	}
}

func TestCreateThenReadRoundTrip(t *testing.T) {
	catalog, _, _ := newTestCatalog()
	ctx := context.Background()

	created, err := catalog.Create(ctx, model.KindCity, map[string]any{"name": "Paris", "country_code": "FR"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := catalog.Read(ctx, model.KindCity, created.Meta().ID.String())
	if err != nil || got == nil {
		t.Fatalf("Read() = %v, %v", got, err)
	}

	city := got.(*model.City)
	if city.Name != "Paris" || city.CountryCode != "FR" {
		t.Fatalf("unexpected city %+v", city)
	}
}

func TestCreateUserHashesPasswordAndEnqueuesWelcome(t *testing.T) {
	catalog, _, tasks := newTestCatalog()
	ctx := context.Background()

	e, err := catalog.Create(ctx, model.KindUser, userPayload())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	user := e.(*model.User)
	if user.PasswordHash != "hashed:s3cret" {
		t.Fatalf("password not hashed: %q", user.PasswordHash)
	}
	if _, leaked := model.Project(user)["password_hash"]; leaked {
		t.Fatal("projection must not expose the password hash")
	}

	if len(tasks.tasks) != 1 || tasks.tasks[0].Type() != job.TaskWelcome {
		t.Fatalf("expected one welcome task, got %v", tasks.tasks)
	}
	if !strings.Contains(string(tasks.tasks[0].Payload()), user.ID.String()) {
		t.Fatalf("task payload missing user id: %s", tasks.tasks[0].Payload())
	}

	ok, err := catalog.CheckPassword(ctx, user.ID.String(), "s3cret")
	if !ok || err != nil {
		t.Fatalf("CheckPassword(correct) = %v, %v", ok, err)
	}
	if ok, _ := catalog.CheckPassword(ctx, user.ID.String(), "nope"); ok {
		t.Fatal("CheckPassword(wrong) = true")
	}
	if _, err := catalog.CheckPassword(ctx, uuid.NewString(), "s3cret"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("CheckPassword(unknown) error = %v", err)
	}
}

func TestCreateUserPasswordRules(t *testing.T) {
	catalog, repo, _ := newTestCatalog()
	ctx := context.Background()

	missing := userPayload()
	delete(missing, "password")

	direct := userPayload()
	direct["password_hash"] = "forged"

	notString := userPayload()
	notString["password"] = 42

	for name, payload := range map[string]map[string]any{
		"missing":     missing,
		"direct hash": direct,
		"not string":  notString,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := catalog.Create(ctx, model.KindUser, payload); !errors.Is(err, errs.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if len(repo.rows[model.KindUser]) != 0 {
		t.Fatal("rejected payloads must not be saved")
	}
}

func TestCreateSucceedsWhenEnqueueFails(t *testing.T) {
	catalog, _, tasks := newTestCatalog()
	tasks.err = errors.New("redis down")

	if _, err := catalog.Create(context.Background(), model.KindUser, userPayload()); err != nil {
		t.Fatalf("enqueue failure must not fail Create: %v", err)
	}
}

func TestCreatePropagatesRepositoryErrors(t *testing.T) {
	catalog, repo, tasks := newTestCatalog()
	repo.saveErr = errs.NewUniquenessViolationError("User", "email", "ada@x.io")

	_, err := catalog.Create(context.Background(), model.KindUser, userPayload())
	if !errors.Is(err, errs.ErrUniquenessViolation) {
		t.Fatalf("expected uniqueness violation, got %v", err)
	}
	if len(tasks.tasks) != 0 {
		t.Fatal("no welcome email for a failed create")
	}
}

func TestCreateRejectsUnknownAndReservedFields(t *testing.T) {
	catalog, _, _ := newTestCatalog()

	for _, payload := range []map[string]any{
		{"name": "Wifi", "color": "blue"},
		{"name": "Wifi", "id": uuid.NewString()},
	} {
		if _, err := catalog.Create(context.Background(), model.KindAmenity, payload); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("Create(%v) error = %v", payload, err)
		}
	}
}

func TestUpdateUserPassword(t *testing.T) {
	catalog, repo, _ := newTestCatalog()
	ctx := context.Background()

	e, _ := catalog.Create(ctx, model.KindUser, userPayload())
	id := e.Meta().ID.String()

	if _, err := catalog.Update(ctx, model.KindUser, id, map[string]any{"password": "n3w"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	last := repo.patches[len(repo.patches)-1]
	if _, plain := last["password"]; plain || last["password_hash"] != "hashed:n3w" {
		t.Fatalf("repository received %v", last)
	}

	if _, err := catalog.Update(ctx, model.KindUser, id, map[string]any{"password_hash": "forged"}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	got, _ := catalog.Update(ctx, model.KindUser, id, map[string]any{"first_name": "Augusta"})
	if got.(*model.User).PasswordHash != "hashed:n3w" {
		t.Fatal("patch without password must keep the hash")
	}
}

func TestListAndDelete(t *testing.T) {
	catalog, _, _ := newTestCatalog()
	ctx := context.Background()

	e, _ := catalog.Create(ctx, model.KindAmenity, map[string]any{"name": "Wifi"})
	if _, err := catalog.Create(ctx, model.KindAmenity, map[string]any{"name": "Pool"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	all, err := catalog.List(ctx, model.KindAmenity)
	if err != nil || len(all) != 2 {
		t.Fatalf("List() = %v, %v", all, err)
	}

	id := e.Meta().ID.String()
	if ok, err := catalog.Delete(ctx, model.KindAmenity, id); !ok || err != nil {
		t.Fatalf("Delete() = %v, %v", ok, err)
	}
	if got, _ := catalog.Read(ctx, model.KindAmenity, id); got != nil {
		t.Fatalf("Read after delete = %v", got)
	}
	if ok, err := catalog.Delete(ctx, model.KindAmenity, id); ok || err != nil {
		t.Fatalf("second Delete() = %v, %v", ok, err)
	}
}
