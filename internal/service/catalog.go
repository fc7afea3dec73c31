package service

import (
	"context"
	"maps"
	"time"

	"github.com/deppfellow/lodging/internal/errs"
	"github.com/deppfellow/lodging/internal/lib/job"
	"github.com/deppfellow/lodging/internal/lib/password"
	"github.com/deppfellow/lodging/internal/logger"
	"github.com/deppfellow/lodging/internal/model"
	"github.com/deppfellow/lodging/internal/repository"
	"github.com/hibiken/asynq"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

// TaskEnqueuer schedules background tasks. *asynq.Client satisfies it.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// CatalogDeps groups the collaborators of a Catalog. Tasks and NewRelic
// are optional.
type CatalogDeps struct {
	Repo     repository.Repository
	Hasher   password.Hasher
	Tasks    TaskEnqueuer
	Logger   *zerolog.Logger
	NewRelic *newrelic.Application
}

// Catalog is the entry point for creating, reading, listing, updating
// and deleting marketplace entities.
//
// User payloads carry a plaintext "password" that is hashed before the
// repository sees it. Callers may not set "password_hash" directly.
type Catalog struct {
	repo   repository.Repository
	hasher password.Hasher
	tasks  TaskEnqueuer
	logger *zerolog.Logger
	nrApp  *newrelic.Application
}

func NewCatalog(deps CatalogDeps) *Catalog {
	logger := deps.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Catalog{
		repo:   deps.Repo,
		hasher: deps.Hasher,
		tasks:  deps.Tasks,
		logger: logger,
		nrApp:  deps.NewRelic,
	}
}

// Create decodes payload into a new entity of kind and saves it.
func (c *Catalog) Create(ctx context.Context, kind model.Kind, payload map[string]any) (model.Entity, error) {
	defer newrelic.FromContext(ctx).StartSegment("catalog.create").End()
	start := time.Now()

	e, err := c.create(ctx, kind, payload)
	c.observe(ctx, "create", kind, idOf(e), start, err)
	if err != nil {
		return nil, err
	}

	if user, ok := e.(*model.User); ok {
		c.enqueueWelcome(ctx, user)
	}

	return e, nil
}

func (c *Catalog) create(ctx context.Context, kind model.Kind, payload map[string]any) (model.Entity, error) {
	var hash string
	if kind == model.KindUser {
		rest, digest, err := c.takePassword(payload, true)
		if err != nil {
			return nil, err
		}
		payload, hash = rest, digest
	}

	e, err := model.Decode(kind, payload)
	if err != nil {
		return nil, err
	}

	if user, ok := e.(*model.User); ok {
		user.PasswordHash = hash
	}

	return c.repo.Save(ctx, e)
}

// Read returns the entity or nil when none exists.
func (c *Catalog) Read(ctx context.Context, kind model.Kind, id string) (model.Entity, error) {
	defer newrelic.FromContext(ctx).StartSegment("catalog.read").End()
	start := time.Now()

	e, err := c.repo.Get(ctx, kind, id)
	c.observe(ctx, "read", kind, id, start, err)
	return e, err
}

func (c *Catalog) List(ctx context.Context, kind model.Kind) ([]model.Entity, error) {
	defer newrelic.FromContext(ctx).StartSegment("catalog.list").End()
	start := time.Now()

	entities, err := c.repo.GetAll(ctx, kind)
	c.observe(ctx, "list", kind, "", start, err)
	return entities, err
}

// Update merges payload into the stored entity. A "password" key on a
// User replaces its hash.
func (c *Catalog) Update(ctx context.Context, kind model.Kind, id string, payload map[string]any) (model.Entity, error) {
	defer newrelic.FromContext(ctx).StartSegment("catalog.update").End()
	start := time.Now()

	e, err := c.update(ctx, kind, id, payload)
	c.observe(ctx, "update", kind, id, start, err)
	return e, err
}

func (c *Catalog) update(ctx context.Context, kind model.Kind, id string, payload map[string]any) (model.Entity, error) {
	patch := payload
	if kind == model.KindUser {
		rest, digest, err := c.takePassword(payload, false)
		if err != nil {
			return nil, err
		}
		patch = rest
		if digest != "" {
			patch["password_hash"] = digest
		}
	}

	return c.repo.Update(ctx, kind, id, patch)
}

func (c *Catalog) Delete(ctx context.Context, kind model.Kind, id string) (bool, error) {
	defer newrelic.FromContext(ctx).StartSegment("catalog.delete").End()
	start := time.Now()

	deleted, err := c.repo.Delete(ctx, kind, id)
	c.observe(ctx, "delete", kind, id, start, err)
	return deleted, err
}

// CheckPassword reports whether plaintext matches the user's stored hash.
func (c *Catalog) CheckPassword(ctx context.Context, userID, plaintext string) (bool, error) {
	e, err := c.repo.Get(ctx, model.KindUser, userID)
	if err != nil {
		return false, err
	}
	if e == nil {
		return false, errs.NewNotFoundError(model.KindUser.String(), userID)
	}

	return c.hasher.Verify(plaintext, e.(*model.User).PasswordHash)
}

// takePassword returns a copy of payload without "password" and the hash
// of the removed value. "password_hash" is never accepted from callers.
func (c *Catalog) takePassword(payload map[string]any, required bool) (map[string]any, string, error) {
	if _, ok := payload["password_hash"]; ok {
		return nil, "", errs.NewFieldValidationError("password_hash", "is read-only")
	}

	rest := maps.Clone(payload)
	if rest == nil {
		rest = make(map[string]any)
	}

	raw, present := rest["password"]
	delete(rest, "password")
	if !present {
		if required {
			return nil, "", errs.NewFieldValidationError("password", "is required")
		}
		return rest, "", nil
	}

	plaintext, ok := raw.(string)
	if !ok {
		return nil, "", errs.NewFieldValidationError("password", "must be a string")
	}

	digest, err := c.hasher.Hash(plaintext)
	if err != nil {
		return nil, "", err
	}

	return rest, digest, nil
}

func (c *Catalog) enqueueWelcome(ctx context.Context, user *model.User) {
	if c.tasks == nil {
		return
	}

	task, err := job.NewWelcomeEmailTask(user.ID.String(), user.Email, user.FirstName)
	if err == nil {
		_, err = c.tasks.EnqueueContext(ctx, task)
	}
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("user_id", user.ID.String()).
			Msg("failed to enqueue welcome email")
	}
}

// observe logs the outcome of an operation. Storage failures are also
// reported to New Relic; domain errors are expected results and only
// logged.
func (c *Catalog) observe(ctx context.Context, op string, kind model.Kind, id string, start time.Time, err error) {
	log := *c.logger
	if txn := newrelic.FromContext(ctx); txn != nil {
		log = logger.WithTraceContext(log, txn)
	}

	var event *zerolog.Event
	switch code := errs.CodeOf(err); {
	case err == nil:
		event = log.Debug()
	case code == errs.CodeStorageFailure || code == "":
		event = log.Error().Stack().Err(err)
		c.noticeError(ctx, err)
	default:
		event = log.Info().Str("error_code", string(code))
	}

	event.
		Str("operation", op).
		Str("kind", kind.String()).
		Dur("duration", time.Since(start))
	if id != "" {
		event.Str("id", id)
	}
	event.Msg("catalog " + op)
}

func (c *Catalog) noticeError(ctx context.Context, err error) {
	wrapped := nrpkgerrors.Wrap(err)

	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.NoticeError(wrapped)
		return
	}

	if c.nrApp != nil {
		txn := c.nrApp.StartTransaction("catalog")
		txn.NoticeError(wrapped)
		txn.End()
	}
}

func idOf(e model.Entity) string {
	if e == nil {
		return ""
	}
	return e.Meta().ID.String()
}
