package repository

import (
	"context"
	"errors"
	"time"

	"github.com/deppfellow/lodging/internal/errs"
	"github.com/deppfellow/lodging/internal/model"
	"github.com/deppfellow/lodging/internal/sqlerr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx shared by pools, connections and
// transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a Querier that can open transactions. *pgxpool.Pool satisfies it.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Postgres is the PostgreSQL-backed Repository.
//
// Every write runs in one transaction that covers its integrity checks;
// the transaction is committed on success and rolled back on every error.
type Postgres struct {
	db  DB
	now func() time.Time
}

var _ Repository = (*Postgres)(nil)

func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// clock returns the current time in UTC at the precision Postgres stores.
func (p *Postgres) clock() time.Time {
	return p.now().UTC().Truncate(time.Microsecond)
}

// nextUpdate returns a timestamp strictly after prev.
func (p *Postgres) nextUpdate(prev time.Time) time.Time {
	ts := p.clock()
	if !ts.After(prev) {
		ts = prev.Add(time.Microsecond)
	}
	return ts
}

func (p *Postgres) GetAll(ctx context.Context, kind model.Kind) ([]model.Entity, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.Query(ctx, t.selectAllSQL())
	if err != nil {
		return nil, mapError(t, err)
	}

	entities, err := pgx.CollectRows(rows, t.scan)
	if err != nil {
		return nil, mapError(t, err)
	}

	return entities, nil
}

func (p *Postgres) Get(ctx context.Context, kind model.Kind, id string) (model.Entity, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	e, err := fetch(ctx, p.db, t, uid, false)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(t, err)
	}

	return e, nil
}

func (p *Postgres) Save(ctx context.Context, e model.Entity) (model.Entity, error) {
	t, err := tableFor(e.Kind())
	if err != nil {
		return nil, err
	}

	if err := model.Validate(e); err != nil {
		return nil, err
	}

	meta := e.Meta()
	original := *meta
	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}
	ts := p.clock()
	meta.CreatedAt, meta.UpdatedAt = ts, ts

	err = pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		if err := NewIntegrity(txLookup{q: tx}).CheckCreate(ctx, e); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, t.insertSQL(), t.insertArgs(e)...)
		return err
	})
	if err != nil {
		*meta = original
		return nil, mapError(t, err)
	}

	return e, nil
}

func (p *Postgres) Update(ctx context.Context, kind model.Kind, id string, patch map[string]any) (model.Entity, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	if t.immutable {
		return nil, errs.NewImmutableError(kind.String(), "update")
	}

	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, errs.NewNotFoundError(kind.String(), id)
	}

	var updated model.Entity
	err = pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		e, err := fetch(ctx, tx, t, uid, true)
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.NewNotFoundError(kind.String(), id)
		}
		if err != nil {
			return err
		}

		changed, err := model.ApplyPatch(e, patch)
		if err != nil {
			return err
		}

		if err := model.Validate(e); err != nil {
			return err
		}

		if err := NewIntegrity(txLookup{q: tx}).CheckUpdate(ctx, e, changed); err != nil {
			return err
		}

		meta := e.Meta()
		meta.UpdatedAt = p.nextUpdate(meta.UpdatedAt)

		if _, err := tx.Exec(ctx, t.updateSQL(), t.updateArgs(e)...); err != nil {
			return err
		}

		updated = e
		return nil
	})
	if err != nil {
		return nil, mapError(t, err)
	}

	return updated, nil
}

func (p *Postgres) Delete(ctx context.Context, kind model.Kind, id string) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}

	if t.immutable {
		return false, errs.NewImmutableError(kind.String(), "delete")
	}

	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}

	deleted := false
	err = pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		// The row lock also blocks new references until commit.
		if _, err := fetch(ctx, tx, t, uid, true); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}

		if err := NewIntegrity(txLookup{q: tx}).CheckDelete(ctx, kind, uid); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, t.deleteSQL(), uid)
		if err != nil {
			return err
		}

		deleted = tag.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return false, mapError(t, err)
	}

	return deleted, nil
}

// Reload is a no-op: nothing is cached between calls.
func (p *Postgres) Reload(context.Context) error {
	return nil
}

func (p *Postgres) CountryByCode(ctx context.Context, code string) (*model.Country, error) {
	t := tables[model.KindCountry]

	rows, err := p.db.Query(ctx, "SELECT "+t.selectList()+" FROM countries WHERE code = $1", code)
	if err != nil {
		return nil, mapError(t, err)
	}

	e, err := pgx.CollectOneRow(rows, t.scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(t, err)
	}

	return e.(*model.Country), nil
}

func (p *Postgres) FindPlaceAmenity(ctx context.Context, placeID, amenityID uuid.UUID) (*model.PlaceAmenity, error) {
	t := tables[model.KindPlaceAmenity]

	rows, err := p.db.Query(ctx,
		"SELECT "+t.selectList()+" FROM place_amenities WHERE place_id = $1 AND amenity_id = $2",
		placeID, amenityID)
	if err != nil {
		return nil, mapError(t, err)
	}

	e, err := pgx.CollectOneRow(rows, t.scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(t, err)
	}

	return e.(*model.PlaceAmenity), nil
}

// DeletePlaceAmenity removes the link by its natural key.
func (p *Postgres) DeletePlaceAmenity(ctx context.Context, placeID, amenityID uuid.UUID) (bool, error) {
	t := tables[model.KindPlaceAmenity]

	tag, err := p.db.Exec(ctx,
		"DELETE FROM place_amenities WHERE place_id = $1 AND amenity_id = $2",
		placeID, amenityID)
	if err != nil {
		return false, mapError(t, err)
	}

	return tag.RowsAffected() > 0, nil
}

func fetch(ctx context.Context, q Querier, t *table, id uuid.UUID, forUpdate bool) (model.Entity, error) {
	rows, err := q.Query(ctx, t.selectByIDSQL(forUpdate), id)
	if err != nil {
		return nil, err
	}
	return pgx.CollectOneRow(rows, t.scan)
}

// txLookup answers integrity queries inside a transaction.
type txLookup struct {
	q Querier
}

func (l txLookup) Exists(ctx context.Context, kind model.Kind, matches []Match, exclude uuid.UUID) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}

	columns := make([]string, len(matches))
	args := make([]any, 0, len(matches)+1)
	for i, m := range matches {
		columns[i] = m.Column
		args = append(args, m.Value)
	}
	if exclude != uuid.Nil {
		args = append(args, exclude)
	}

	var found bool
	if err := l.q.QueryRow(ctx, t.existsSQL(columns, exclude != uuid.Nil), args...).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

// mapError converts driver errors into typed errors tagged with t's kind.
// Errors that are already typed pass through unchanged.
func mapError(t *table, err error) error {
	var appErr *errs.Error
	if errors.As(err, &appErr) {
		return err
	}

	mapped := sqlerr.HandleError(err)
	if errors.As(mapped, &appErr) && appErr.Code != errs.CodeStorageFailure {
		return appErr.WithKind(t.kind.String())
	}
	return mapped
}
