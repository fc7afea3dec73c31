package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/deppfellow/lodging/internal/errs"
	"github.com/deppfellow/lodging/internal/model"
	"github.com/google/uuid"
)

// Match is one column = value condition.
type Match struct {
	Column string
	Value  any
}

// Lookup answers existence queries for the integrity checks. The Postgres
// repository implements it over the write transaction.
type Lookup interface {
	// Exists reports whether a record of kind matches every condition.
	// A non-nil exclude skips the record with that id.
	Exists(ctx context.Context, kind model.Kind, matches []Match, exclude uuid.UUID) (bool, error)
}

// Integrity enforces references, uniqueness and delete restrictions
// across entity kinds.
type Integrity struct {
	lookup Lookup
}

func NewIntegrity(lookup Lookup) *Integrity {
	return &Integrity{lookup: lookup}
}

// CheckCreate verifies every reference and unique group of e.
func (in *Integrity) CheckCreate(ctx context.Context, e model.Entity) error {
	return in.check(ctx, e, nil)
}

// CheckUpdate verifies the references and unique groups that involve a
// changed field. The record itself is excluded from uniqueness checks.
func (in *Integrity) CheckUpdate(ctx context.Context, e model.Entity, changed []string) error {
	if changed == nil {
		changed = []string{}
	}
	return in.check(ctx, e, changed)
}

// CheckDelete fails with a has-dependents error when any record still
// references the kind record with the given id.
func (in *Integrity) CheckDelete(ctx context.Context, kind model.Kind, id uuid.UUID) error {
	for _, dep := range dependentsOf(kind) {
		found, err := in.lookup.Exists(ctx, dep.kind, []Match{{Column: dep.column, Value: id}}, uuid.Nil)
		if err != nil {
			return err
		}
		if found {
			return errs.NewHasDependentsError(kind.String(), id.String(), dep.kind.String(), dep.column)
		}
	}
	return nil
}

// check runs the rules for e. A nil changed set means every rule applies.
func (in *Integrity) check(ctx context.Context, e model.Entity, changed []string) error {
	t, err := tableFor(e.Kind())
	if err != nil {
		return err
	}

	touched := func(columns ...string) bool {
		if changed == nil {
			return true
		}
		for _, c := range columns {
			if slices.Contains(changed, c) {
				return true
			}
		}
		return false
	}

	for _, ref := range t.references {
		if !touched(ref.column) {
			continue
		}

		value, _ := t.value(e, ref.column)
		found, err := in.lookup.Exists(ctx, ref.target, []Match{{Column: ref.targetColumn, Value: value}}, uuid.Nil)
		if err != nil {
			return err
		}
		if !found {
			return errs.NewReferenceNotFoundError(t.kind.String(), ref.column, displayValue(value), ref.target.String())
		}
	}

	for _, group := range t.unique {
		if !touched(group...) {
			continue
		}

		matches := make([]Match, len(group))
		shown := make([]string, len(group))
		for i, column := range group {
			value, _ := t.value(e, column)
			matches[i] = Match{Column: column, Value: value}
			shown[i] = fmt.Sprint(displayValue(value))
		}

		found, err := in.lookup.Exists(ctx, t.kind, matches, e.Meta().ID)
		if err != nil {
			return err
		}
		if found {
			var value any = strings.Join(shown, ", ")
			if len(group) == 1 {
				value = displayValue(matches[0].Value)
			}
			return errs.NewUniquenessViolationError(t.kind.String(), strings.Join(group, ", "), value)
		}
	}

	return nil
}
