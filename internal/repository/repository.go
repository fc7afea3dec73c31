// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update entities, abstracting SQL logic away from the service layer.
// Referential integrity is checked here, inside the same transaction as
// the write it guards.
package repository

import (
	"context"

	"github.com/deppfellow/lodging/internal/model"
	"github.com/deppfellow/lodging/internal/server"
	"github.com/google/uuid"
)

// Repository is the storage contract for every entity kind.
//
// Absent records are reported without errors on reads and deletes: Get
// returns (nil, nil) and Delete returns (false, nil), including for ids
// that are not valid UUIDs. Update reports an absent record as a
// not-found error.
type Repository interface {
	GetAll(ctx context.Context, kind model.Kind) ([]model.Entity, error)
	Get(ctx context.Context, kind model.Kind, id string) (model.Entity, error)

	// Save stamps the id (when unset) and both timestamps, then persists
	// the entity after checking its references and unique fields.
	Save(ctx context.Context, e model.Entity) (model.Entity, error)

	// Update merges patch into the stored record, re-checks the references
	// and unique fields it touches and advances updated_at.
	Update(ctx context.Context, kind model.Kind, id string, patch map[string]any) (model.Entity, error)

	Delete(ctx context.Context, kind model.Kind, id string) (bool, error)

	// Reload re-reads state from the backing store. Stores with no
	// in-process state implement it as a no-op.
	Reload(ctx context.Context) error

	CountryByCode(ctx context.Context, code string) (*model.Country, error)
	FindPlaceAmenity(ctx context.Context, placeID, amenityID uuid.UUID) (*model.PlaceAmenity, error)
	DeletePlaceAmenity(ctx context.Context, placeID, amenityID uuid.UUID) (bool, error)
}

// Repositories is a container for all repository instances. Callers
// depend on the Repository contract, not on the backend behind it.
type Repositories struct {
	Store Repository
}

// NewRepositories constructs the repository container over the server's
// connection pool.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Store: NewPostgres(s.DB.Pool),
	}
}
