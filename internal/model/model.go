// Package model defines the lodging marketplace entities.
//
// Entities are plain data: constructing or decoding one never touches
// storage. Identity and timestamps are stamped by the repository on write.
package model

import (
	"encoding/json"
	"time"

	"github.com/deppfellow/lodging/internal/validation"
	"github.com/google/uuid"
)

// Base holds the identity and timestamps shared by every entity.
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Meta returns the embedded Base so generic code can stamp it.
func (b *Base) Meta() *Base {
	return b
}

// Entity is implemented by pointers to every entity struct.
type Entity interface {
	Kind() Kind
	Meta() *Base
}

// Validate checks the entity's field constraints.
func Validate(e Entity) error {
	return validation.Struct(e)
}

// Project returns the external projection of e: every field except
// secrets, identifiers as strings and timestamps as RFC 3339.
func Project(e Entity) map[string]any {
	raw, err := json.Marshal(e)
	if err != nil {
		// Entities contain only marshalable field types.
		panic(err)
	}

	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}
