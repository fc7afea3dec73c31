package model

import "github.com/google/uuid"

type Amenity struct {
	Base
	Name string `json:"name" db:"name" validate:"required,max=255"`
}

func NewAmenity(name string) *Amenity {
	return &Amenity{Name: name}
}

func (*Amenity) Kind() Kind { return KindAmenity }

// PlaceAmenity links a Place to an Amenity. The (place_id, amenity_id)
// pair is the natural key; ID is a surrogate.
type PlaceAmenity struct {
	Base
	PlaceID   uuid.UUID `json:"place_id" db:"place_id" validate:"required"`
	AmenityID uuid.UUID `json:"amenity_id" db:"amenity_id" validate:"required"`
}

func NewPlaceAmenity(placeID, amenityID uuid.UUID) *PlaceAmenity {
	return &PlaceAmenity{PlaceID: placeID, AmenityID: amenityID}
}

func (*PlaceAmenity) Kind() Kind { return KindPlaceAmenity }
