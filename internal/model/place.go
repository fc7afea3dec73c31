package model

import "github.com/google/uuid"

// Place is a listing hosted by a User in a City.
//
// Built from a sparse payload, missing numeric fields default to zero and
// missing strings to empty; only host_id and city_id are required.
type Place struct {
	Base
	Name              string    `json:"name" db:"name" validate:"max=255"`
	Description       string    `json:"description" db:"description" validate:"max=1024"`
	Address           string    `json:"address" db:"address" validate:"max=255"`
	Latitude          float64   `json:"latitude" db:"latitude" validate:"gte=-90,lte=90"`
	Longitude         float64   `json:"longitude" db:"longitude" validate:"gte=-180,lte=180"`
	HostID            uuid.UUID `json:"host_id" db:"host_id" validate:"required"`
	CityID            uuid.UUID `json:"city_id" db:"city_id" validate:"required"`
	PricePerNight     int       `json:"price_per_night" db:"price_per_night" validate:"gte=0"`
	NumberOfRooms     int       `json:"number_of_rooms" db:"number_of_rooms" validate:"gte=0"`
	NumberOfBathrooms int       `json:"number_of_bathrooms" db:"number_of_bathrooms" validate:"gte=0"`
	MaxGuests         int       `json:"max_guests" db:"max_guests" validate:"gte=0"`
}

func (*Place) Kind() Kind { return KindPlace }
