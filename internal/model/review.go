package model

import "github.com/google/uuid"

type Review struct {
	Base
	PlaceID uuid.UUID `json:"place_id" db:"place_id" validate:"required"`
	UserID  uuid.UUID `json:"user_id" db:"user_id" validate:"required"`
	Comment string    `json:"comment" db:"comment" validate:"required,max=1024"`
	Rating  float64   `json:"rating" db:"rating" validate:"gte=0,lte=5"`
}

func NewReview(placeID, userID uuid.UUID, comment string, rating float64) *Review {
	return &Review{PlaceID: placeID, UserID: userID, Comment: comment, Rating: rating}
}

func (*Review) Kind() Kind { return KindReview }
