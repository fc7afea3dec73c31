package model

import (
	"fmt"
	"strings"

	"github.com/deppfellow/lodging/internal/errs"
)

// Kind is the closed set of entity types.
type Kind uint8

const (
	KindCountry Kind = iota + 1
	KindCity
	KindUser
	KindPlace
	KindAmenity
	KindPlaceAmenity
	KindReview
)

var kindNames = [...]string{
	KindCountry:      "Country",
	KindCity:         "City",
	KindUser:         "User",
	KindPlace:        "Place",
	KindAmenity:      "Amenity",
	KindPlaceAmenity: "PlaceAmenity",
	KindReview:       "Review",
}

// Kinds returns every entity kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindCountry, KindCity, KindUser, KindPlace, KindAmenity, KindPlaceAmenity, KindReview}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= KindCountry && k <= KindReview
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// ParseKind resolves a kind name. Matching ignores case and underscores,
// so "PlaceAmenity", "place_amenity" and "placeamenity" are equivalent.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	for _, k := range Kinds() {
		if strings.ToLower(kindNames[k]) == norm {
			return k, nil
		}
	}
	return 0, errs.NewFieldValidationError("kind", fmt.Sprintf("unknown entity kind %q", s))
}

// New returns a zero entity of kind k.
func New(k Kind) (Entity, error) {
	switch k {
	case KindCountry:
		return &Country{}, nil
	case KindCity:
		return &City{}, nil
	case KindUser:
		return &User{}, nil
	case KindPlace:
		return &Place{}, nil
	case KindAmenity:
		return &Amenity{}, nil
	case KindPlaceAmenity:
		return &PlaceAmenity{}, nil
	case KindReview:
		return &Review{}, nil
	default:
		return nil, errs.NewFieldValidationError("kind", fmt.Sprintf("unknown entity kind %s", k))
	}
}
