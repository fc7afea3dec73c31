package model

// City belongs to a Country through the country's code.
type City struct {
	Base
	Name        string `json:"name" db:"name" validate:"required,max=255"`
	CountryCode string `json:"country_code" db:"country_code" validate:"required,max=3"`
}

func NewCity(name, countryCode string) *City {
	return &City{Name: name, CountryCode: countryCode}
}

func (*City) Kind() Kind { return KindCity }
