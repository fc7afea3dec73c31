package model

// Country is read-only after creation: it has no update or delete.
type Country struct {
	Base
	Name string `json:"name" db:"name" validate:"required,max=255"`
	Code string `json:"code" db:"code" validate:"required,min=2,max=3"`
}

func NewCountry(name, code string) *Country {
	return &Country{Name: name, Code: code}
}

func (*Country) Kind() Kind { return KindCountry }
