package model

// User is a marketplace account. PasswordHash is never projected.
type User struct {
	Base
	Email        string `json:"email" db:"email" validate:"required,email,max=120"`
	FirstName    string `json:"first_name" db:"first_name" validate:"required,max=120"`
	LastName     string `json:"last_name" db:"last_name" validate:"required,max=120"`
	PasswordHash string `json:"-" db:"password_hash" validate:"required"`
	IsAdmin      bool   `json:"is_admin" db:"is_admin"`
}

// NewUser builds a User from an already hashed password.
func NewUser(email, firstName, lastName, passwordHash string) *User {
	return &User{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
	}
}

func (*User) Kind() Kind { return KindUser }
