package library

// Profile is the user's row in the profiles table.
type Profile struct {
	ID     string `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Email  string `json:"email" db:"email"`
	Avatar string `json:"avatar,omitempty" db:"avatar"`
	Plan   string `json:"plan" db:"plan"`
}
