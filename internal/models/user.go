package models

import "time"

// Gender values accepted by the registration dialogue and the users table.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// User is a bot user row. Profile fields are nullable because a row is
// created on first contact and filled in step by step during registration.
type User struct {
	TelegramID   int64      `db:"tg_id" json:"tg_id"`
	Name         *string    `db:"name" json:"name,omitempty"`
	Gender       *string    `db:"gender" json:"gender,omitempty"`
	Age          *int       `db:"age" json:"age,omitempty"`
	Username     *string    `db:"username" json:"username,omitempty"`
	RegisteredAt *time.Time `db:"registered_at" json:"registered_at,omitempty"`
	CreatedAt    *time.Time `db:"created_at" json:"-"`
	UpdatedAt    *time.Time `db:"updated_at" json:"-"`
}

// Registered reports whether the profile is complete. Registration is
// derived from the stored fields, never tracked as a separate flag.
func (u *User) Registered() bool {
	if u == nil {
		return false
	}
	return u.Name != nil && *u.Name != "" &&
		u.Gender != nil && *u.Gender != "" &&
		u.Age != nil && *u.Age > 0
}

// ValidGender reports whether the value is one of the accepted genders.
func ValidGender(v string) bool {
	return v == GenderMale || v == GenderFemale
}

// UserStats aggregates registration counters for the admin panel and the API.
type UserStats struct {
	Total           int `db:"total" json:"total_users"`
	Male            int `db:"male" json:"male"`
	Female          int `db:"female" json:"female"`
	RegisteredToday int `db:"registered_today" json:"registered_today"`
}
