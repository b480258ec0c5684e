// Package model defines the data structures used throughout the application.
package model

// User is a row of the users table.
//
// Firstname, Lastname and Age are optional columns; a nil pointer is stored
// as NULL and encoded as JSON null.
type User struct {
	ID        int64   `json:"id"        db:"id"`
	Username  string  `json:"username"  db:"username"`
	Firstname *string `json:"firstname" db:"firstname"`
	Lastname  *string `json:"lastname"  db:"lastname"`
	Age       *int    `json:"age"       db:"age"`
	Slug      string  `json:"slug"      db:"slug"` // derived from Username
}

// UserPatch is a sparse update. Only non-nil fields are written.
// Slug is filled in by the service whenever Username is set.
type UserPatch struct {
	Username  *string
	Firstname *string
	Lastname  *string
	Age       *int
	Slug      *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Firstname == nil && p.Lastname == nil &&
		p.Age == nil && p.Slug == nil
}
