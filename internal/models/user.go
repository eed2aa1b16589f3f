package models

// User is the public profile attached to messages as the author. Rows are
// owned by the main application; this service only reads them.
type User struct {
	ID        int    `db:"id" json:"id"`
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"firstName"`
	LastName  string `db:"last_name" json:"lastName"`
	Username  string `db:"username" json:"username"`
}
