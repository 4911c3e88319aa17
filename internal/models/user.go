package models

// User is the directory projection consumed by the chat subsystem.
type User struct {
	ID      string `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Surname string `db:"surname" json:"surname"`
	Email   string `db:"email" json:"email"`
	Role    string `db:"role" json:"role"`
	Active  bool   `db:"active" json:"active"`
}

// UserSummary is the display form used when expanding user references.
type UserSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

// Summary drops the fields that are not shown to clients.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Surname: u.Surname, Email: u.Email, Role: u.Role}
}
