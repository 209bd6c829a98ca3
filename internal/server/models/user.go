package models

// User is the Nekos API account behind a bearer token.
type User struct {
	ID          string
	Username    string
	Nickname    string
	AvatarImage string
	IsStaff     bool
}

// DisplayName prefers the nickname.
func (u User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}
