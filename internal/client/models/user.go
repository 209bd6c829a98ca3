package models

import "strings"

// Profile field limits enforced by the settings form.
const (
	UsernameMinLen  = 4
	UsernameMaxLen  = 32
	NicknameMaxLen  = 50
	BiographyMaxLen = 500
)

// User is the authenticated user's editable profile.
type User struct {
	ID          string
	Username    string
	Nickname    string
	Biography   string
	Email       string
	AvatarImage string
}

// CensoredEmail keeps the first two characters of the local part and the
// domain: "neko@example.com" becomes "ne*****@example.com".
func (u User) CensoredEmail() string {
	local, domain, ok := strings.Cut(u.Email, "@")
	if !ok {
		return ""
	}
	if len(local) > 2 {
		local = local[:2]
	}
	return local + "*****@" + domain
}
