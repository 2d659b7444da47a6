package domain

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Session holds the CMS credential. Token and User are set and cleared together.
type Session struct {
	Token string `json:"jwt,omitempty"`
	User  *User  `json:"user,omitempty"`
}

func (s Session) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// Consistent reports whether the token/user pair is either fully set or fully empty.
func (s Session) Consistent() bool {
	return (s.Token == "") == (s.User == nil)
}
