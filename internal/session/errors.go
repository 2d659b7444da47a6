package session

const (
	DefaultAuthMessage = "Wrong email/username or password."
	NetworkMessage     = "Network error"
)

// AuthenticationError carries a message meant to be shown to the user as is.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}
