package auth

import (
	"errors"
	"fmt"
)

// Cause is the enumerated reason an auth operation failed. The set is
// deliberately small: anything a client should react to gets a cause, and
// everything else falls through to the generic message.
type Cause string

const (
	CauseInvalidCredentials Cause = "invalid-credentials"
	CauseEmailInUse         Cause = "email-already-in-use"
	CauseInvalidEmail       Cause = "invalid-email"
	CauseWeakPassword       Cause = "weak-password"
	CauseUserNotFound       Cause = "user-not-found"
	CauseInvalidToken       Cause = "invalid-token"
)

// AuthError is a failed login/register/reset with a machine-readable cause.
type AuthError struct {
	Cause Cause
	Err   error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Cause)
}

func (e *AuthError) Unwrap() error { return e.Err }

func newAuthError(cause Cause) *AuthError {
	return &AuthError{Cause: cause}
}

// userMessages maps known causes to the fixed user-facing strings shown by
// the login and registration forms.
var userMessages = map[Cause]string{
	CauseInvalidCredentials: "Incorrect email or password.",
	CauseEmailInUse:         "This email is already registered.",
	CauseInvalidEmail:       "That email address is not valid.",
	CauseWeakPassword:       "The password is too weak (minimum 6 characters).",
	CauseUserNotFound:       "No account exists for that email.",
	CauseInvalidToken:       "Your session has expired. Please sign in again.",
}

const genericUserMessage = "Something went wrong. Please try again."

// UserMessage translates any error into the message shown to the user.
// Unrecognized failures get the generic fallback rather than leaking
// internals into the UI.
func UserMessage(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		if msg, ok := userMessages[authErr.Cause]; ok {
			return msg
		}
	}
	return genericUserMessage
}
