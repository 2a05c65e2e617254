package account

import (
	"errors"
	"fmt"
)

// Rejection is a user-facing refusal: the request was understood but is not
// allowed or not valid. No state has been mutated when one is returned.
// Any other error from the workflow is an internal failure.
type Rejection struct {
	Message string
}

func (r *Rejection) Error() string { return r.Message }

func reject(format string, args ...interface{}) error {
	return &Rejection{Message: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps err into a Rejection when it is one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

const (
	msgNotAuthenticated    = "Sorry, you must be authenticated upstream to access this page."
	msgPasswordsDiffer     = "Passwords differ. Please go back and try again."
	msgOldPasswordMismatch = "Old password does not match."
	msgInvalidUsername     = "Invalid username. Use letters, digits, dot, underscore or dash."
	msgHomeExists          = "User home directory probably exists, please contact support."
	msgUserCreated         = "User created"
	msgPasswordChanged     = "Password changed"
	msgGroupsChanged       = "User groups changed"
)
