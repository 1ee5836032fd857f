package gateway

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is returned by SignIn when the email/password pair
// does not match a stored user.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrEmailTaken is returned by SignUp when the address is already
// registered.
var ErrEmailTaken = errors.New("email already registered")

// AuthorizationError marks an operation rejected because the actor does
// not own the target. The view layer pre-checks ownership, but the store
// is the authority and rejects regardless.
type AuthorizationError struct {
	Op    string
	Actor string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: not permitted for user %s", e.Op, e.Actor)
}

// NotFoundError marks a document that no longer exists. For an open room
// view this is terminal: the caller navigates away instead of retrying.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: not found", e.Path)
}

// TransferError marks a failed or cancelled blob upload. The upload state
// resets; any text the user typed alongside the file is preserved by the
// caller.
type TransferError struct {
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Path, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// RemoteError wraps any other failure crossing the gateway boundary. It is
// shown as a transient notification, never allowed to crash a view.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }
