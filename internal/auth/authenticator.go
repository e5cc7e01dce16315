package auth

// Authenticator verifies operator credentials presented on a request.
// The HTTP middleware depends on this interface so the credential scheme
// (static bcrypt hash today) can change without touching the handlers.
type Authenticator interface {
	// Authenticate returns nil when the username and secret are accepted,
	// and ErrInvalidCredentials otherwise.
	Authenticate(username, secret string) error

	// Enabled reports whether credentials are required at all.
	Enabled() bool
}
