package ports

import "context"

// Credentials holds the gateway API user used for HTTP Basic authentication.
type Credentials struct {
	Username string
	Password string
}

// String never prints the credential values.
func (c Credentials) String() string {
	return "Credentials{Username: " + redacted(c.Username) + ", Password: " + redacted(c.Password) + "}"
}

// GoString keeps %#v from leaking values as well.
func (c Credentials) GoString() string {
	return c.String()
}

// Complete reports whether both username and password are set.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

func redacted(v string) string {
	if v == "" {
		return "<empty>"
	}
	return "[REDACTED]"
}

// CredentialsProvider supplies the API credentials at call time.
// Implementations are read-only from the client's perspective and must be safe for concurrent use.
type CredentialsProvider interface {
	Credentials(ctx context.Context) (Credentials, error)
}
