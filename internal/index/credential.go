// Package index provides the local package index: an HTTP server that lists,
// serves and accepts uploads of build artifacts for pre-release verification.
package index

import (
	"crypto/subtle"

	"github.com/google/uuid"

	"github.com/packship/packship/internal/constants"
)

// Credential is the static username/password pair protecting the index.
// It is process-wide configuration with no rotation and no persistence
// beyond the process lifetime. The same pair grants upload rights.
type Credential struct {
	Username string
	Password string
}

// NewEphemeralCredential returns a credential with the default username and
// a random per-run password. A fresh pair per run means a leaked local
// credential can never be replayed against a later run or a real endpoint.
func NewEphemeralCredential() Credential {
	return Credential{
		Username: constants.DefaultIndexUsername,
		Password: uuid.NewString(),
	}
}

// Matches reports whether the supplied pair equals the credential.
// Comparison is constant-time.
func (c Credential) Matches(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(c.Username), []byte(username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(c.Password), []byte(password)) == 1
	return userOK && passOK
}

// IsZero reports whether the credential is unset.
func (c Credential) IsZero() bool {
	return c.Username == "" && c.Password == ""
}
