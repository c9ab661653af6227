// Package publish uploads built artifacts to a package index, local or
// remote. It never mutates local state: the output directory is read-only
// input and every failure is surfaced to the caller unretried.
package publish

import (
	"os"
	"strings"

	"github.com/packship/packship/internal/constants"
	"github.com/packship/packship/internal/errors"
	"github.com/packship/packship/internal/index"
)

// Target identifies where artifacts are published: an index URL plus the
// credential pair it accepts.
type Target struct {
	// URL is the base URL of the index.
	URL string

	// Credential authenticates the upload.
	Credential index.Credential
}

// LocalTarget builds the target for a just-started local index.
func LocalTarget(url string, cred index.Credential) Target {
	return Target{URL: url, Credential: cred}
}

// RemoteTarget builds the target for a real registry, sourcing the
// credential pair from the environment. Returns ErrMissingCredentials when
// either half is unset so a misconfigured CI job fails before any upload.
func RemoteTarget(url string) (Target, error) {
	if strings.TrimSpace(url) == "" {
		return Target{}, errors.Wrap(errors.ErrEmptyValue, "publish URL")
	}

	username := os.Getenv(constants.PublishUsernameEnv)
	password := os.Getenv(constants.PublishPasswordEnv)
	if username == "" || password == "" {
		return Target{}, errors.Wrapf(errors.ErrMissingCredentials,
			"set %s and %s", constants.PublishUsernameEnv, constants.PublishPasswordEnv)
	}

	return Target{
		URL:        url,
		Credential: index.Credential{Username: username, Password: password},
	}, nil
}
