// Package auth decodes the credentials carried on incoming requests.
package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

const (
	basicPrefix  = "Basic "
	bearerPrefix = "Bearer "
)

// Credentials holds the decoded username and password of a Basic
// Authorization header. For update requests the username names the provider
// and the password is that provider's API token.
type Credentials struct {
	Username string
	Password string
}

// ParseBasic decodes an Authorization header using the Basic scheme.
// The scheme token is matched case-sensitively. The password is everything
// after the first colon, so it may itself contain colons. ok is false for
// an absent header and for a malformed one alike.
func ParseBasic(header string) (creds Credentials, ok bool) {
	encoded, found := strings.CutPrefix(header, basicPrefix)
	if !found {
		return Credentials{}, false
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Some clients drop the padding.
		decoded, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return Credentials{}, false
		}
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return Credentials{}, false
	}

	return Credentials{Username: username, Password: password}, true
}

// EncodeBasic builds a Basic Authorization header value.
func EncodeBasic(username, password string) string {
	return basicPrefix + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// ParseBearer extracts the token from a Bearer Authorization header.
func ParseBearer(header string) (string, bool) {
	token, found := strings.CutPrefix(header, bearerPrefix)
	if !found || token == "" {
		return "", false
	}
	return token, true
}

// TokenEqual compares two secrets in constant time.
func TokenEqual(given, want string) bool {
	return subtle.ConstantTimeCompare([]byte(given), []byte(want)) == 1
}
