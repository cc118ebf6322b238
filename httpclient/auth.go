package httpclient

import (
	"encoding/base64"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/httputils/validation"
)

// Authorization schemes written by the auth shortcuts.
const (
	SchemeBasic  = "Basic"
	SchemeBearer = "Bearer"
)

// Auth adds a raw Authorization header.
func (r *Request) Auth(value string) *Request {
	return r.Header(HeaderAuthorization, value)
}

// AuthBearer adds a "Bearer" Authorization header.
func (r *Request) AuthBearer(token string) *Request {
	return r.Auth(SchemeBearer + " " + token)
}

// AuthBasic adds a "Basic" Authorization header for user:password.
// Either part may be empty; a user containing a colon records an
// ErrCodeInvalidArgument error on the request.
func (r *Request) AuthBasic(user, password string) *Request {
	if err := checkBasicUser(user); err != nil {
		return r.fail(NewInvalidArgumentError("basic auth", err))
	}
	return r.Auth(SchemeBasic + " " + encodeBasic(user, password))
}

// AuthJWT signs claims with key and adds the token as a bearer credential.
// A signing failure records an ErrCodeInvalidArgument error on the request.
func (r *Request) AuthJWT(method jwt.SigningMethod, claims jwt.Claims, key any) *Request {
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		return r.fail(NewInvalidArgumentError("sign jwt", err))
	}
	return r.AuthBearer(token)
}

func checkBasicUser(user string) error {
	return validation.New().
		Excludes("user", user, ":").
		Err()
}

func encodeBasic(user, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
}
