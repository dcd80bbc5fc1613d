package client

import (
	"encoding/base64"

	"minhttp/application/http"
	"minhttp/lib/secret"
)

// Auth computes the Authorization field when a request is encoded.
// Destroy clears the credentials. Encoding fails with [secret.ErrDestroyed] afterwards.
type Auth interface {
	http.Authorizer
	Destroy()
}

const (
	basicPrefix  = "Basic "
	bearerPrefix = "Bearer "
)

type basicAuth struct {
	user, pass *secret.Buffer
}

// BasicAuth authenticates with the Basic scheme.
// Reference: https://datatracker.ietf.org/doc/html/rfc7617#section-2
func BasicAuth(user, pass string) Auth {
	return &basicAuth{user: secret.New(user), pass: secret.New(pass)}
}

func (a *basicAuth) AuthorizationLen() int {
	return len(basicPrefix) + base64.StdEncoding.EncodedLen(a.user.Len()+1+a.pass.Len())
}

func (a *basicAuth) AppendAuthorization(dst []byte) ([]byte, error) {
	if a.user.Destroyed() || a.pass.Destroyed() {
		return dst, secret.ErrDestroyed
	}
	user, pass := a.user.Bytes(), a.pass.Bytes()

	cred := make([]byte, 0, len(user)+1+len(pass))
	cred = append(cred, user...)
	cred = append(cred, ':')
	cred = append(cred, pass...)
	defer secret.Zero(cred)

	dst = append(dst, basicPrefix...)
	return base64.StdEncoding.AppendEncode(dst, cred), nil
}

func (a *basicAuth) Destroy() {
	a.user.Destroy()
	a.pass.Destroy()
}

type bearerAuth struct {
	token *secret.Buffer
}

// BearerAuth authenticates with a bearer token.
// Reference: https://datatracker.ietf.org/doc/html/rfc6750#section-2.1
func BearerAuth(token string) Auth {
	return &bearerAuth{token: secret.New(token)}
}

func (a *bearerAuth) AuthorizationLen() int { return len(bearerPrefix) + a.token.Len() }

func (a *bearerAuth) AppendAuthorization(dst []byte) ([]byte, error) {
	if a.token.Destroyed() {
		return dst, secret.ErrDestroyed
	}

	dst = append(dst, bearerPrefix...)
	return append(dst, a.token.Bytes()...), nil
}

func (a *bearerAuth) Destroy() { a.token.Destroy() }
