// Package claims reads display-only hints out of a bearer token.
//
// Nothing here verifies a signature. The result must never feed an
// authorization decision; guards look at the identity returned by the
// login response instead.
package claims

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/mcoot/communityportal/internal/model"
)

// Claims holds the fields a token may carry that are useful for display
type Claims struct {
	Subject string
	Email   string
}

// DisplayEmail returns the email claim, falling back to the subject
func (c Claims) DisplayEmail() string {
	if c.Email != "" {
		return c.Email
	}
	return c.Subject
}

var parser = jwt.NewParser()

// Hint decodes the token's payload segment without verification.
// Any malformed token yields ok == false and zero Claims.
func Hint(credential model.Credential) (Claims, bool) {
	if credential == "" {
		return Claims{}, false
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(string(credential), mapClaims); err != nil {
		return Claims{}, false
	}

	var c Claims
	if sub, err := mapClaims.GetSubject(); err == nil {
		c.Subject = sub
	}
	if email, ok := mapClaims["email"].(string); ok {
		c.Email = email
	}
	if c.Subject == "" && c.Email == "" {
		return Claims{}, false
	}
	return c, true
}
