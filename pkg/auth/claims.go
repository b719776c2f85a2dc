package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims is the JWT payload minted by the identity service and
// consumed here. The cart core only needs the authenticated user id.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"uid"`
	jwt.RegisteredClaims
}

// AccessTokenPayload carries the values encoded into a new token.
type AccessTokenPayload struct {
	UserID uuid.UUID
	JTI    string
}
