package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dukerupert/greencart/internal/domain"
)

// Claims is the bearer token payload. Subject holds the user id.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate resolves the bearer token into a domain.Actor on the request
// context. Requests without a valid token are rejected with 401.
func Authenticate(secret []byte) echo.MiddlewareFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (interface{}, error) { return secret, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return respondUnauthorized(c, "Authentication required")
			}

			var claims Claims
			if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
				return respondUnauthorized(c, "Invalid or expired token")
			}

			actor, err := claims.Actor()
			if err != nil {
				return respondUnauthorized(c, "Invalid token")
			}

			ctx := domain.NewContextWithActor(c.Request().Context(), actor)
			c.SetRequest(c.Request().WithContext(ctx))
			withUser(c, actor)
			return next(c)
		}
	}
}

// RequireRole rejects authenticated actors whose role is not listed.
func RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := domain.ActorFromContext(c.Request().Context())
			if !ok {
				return respondUnauthorized(c, "Authentication required")
			}
			for _, role := range roles {
				if actor.Role == role {
					return next(c)
				}
			}
			return respondForbidden(c)
		}
	}
}

// Actor converts validated claims into an actor.
func (c Claims) Actor() (domain.Actor, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil || id == uuid.Nil {
		return domain.Actor{}, errors.New("token subject is not a user id")
	}
	if !c.Role.Valid() {
		return domain.Actor{}, errors.New("token role is not recognized")
	}
	return domain.Actor{ID: id, Role: c.Role}, nil
}

// SignToken issues an HS256 token for actor valid for ttl.
func SignToken(secret []byte, actor domain.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
