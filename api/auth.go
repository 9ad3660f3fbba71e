/*
auth.go - JWT authentication and role-based route guards

PURPOSE:
  Issues and verifies bearer tokens, and exposes middleware that resolves
  the token into a plan.Actor placed on the request context. Handlers
  read the actor; they never touch the token themselves.

TOKEN SHAPE:
  HS256, claims: sub (user id), role, team (optional team id), exp, iat.
  Expiry defaults to 24h.

GUARDS:
  RequireAuth:  any valid token
  RequireRole:  valid token with one of the listed roles

SEE ALSO:
  - plan/authz.go: Team-scope decisions for proxy operations
  - server.go:     Where the guards attach to route groups
*/
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/warp/mealplan-engine/plan"
)

type actorKeyType struct{}

var actorKey actorKeyType

// ActorFrom returns the authenticated actor stored by RequireAuth.
func ActorFrom(ctx context.Context) (plan.Actor, bool) {
	a, ok := ctx.Value(actorKey).(plan.Actor)
	return a, ok
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer struct {
	Secret []byte

	// TTL is the token lifetime (default 24h).
	TTL time.Duration
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{Secret: []byte(secret), TTL: 24 * time.Hour}
}

// Issue signs a token for the user.
func (t *TokenIssuer) Issue(u *plan.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  int64(u.ID),
		"role": string(u.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(t.ttl()).Unix(),
	}
	if u.TeamID != nil {
		claims["team"] = int64(*u.TeamID)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
}

func (t *TokenIssuer) ttl() time.Duration {
	if t.TTL > 0 {
		return t.TTL
	}
	return 24 * time.Hour
}

// Verify parses a token string back into an actor.
func (t *TokenIssuer) Verify(tokenStr string) (plan.Actor, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.Secret, nil
	})
	if err != nil {
		return plan.Actor{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return plan.Actor{}, jwt.ErrTokenInvalidClaims
	}

	actor := plan.Actor{}
	if sub, ok := claims["sub"].(float64); ok {
		actor.UserID = plan.UserID(int64(sub))
	}
	if role, ok := claims["role"].(string); ok {
		actor.Role = plan.Role(role)
	}
	if team, ok := claims["team"].(float64); ok {
		id := plan.TeamID(int64(team))
		actor.TeamID = &id
	}
	return actor, nil
}

// RequireAuth rejects requests without a valid bearer token and stores
// the resolved actor on the context.
func (t *TokenIssuer) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}
		actor, err := t.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token", err)
			return
		}
		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole allows only actors with one of the listed roles. Must run
// after RequireAuth.
func RequireRole(roles ...plan.Role) func(http.Handler) http.Handler {
	allowed := make(map[plan.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
				return
			}
			if !allowed[actor.Role] {
				writeError(w, http.StatusForbidden, "Insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
