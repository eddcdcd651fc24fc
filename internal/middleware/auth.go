package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/forgo/lending/api/internal/model"
	"github.com/forgo/lending/api/pkg/jwt"
)

// TokenValidator defines the interface for token validation
type TokenValidator interface {
	Validate(token string) (*jwt.Claims, error)
}

// ClaimsKey is the context key for JWT claims
const ClaimsKey contextKey = "claims"

// actorRef lets Logger observe the actor resolved by Auth, which runs inside it
type actorRef struct {
	actor model.Actor
	set   bool
}

func withActorRef(r *http.Request) (*http.Request, *actorRef) {
	if ref, ok := r.Context().Value(actorRefKey).(*actorRef); ok {
		return r, ref
	}
	ref := &actorRef{}
	return r.WithContext(context.WithValue(r.Context(), actorRefKey, ref)), ref
}

// Auth returns a middleware that validates bearer tokens and stores the
// resulting actor in the request context
func Auth(validator TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				if r.Header.Get("Authorization") == "" {
					model.NewUnauthorizedError("missing authorization header").WriteJSON(w)
				} else {
					model.NewUnauthorizedError("invalid authorization header format").WriteJSON(w)
				}
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					model.NewUnauthorizedError("token expired").WriteJSON(w)
				case errors.Is(err, jwt.ErrInvalidSignature):
					model.NewUnauthorizedError("invalid token signature").WriteJSON(w)
				default:
					model.NewUnauthorizedError("invalid token").WriteJSON(w)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), claims)))
		})
	}
}

// RequireAccountant rejects requests whose actor is not an accountant.
// It must run after Auth.
func RequireAccountant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		if !ok {
			model.NewUnauthorizedError("authentication required").WriteJSON(w)
			return
		}
		if actor.Role != model.RoleAccountant {
			model.NewForbiddenError("accountant role required").WriteJSON(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithActor stores the actor described by claims in ctx
func WithActor(ctx context.Context, claims *jwt.Claims) context.Context {
	actor := model.Actor{ID: claims.UserID, Role: model.Role(claims.Role)}
	if ref, ok := ctx.Value(actorRefKey).(*actorRef); ok {
		ref.actor = actor
		ref.set = true
	}
	ctx = context.WithValue(ctx, ActorKey, actor)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetActor extracts the authenticated actor from context
func GetActor(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(model.Actor)
	return actor, ok
}

// GetActorID returns the authenticated actor's ID, or "" when anonymous
func GetActorID(ctx context.Context) string {
	actor, _ := GetActor(ctx)
	return actor.ID
}

// GetClaims extracts the JWT claims from context
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
