package api

import (
	"context"
	"time"

	"github.com/admarket/chat-api/models"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

type principalKey struct{}

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

// WithPrincipal attaches the authenticated principal to the context
func WithPrincipal(parent context.Context, principal *models.Principal) context.Context {
	return context.WithValue(parent, principalKey{}, principal)
}

// PrincipalFrom returns the authenticated principal, nil if absent
func PrincipalFrom(ctx context.Context) *models.Principal {
	principal, _ := ctx.Value(principalKey{}).(*models.Principal)
	return principal
}
