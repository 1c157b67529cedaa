package auth

import "context"

// The engine treats authentication as an external collaborator: callers are
// expected to have resolved an organization scope and a user identity before
// invoking any operation, and to hand both over on the context.

type ctxKey string

const (
	organizationKey ctxKey = "organization_id"
	userKey         ctxKey = "user_id"
)

func WithOrganization(ctx context.Context, organizationID string) context.Context {
	return context.WithValue(ctx, organizationKey, organizationID)
}

func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// OrganizationID returns the organization scope on the context, or "".
func OrganizationID(ctx context.Context) string {
	if val, ok := ctx.Value(organizationKey).(string); ok {
		return val
	}
	return ""
}

// UserID returns the caller identity on the context, or "".
func UserID(ctx context.Context) string {
	if val, ok := ctx.Value(userKey).(string); ok {
		return val
	}
	return ""
}
