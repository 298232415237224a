package services

import (
	"context"

	"customer-option-service/models"
)

// TokenStorage resolves the administrator of the current request.
type TokenStorage interface {
	// CurrentAdmin returns nil when nobody is authenticated.
	CurrentAdmin(ctx context.Context) *models.AdminUser
}

type adminContextKey struct{}

// WithAdmin stores the authenticated admin in ctx.
func WithAdmin(ctx context.Context, admin *models.AdminUser) context.Context {
	return context.WithValue(ctx, adminContextKey{}, admin)
}

// ContextTokenStorage reads the admin placed in the context by WithAdmin.
type ContextTokenStorage struct{}

func (ContextTokenStorage) CurrentAdmin(ctx context.Context) *models.AdminUser {
	admin, _ := ctx.Value(adminContextKey{}).(*models.AdminUser)
	return admin
}
