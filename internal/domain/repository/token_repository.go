package repository

import (
	"context"

	"chronos-reconciler/internal/domain/entity"
)

// TokenRepository stores the single conferencing API credential.
// GetCredential returns entity.ErrNoCredential when no row exists.
type TokenRepository interface {
	GetCredential(ctx context.Context) (*entity.Credential, error)
	SaveCredential(ctx context.Context, cred *entity.Credential) error
}
