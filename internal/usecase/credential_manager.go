package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chronos-reconciler/internal/domain/entity"
	"chronos-reconciler/internal/domain/repository"
	"chronos-reconciler/pkg/logger"
	"chronos-reconciler/pkg/metrics"
)

// CredentialRefresher exchanges a refresh token for a new token pair
type CredentialRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*entity.Credential, error)
}

// CredentialManager owns the conferencing credential shared by all workers
// of an update pass. Every refresh bumps the generation; a caller asking to
// refresh a generation that is already stale gets the current token instead,
// so concurrent expiries collapse into a single exchange.
type CredentialManager struct {
	tokens    repository.TokenRepository
	refresher CredentialRefresher
	metrics   *metrics.Metrics
	logger    logger.Logger
	now       func() time.Time

	mu         sync.Mutex
	cred       *entity.Credential
	generation uint64
	failedGen  uint64
	failErr    error
}

// NewCredentialManager creates a credential manager. refresher may be nil when
// the OAuth client is not configured; refreshing then fails with
// entity.ErrClientNotConfigured.
func NewCredentialManager(
	tokens repository.TokenRepository,
	refresher CredentialRefresher,
	m *metrics.Metrics,
	logger logger.Logger,
) *CredentialManager {
	return &CredentialManager{
		tokens:    tokens,
		refresher: refresher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Load reads the stored credential and makes it current
func (m *CredentialManager) Load(ctx context.Context) (*entity.Credential, uint64, error) {
	cred, err := m.tokens.GetCredential(ctx)
	if err != nil {
		return nil, 0, err
	}
	if cred == nil || cred.AccessToken == "" {
		return nil, 0, entity.ErrNoCredential
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cred = cred
	m.generation++
	m.failErr = nil
	current := *cred
	return &current, m.generation, nil
}

// Current returns the access token in use and its generation
func (m *CredentialManager) Current() (string, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cred == nil {
		return "", m.generation
	}
	return m.cred.AccessToken, m.generation
}

// Refresh replaces the credential of generation seen. If another caller
// already refreshed it, the newer token is returned without a new exchange.
// A failed refresh is not retried for the same generation.
func (m *CredentialManager) Refresh(ctx context.Context, seen uint64) (string, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cred == nil {
		return "", m.generation, entity.ErrNoCredential
	}
	if m.generation != seen {
		return m.cred.AccessToken, m.generation, nil
	}
	if m.failErr != nil && m.failedGen == seen {
		return "", m.generation, m.failErr
	}

	cred, err := m.exchange(ctx)
	if err != nil {
		m.failedGen = seen
		m.failErr = err
		m.metrics.TokenRefreshed("error")
		m.logger.Error("Failed to refresh conferencing token", "generation", seen, "error", err)
		return "", m.generation, err
	}

	m.cred = cred
	m.generation++
	m.metrics.TokenRefreshed("success")
	m.logger.Info("Conferencing token refreshed", "generation", m.generation)
	return cred.AccessToken, m.generation, nil
}

// exchange runs with m.mu held
func (m *CredentialManager) exchange(ctx context.Context) (*entity.Credential, error) {
	if m.refresher == nil {
		return nil, entity.ErrClientNotConfigured
	}

	// Another process may have rotated the pair since it was loaded
	stored, err := m.tokens.GetCredential(ctx)
	if err != nil {
		return nil, err
	}
	if stored.RefreshToken == "" {
		return nil, entity.ErrNoRefreshToken
	}

	fresh, err := m.refresher.Refresh(ctx, stored.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange refresh token: %w", err)
	}

	now := m.now()
	fresh.ID = stored.ID
	fresh.UpdatedAt = &now
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = stored.RefreshToken
	}

	if err := m.tokens.SaveCredential(ctx, fresh); err != nil {
		// The new pair is still valid for this pass
		m.logger.Error("Failed to persist refreshed credential", "credentialId", fresh.ID, "error", err)
	}
	return fresh, nil
}

// IsPrecondition reports whether err is a precondition failure that must
// abort the whole operation.
func IsPrecondition(err error) bool {
	return errors.Is(err, entity.ErrNoCredential) ||
		errors.Is(err, entity.ErrNoRefreshToken) ||
		errors.Is(err, entity.ErrClientNotConfigured)
}
