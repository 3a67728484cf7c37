package usecase

import (
	"context"
	"errors"
	"testing"

	"chronos-reconciler/internal/domain/entity"
	"chronos-reconciler/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedCredential() *entity.Credential {
	return &entity.Credential{ID: "zoom", AccessToken: "old", RefreshToken: "refresh-old"}
}

func TestCredentialManagerLoad(t *testing.T) {
	mgr := NewCredentialManager(&fakeTokens{}, nil, nil, logger.NewNopLogger())
	_, _, err := mgr.Load(context.Background())
	assert.ErrorIs(t, err, entity.ErrNoCredential)

	mgr = NewCredentialManager(&fakeTokens{cred: &entity.Credential{ID: "zoom"}}, nil, nil, logger.NewNopLogger())
	_, _, err = mgr.Load(context.Background())
	assert.ErrorIs(t, err, entity.ErrNoCredential)

	mgr = NewCredentialManager(&fakeTokens{cred: storedCredential()}, nil, nil, logger.NewNopLogger())
	cred, gen, err := mgr.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "old", cred.AccessToken)

	token, current := mgr.Current()
	assert.Equal(t, "old", token)
	assert.Equal(t, gen, current)
}

func TestCredentialManagerRefreshPersists(t *testing.T) {
	tokens := &fakeTokens{cred: storedCredential()}
	refresher := &fakeRefresher{token: "new"}
	mgr := NewCredentialManager(tokens, refresher, nil, logger.NewNopLogger())

	_, gen, err := mgr.Load(context.Background())
	require.NoError(t, err)

	token, next, err := mgr.Refresh(context.Background(), gen)
	require.NoError(t, err)
	assert.Equal(t, "new", token)
	assert.Greater(t, next, gen)

	require.Len(t, tokens.saved, 1)
	saved := tokens.saved[0]
	assert.Equal(t, "zoom", saved.ID)
	assert.Equal(t, "new", saved.AccessToken)
	assert.Equal(t, "refresh-new", saved.RefreshToken)
	assert.NotNil(t, saved.UpdatedAt)
	assert.NotNil(t, saved.ExpiresAt)
}

func TestCredentialManagerStaleGenerationSkipsExchange(t *testing.T) {
	refresher := &fakeRefresher{token: "new"}
	mgr := NewCredentialManager(&fakeTokens{cred: storedCredential()}, refresher, nil, logger.NewNopLogger())

	_, gen, err := mgr.Load(context.Background())
	require.NoError(t, err)

	_, _, err = mgr.Refresh(context.Background(), gen)
	require.NoError(t, err)

	token, _, err := mgr.Refresh(context.Background(), gen)
	require.NoError(t, err)
	assert.Equal(t, "new", token)
	assert.Equal(t, int32(1), refresher.calls.Load())
}

func TestCredentialManagerFailedRefreshIsNotRetried(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("invalid_grant")}
	mgr := NewCredentialManager(&fakeTokens{cred: storedCredential()}, refresher, nil, logger.NewNopLogger())

	_, gen, err := mgr.Load(context.Background())
	require.NoError(t, err)

	_, _, err = mgr.Refresh(context.Background(), gen)
	require.Error(t, err)
	_, _, err = mgr.Refresh(context.Background(), gen)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
	assert.Equal(t, int32(1), refresher.calls.Load())
}

func TestCredentialManagerPreconditions(t *testing.T) {
	mgr := NewCredentialManager(&fakeTokens{cred: storedCredential()}, nil, nil, logger.NewNopLogger())
	_, gen, err := mgr.Load(context.Background())
	require.NoError(t, err)
	_, _, err = mgr.Refresh(context.Background(), gen)
	assert.ErrorIs(t, err, entity.ErrClientNotConfigured)
	assert.True(t, IsPrecondition(err))

	mgr = NewCredentialManager(&fakeTokens{cred: &entity.Credential{AccessToken: "old"}}, &fakeRefresher{token: "new"}, nil, logger.NewNopLogger())
	_, gen, err = mgr.Load(context.Background())
	require.NoError(t, err)
	_, _, err = mgr.Refresh(context.Background(), gen)
	assert.ErrorIs(t, err, entity.ErrNoRefreshToken)
	assert.True(t, IsPrecondition(err))

	assert.False(t, IsPrecondition(errors.New("boom")))
}

func TestCredentialManagerSaveFailureKeepsNewToken(t *testing.T) {
	tokens := &fakeTokens{cred: storedCredential(), saveErr: errors.New("store down")}
	mgr := NewCredentialManager(tokens, &fakeRefresher{token: "new"}, nil, logger.NewNopLogger())

	_, gen, err := mgr.Load(context.Background())
	require.NoError(t, err)

	token, _, err := mgr.Refresh(context.Background(), gen)
	require.NoError(t, err)
	assert.Equal(t, "new", token)
}
