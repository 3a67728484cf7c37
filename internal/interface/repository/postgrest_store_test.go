package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"chronos-reconciler/internal/domain/entity"
	"chronos-reconciler/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *PostgRESTStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPostgRESTStore(srv.URL, "service-key", 2, 5*time.Second, logger.NewNopLogger())
}

func TestPostgRESTListUsersPage(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/zoom_users", r.URL.Path)
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "id,first_name,last_name,display_name,email", q.Get("select"))
		assert.Equal(t, "1000", q.Get("offset"))
		assert.Equal(t, "1000", q.Get("limit"))

		w.Write([]byte(`[{"id":"u1","first_name":"Maria","last_name":"Lopez","display_name":"","email":"maria@example.com"}]`))
	})

	users, err := store.ListUsersPage(context.Background(), 1000, 1000)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Maria Lopez", users[0].Name())
}

func TestPostgRESTListMeetingsPage(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/zoom_meetings", r.URL.Path)
		assert.Equal(t, "meeting_id.asc", r.URL.Query().Get("order"))
		w.Write([]byte(`[{"meeting_id":"851","topic":"Caterpillar Group 3","host_id":"u1","created_at":"2024-03-01T10:00:00+00:00"}]`))
	})

	meetings, err := store.ListMeetingsPage(context.Background(), 0, 1000)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "851", meetings[0].MeetingID)
	require.NotNil(t, meetings[0].CreatedAt)
}

func TestPostgRESTUpsertHosts(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "meeting_id", r.URL.Query().Get("on_conflict"))
		assert.Contains(t, r.Header.Get("Prefer"), "resolution=merge-duplicates")

		var rows []map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&rows))
		assert.Equal(t, []map[string]string{
			{"meeting_id": "m1", "host_id": "u1"},
			{"meeting_id": "m2", "host_id": "u2"},
		}, rows)
		w.WriteHeader(http.StatusCreated)
	})

	err := store.UpsertHosts(context.Background(), []entity.HostChange{
		{MeetingID: "m1", HostID: "u1"},
		{MeetingID: "m2", HostID: "u2"},
	})
	assert.NoError(t, err)
	assert.NoError(t, store.UpsertHosts(context.Background(), nil))
}

func TestPostgRESTUpdateHost(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.m1", r.URL.Query().Get("meeting_id"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"host_id":"u9"}`, string(body))
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, store.UpdateHost(context.Background(), "m1", "u9"))
}

func TestPostgRESTCredential(t *testing.T) {
	var patched atomic.Bool
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`[{"id":7,"access_token":"a","refresh_token":"r","expires_at":"2024-03-01T10:00:00+00:00","updated_at":null}]`))
		case http.MethodPatch:
			patched.Store(true)
			assert.Equal(t, "eq.7", r.URL.Query().Get("id"))
			body, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(body), `"access_token":"a2"`)
			assert.Contains(t, string(body), `"expires_at"`)
			w.WriteHeader(http.StatusNoContent)
		}
	})

	cred, err := store.GetCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7", cred.ID)
	assert.Equal(t, "a", cred.AccessToken)
	assert.Equal(t, "r", cred.RefreshToken)
	require.NotNil(t, cred.ExpiresAt)
	assert.Nil(t, cred.UpdatedAt)

	expires := time.Now().Add(time.Hour)
	cred.AccessToken = "a2"
	cred.ExpiresAt = &expires
	require.NoError(t, store.SaveCredential(context.Background(), cred))
	assert.True(t, patched.Load())
}

func TestPostgRESTNoCredential(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := store.GetCredential(context.Background())
	assert.ErrorIs(t, err, entity.ErrNoCredential)
}

func TestPostgRESTRetriesThenReportsRemoteError(t *testing.T) {
	var calls atomic.Int32
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"message":"upstream unavailable"}`))
	})

	_, err := store.ListUsersPage(context.Background(), 0, 10)
	require.Error(t, err)

	var remote *entity.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusServiceUnavailable, remote.StatusCode)
	assert.Equal(t, "upstream unavailable", remote.Message)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPostgRESTClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"column does not exist"}`))
	})

	err := store.UpdateHost(context.Background(), "m1", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column does not exist")
	assert.Equal(t, int32(1), calls.Load())
}
