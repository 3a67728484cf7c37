package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"chronos-reconciler/internal/domain/entity"
	"chronos-reconciler/pkg/logger"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

const (
	usersTable    = "zoom_users"
	meetingsTable = "zoom_meetings"
	tokensTable   = "zoom_tokens"

	userColumns    = "id,first_name,last_name,display_name,email"
	meetingColumns = "meeting_id,topic,host_id,join_url,created_at"
	tokenColumns   = "id,access_token,refresh_token,expires_at,updated_at"
)

// PostgRESTStore reads and writes the mirrored Zoom tables through the
// Supabase REST endpoint. Every call it makes is idempotent, so transient
// failures are retried.
type PostgRESTStore struct {
	baseURL string
	apiKey  string
	client  *retryablehttp.Client
	logger  logger.Logger
}

// NewPostgRESTStore creates a store for the project at supabaseURL
func NewPostgRESTStore(supabaseURL, apiKey string, retryMax int, timeout time.Duration, logger logger.Logger) *PostgRESTStore {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = logger
	// Keep the last response so its status and body can be reported
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &PostgRESTStore{
		baseURL: supabaseURL + "/rest/v1/",
		apiKey:  apiKey,
		client:  client,
		logger:  logger,
	}
}

// ListUsersPage reads one page of users ordered by id
func (s *PostgRESTStore) ListUsersPage(ctx context.Context, offset, limit int) ([]entity.ZoomUser, error) {
	var users []entity.ZoomUser
	if err := s.listPage(ctx, usersTable, userColumns, "id.asc", offset, limit, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListMeetingsPage reads one page of meetings ordered by meeting id
func (s *PostgRESTStore) ListMeetingsPage(ctx context.Context, offset, limit int) ([]entity.ZoomMeeting, error) {
	var meetings []entity.ZoomMeeting
	if err := s.listPage(ctx, meetingsTable, meetingColumns, "meeting_id.asc", offset, limit, &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

func (s *PostgRESTStore) listPage(ctx context.Context, table, columns, order string, offset, limit int, out interface{}) error {
	query := url.Values{}
	query.Set("select", columns)
	query.Set("order", order)
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))

	body, err := s.do(ctx, http.MethodGet, table, query, nil, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s page: %w", table, err)
	}
	return nil
}

// UpdateHost sets the host of a single meeting
func (s *PostgRESTStore) UpdateHost(ctx context.Context, meetingID, hostID string) error {
	query := url.Values{}
	query.Set("meeting_id", "eq."+meetingID)

	_, err := s.do(ctx, http.MethodPatch, meetingsTable, query,
		map[string]string{"host_id": hostID},
		map[string]string{"Prefer": "return=minimal"})
	return err
}

// UpsertHosts writes a batch of host changes keyed by meeting id
func (s *PostgRESTStore) UpsertHosts(ctx context.Context, changes []entity.HostChange) error {
	if len(changes) == 0 {
		return nil
	}

	query := url.Values{}
	query.Set("on_conflict", "meeting_id")

	_, err := s.do(ctx, http.MethodPost, meetingsTable, query, changes,
		map[string]string{"Prefer": "resolution=merge-duplicates,return=minimal"})
	return err
}

// GetCredential reads the single stored token row
func (s *PostgRESTStore) GetCredential(ctx context.Context) (*entity.Credential, error) {
	query := url.Values{}
	query.Set("select", tokenColumns)
	query.Set("limit", "1")

	body, err := s.do(ctx, http.MethodGet, tokensTable, query, nil, nil)
	if err != nil {
		return nil, err
	}

	row := gjson.GetBytes(body, "0")
	if !row.Exists() {
		return nil, entity.ErrNoCredential
	}

	// id may be a bigint or a uuid depending on the schema
	cred := &entity.Credential{
		ID:           row.Get("id").String(),
		AccessToken:  row.Get("access_token").String(),
		RefreshToken: row.Get("refresh_token").String(),
		ExpiresAt:    parseTimestamp(row.Get("expires_at")),
		UpdatedAt:    parseTimestamp(row.Get("updated_at")),
	}
	return cred, nil
}

// SaveCredential updates the stored token row, or inserts it when cred has no id
func (s *PostgRESTStore) SaveCredential(ctx context.Context, cred *entity.Credential) error {
	now := time.Now().UTC()
	row := map[string]interface{}{
		"access_token":  cred.AccessToken,
		"refresh_token": cred.RefreshToken,
		"updated_at":    now.Format(time.RFC3339),
	}
	if cred.ExpiresAt != nil {
		row["expires_at"] = cred.ExpiresAt.UTC().Format(time.RFC3339)
	}

	if cred.ID == "" {
		_, err := s.do(ctx, http.MethodPost, tokensTable, nil, row,
			map[string]string{"Prefer": "return=minimal"})
		return err
	}

	query := url.Values{}
	query.Set("id", "eq."+cred.ID)
	_, err := s.do(ctx, http.MethodPatch, tokensTable, query, row,
		map[string]string{"Prefer": "return=minimal"})
	return err
}

func (s *PostgRESTStore) do(ctx context.Context, method, table string, query url.Values, payload interface{}, headers map[string]string) ([]byte, error) {
	endpoint := s.baseURL + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", table, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", table, err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &entity.NetworkError{Op: method + " " + table, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &entity.NetworkError{Op: "read " + table, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := gjson.GetBytes(data, "message").String()
		if message == "" {
			message = string(data)
		}
		return nil, &entity.RemoteError{StatusCode: resp.StatusCode, Message: message}
	}
	return data, nil
}

func parseTimestamp(v gjson.Result) *time.Time {
	if v.Type != gjson.String {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999-07"} {
		if t, err := time.Parse(layout, v.Str); err == nil {
			return &t
		}
	}
	return nil
}
