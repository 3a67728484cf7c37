package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"

	"chronos-reconciler/internal/domain/entity"
	"chronos-reconciler/pkg/logger"

	"github.com/tidwall/gjson"
)

// ExpiryPredicate decides from a failed response whether the access token
// was rejected as expired or invalid.
type ExpiryPredicate func(status int, body []byte) bool

// ExpiryCodes returns a predicate matching HTTP 401 or any of the given
// Zoom error codes.
func ExpiryCodes(codes ...int64) ExpiryPredicate {
	return func(status int, body []byte) bool {
		if status == http.StatusUnauthorized {
			return true
		}
		code := gjson.GetBytes(body, "code")
		return code.Exists() && slices.Contains(codes, code.Int())
	}
}

// ZoomClient calls the Zoom REST API. It never retries; retrying after an
// expired token is decided by the caller.
type ZoomClient struct {
	baseURL    string
	httpClient *http.Client
	isExpired  ExpiryPredicate
	logger     logger.Logger
}

// NewZoomClient creates a Zoom API client. A nil predicate selects ExpiryCodes(124).
func NewZoomClient(baseURL string, httpClient *http.Client, isExpired ExpiryPredicate, logger logger.Logger) *ZoomClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if isExpired == nil {
		isExpired = ExpiryCodes(124)
	}
	return &ZoomClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		isExpired:  isExpired,
		logger:     logger,
	}
}

// UpdateMeetingHost reassigns a meeting to the user with the given email
func (c *ZoomClient) UpdateMeetingHost(ctx context.Context, accessToken, meetingID, newHostEmail string) error {
	payload, err := json.Marshal(map[string]string{"schedule_for": newHostEmail})
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/meetings/" + url.PathEscape(meetingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &entity.NetworkError{Op: "update meeting " + meetingID, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &entity.NetworkError{Op: "read response of meeting " + meetingID, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent:
		c.logger.Debug("Meeting host updated", "meetingId", meetingID, "host", newHostEmail)
		return nil
	case c.isExpired(resp.StatusCode, body):
		return fmt.Errorf("%w: %s", entity.ErrCredentialExpired, errorMessage(body))
	default:
		return &entity.RemoteError{
			StatusCode: resp.StatusCode,
			Code:       gjson.GetBytes(body, "code").Int(),
			Message:    errorMessage(body),
		}
	}
}

func errorMessage(body []byte) string {
	if msg := gjson.GetBytes(body, "message"); msg.Exists() {
		return msg.String()
	}
	return string(body)
}
