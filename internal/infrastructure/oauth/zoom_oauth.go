package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chronos-reconciler/internal/domain/entity"
	"chronos-reconciler/pkg/logger"

	"golang.org/x/oauth2"
)

// ZoomOAuth handles OAuth authentication with Zoom
type ZoomOAuth struct {
	config     *oauth2.Config
	httpClient *http.Client
	logger     logger.Logger
}

// NewZoomOAuth creates a new Zoom OAuth handler. httpClient may be nil.
func NewZoomOAuth(clientID, clientSecret, authURL, tokenURL, redirectURL string, httpClient *http.Client, logger logger.Logger) *ZoomOAuth {
	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
			// Zoom expects the client credentials as basic auth
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		RedirectURL: redirectURL,
	}

	return &ZoomOAuth{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Configured reports whether client credentials are set
func (o *ZoomOAuth) Configured() bool {
	return o.config.ClientID != "" && o.config.ClientSecret != ""
}

// Refresh exchanges a refresh token for a new access/refresh token pair
func (o *ZoomOAuth) Refresh(ctx context.Context, refreshToken string) (*entity.Credential, error) {
	if !o.Configured() {
		return nil, entity.ErrClientNotConfigured
	}
	if refreshToken == "" {
		return nil, entity.ErrNoRefreshToken
	}

	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now(), // Force refresh
	}

	fresh, err := o.config.TokenSource(o.context(ctx), token).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", classify(err))
	}

	o.logger.Debug("Zoom token refreshed", "expiry", fresh.Expiry)
	return credentialFromToken(fresh), nil
}

// GenerateAuthURL generates a URL for the user to authorize the application
func (o *ZoomOAuth) GenerateAuthURL(state string) string {
	return o.config.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for a token pair
func (o *ZoomOAuth) ExchangeCode(ctx context.Context, code string) (*entity.Credential, error) {
	if !o.Configured() {
		return nil, entity.ErrClientNotConfigured
	}

	token, err := o.config.Exchange(o.context(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", classify(err))
	}

	o.logger.Info("Zoom token pair obtained", "expiry", token.Expiry)
	return credentialFromToken(token), nil
}

func (o *ZoomOAuth) context(ctx context.Context) context.Context {
	if o.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
}

func credentialFromToken(token *oauth2.Token) *entity.Credential {
	cred := &entity.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		cred.ExpiresAt = &expiry
	}
	return cred
}

// classify turns token endpoint failures into entity errors
func classify(err error) error {
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		status := 0
		if retrieve.Response != nil {
			status = retrieve.Response.StatusCode
		}
		message := retrieve.ErrorDescription
		if message == "" {
			message = retrieve.ErrorCode
		}
		if message == "" {
			message = string(retrieve.Body)
		}
		return &entity.RemoteError{StatusCode: status, Message: message}
	}
	return &entity.NetworkError{Op: "token endpoint", Err: err}
}
