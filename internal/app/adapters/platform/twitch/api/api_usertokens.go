package api

import (
	"context"
	"log/slog"
	"net/http"
)

type ValidateResponse struct {
	ClientID  string   `json:"client_id"`
	Login     string   `json:"login"`
	Scopes    []string `json:"scopes"`
	UserID    string   `json:"user_id"`
	ExpiresIn int      `json:"expires_in"`
}

// ValidateToken checks a chat token against the OAuth validate endpoint.
func (t *Twitch) ValidateToken(ctx context.Context, accessToken string) (*ValidateResponse, error) {
	if accessToken == "" {
		return nil, ErrEmptyToken
	}

	var v ValidateResponse
	if _, err := t.doTwitchRequest(ctx, twitchRequest{
		Method: http.MethodGet,
		URL:    t.cfg.ValidateURL,
		Token:  accessToken,
	}, &v); err != nil {
		return nil, err
	}

	t.log.Debug("Token validated",
		slog.String("login", v.Login),
		slog.Int("expiresIn", v.ExpiresIn),
		slog.Any("scopes", v.Scopes),
	)
	return &v, nil
}
