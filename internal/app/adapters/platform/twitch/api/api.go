package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"tmiclient/internal/app/infrastructure/storage"
	"tmiclient/internal/app/ports"
	"tmiclient/pkg/logger"
)

const (
	DefaultBaseURL     = "https://api.twitch.tv/helix"
	DefaultValidateURL = "https://id.twitch.tv/oauth2/validate"
)

type Config struct {
	BaseURL     string
	ValidateURL string
	ClientID    string

	Workers   int
	CacheTTL  time.Duration
	CacheFile string
}

type Twitch struct {
	log    logger.Logger
	cfg    Config
	client *http.Client
	pool   *TwitchPool
	emotes *storage.Cache[[]ports.Emote]
}

func NewTwitch(log logger.Logger, cfg Config, client *http.Client) *Twitch {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ValidateURL == "" {
		cfg.ValidateURL = DefaultValidateURL
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Twitch{
		log:    log,
		cfg:    cfg,
		client: client,
		pool:   newTwitchPool(cfg.Workers, 64),
		emotes: storage.NewCache[[]ports.Emote](log, storage.CacheOptions{
			Capacity:      4096,
			TTL:           cfg.CacheTTL,
			FilePath:      cfg.CacheFile,
			FlushInterval: 5 * time.Minute,
		}),
	}
}

// Close stops the worker pool and flushes the emote cache.
func (t *Twitch) Close() error {
	t.pool.Stop()
	return t.emotes.Close()
}

const (
	maxRetries  = 5
	baseBackoff = time.Second
	maxBackoff  = 30 * time.Second
)

type twitchRequest struct {
	Method string
	URL    string
	Token  string
	Body   io.Reader
}

type TwitchAPIError struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (t *Twitch) doTwitchRequest(ctx context.Context, reqData twitchRequest, target any) (int, error) {
	t.log.Trace("Preparing Twitch request",
		slog.String("method", reqData.Method),
		slog.String("url", reqData.URL),
	)

	for attempt := 1; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, reqData.Method, reqData.URL, reqData.Body)
		if err != nil {
			return 0, err
		}
		req.Header.Set("Authorization", "Bearer "+reqData.Token)
		req.Header.Set("Client-Id", t.cfg.ClientID)
		req.Header.Set("Content-Type", "application/json")

		t.log.Debug("Sending Twitch request", slog.Int("attempt", attempt), slog.String("url", reqData.URL))

		resp, err := t.client.Do(req)
		if err != nil {
			return 0, fmt.Errorf("twitch request: %w", err)
		}

		raw, err := io.ReadAll(resp.Body)
		if cerr := resp.Body.Close(); cerr != nil {
			t.log.Error("Failed to close response body", cerr)
		}
		if err != nil {
			return resp.StatusCode, fmt.Errorf("read response body: %w", err)
		}

		t.log.Trace("Response received", slog.Int("status", resp.StatusCode), slog.Int("bytes", len(raw)))
		switch resp.StatusCode {
		case http.StatusOK, http.StatusNoContent:
			if target == nil {
				return resp.StatusCode, nil
			}
			if err := json.Unmarshal(raw, target); err != nil {
				return resp.StatusCode, fmt.Errorf("decode response: %w", err)
			}
			return resp.StatusCode, nil

		case http.StatusTooManyRequests:
			wait := calcWaitDuration(resp.Header.Get("Ratelimit-Reset"), time.Now())
			if wait <= 0 {
				wait = time.Duration(attempt) * baseBackoff
			}
			wait = min(wait, maxBackoff)

			t.log.Warn("Rate limit hit, backing off", slog.Int("attempt", attempt), slog.String("wait", wait.String()))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return resp.StatusCode, ctx.Err()
			}

		default:
			return resp.StatusCode, apiError(resp.StatusCode, raw)
		}
	}

	t.log.Warn("Twitch request failed after max retries", slog.Int("maxRetries", maxRetries), slog.String("url", reqData.URL))
	return http.StatusTooManyRequests, fmt.Errorf("%w: gave up after %d attempts", ErrRateLimited, maxRetries)
}

func apiError(status int, raw []byte) error {
	var sentinel error
	switch status {
	case http.StatusBadRequest:
		sentinel = ErrBadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = ErrUnauthorized
	case http.StatusNotFound:
		sentinel = ErrNotFound
	default:
		sentinel = ErrUnexpectedStatus
	}

	var apiErr TwitchAPIError
	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Message == "" {
		return fmt.Errorf("%w: status %d", sentinel, status)
	}
	return fmt.Errorf("%w: %s", sentinel, apiErr.Message)
}

func calcWaitDuration(resetHeader string, now time.Time) time.Duration {
	if resetHeader == "" {
		return 0
	}

	ts, err := strconv.ParseInt(resetHeader, 10, 64)
	if err != nil {
		return 0
	}

	resetTime := time.Unix(ts, 0)
	if resetTime.Before(now) {
		return 0
	}
	return resetTime.Sub(now)
}

// IsAuthError reports whether err came from a rejected token.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
