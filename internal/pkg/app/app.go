package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/proxy"

	router "tmiclient/internal/app/adapters/http"
	"tmiclient/internal/app/adapters/metrics"
	"tmiclient/internal/app/adapters/platform/twitch/api"
	"tmiclient/internal/app/adapters/transport"
	"tmiclient/internal/app/infrastructure/config"
	"tmiclient/internal/app/ports"
	"tmiclient/pkg/irc"
	"tmiclient/pkg/logger"
	"tmiclient/pkg/tmi"
)

var (
	_ ports.ChatPort         = (*tmi.Client)(nil)
	_ ports.ChannelStorePort = (*config.Manager)(nil)
)

type App struct {
	log     *logger.SlogLogger
	manager *config.Manager
	twitch  *api.Twitch
	client  *tmi.Client
	router  *router.Router

	gaveUp     chan struct{}
	gaveUpOnce sync.Once
}

func New(configPath string) (*App, error) {
	manager, err := config.New(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := manager.Get()

	opts := []logger.Option{logger.WithLevel(cfg.App.LogLevel)}
	if cfg.App.LogFile != "" {
		opts = append(opts, logger.WithFile(cfg.App.LogFile))
	}
	log := logger.New(opts...)

	httpClient, err := newHTTPClient(cfg.Proxy)
	if err != nil {
		return nil, err
	}

	a := &App{log: log, manager: manager, gaveUp: make(chan struct{})}

	clientOpts := []tmi.Option{
		tmi.WithLogger(log),
		tmi.WithTransport(transport.NewWebSocket(logger.NewPrefixedLogger(log, "ws"), httpClient)),
		tmi.WithMetrics(metrics.New()),
	}
	if cfg.App.ClientID != "" {
		a.twitch = api.NewTwitch(logger.NewPrefixedLogger(log, "api"), api.Config{
			ClientID:  cfg.App.ClientID,
			CacheFile: cfg.App.EmoteCache,
		}, httpClient)
		clientOpts = append(clientOpts, tmi.WithEmoteSets(a.twitch))
	}

	a.client, err = tmi.New(cfg.ClientConfig(), clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	a.client.OnEvent(newEventLogger(log).handle)
	a.client.OnEvent(func(ev tmi.Event) {
		if _, ok := ev.(tmi.MaxReconnect); ok {
			a.gaveUpOnce.Do(func() { close(a.gaveUp) })
		}
	})

	if cfg.App.MetricsAddr != "" {
		if cfg.App.GinMode != "" {
			gin.SetMode(cfg.App.GinMode)
		}
		a.router = router.NewRouter(logger.NewPrefixedLogger(log, "http"), a.client, a.manager, cfg.App.AuthToken)
	}

	return a, nil
}

// checkToken warns about a chat token that will not log in. Startup goes on
// either way.
func (a *App) checkToken(ctx context.Context, cfg *config.Config) {
	if a.twitch == nil || cfg.Identity.Password == "" {
		return
	}

	v, err := a.twitch.ValidateToken(ctx, irc.Token(cfg.Identity.Password))
	switch {
	case api.IsAuthError(err):
		a.log.Warn("Chat token is invalid or expired", slog.Any("error", err))
	case err != nil:
		a.log.Warn("Chat token validation failed", slog.Any("error", err))
	case v.Login != "" && v.Login != irc.Username(cfg.Identity.Username):
		a.log.Warn("Chat token belongs to another account",
			slog.String("token_login", v.Login),
			slog.String("username", cfg.Identity.Username),
		)
	}
}

// Run connects and blocks until ctx is cancelled or the client gives up.
func (a *App) Run(ctx context.Context) error {
	cfg := a.manager.Get()

	a.checkToken(ctx, cfg)

	errCh := make(chan error, 1)
	if a.router != nil {
		go func() { errCh <- a.router.Run(ctx, cfg.App.MetricsAddr) }()
	}

	server, port, err := a.client.Connect(ctx)
	switch {
	case err == nil:
		a.log.Info("Connected", slog.String("server", server), slog.Int("port", port))
	case errors.Is(err, context.Canceled):
	case a.client.State() == tmi.StateReconnecting:
		a.log.Warn("First connection attempt failed", slog.Any("error", err))
	default:
		return fmt.Errorf("connect: %w", err)
	}

	select {
	case <-ctx.Done():
	case <-a.gaveUp:
		return errors.New("maximum reconnection attempts reached")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.client.Disconnect(disconnectCtx); err != nil && !errors.Is(err, tmi.ErrCannotDisconnect) {
		a.log.Warn("Disconnect failed", slog.Any("error", err))
	}
	return nil
}

func (a *App) Close() error {
	var errs []error
	if err := a.client.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.twitch != nil {
		if err := a.twitch.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newHTTPClient(p *config.Proxy) (*http.Client, error) {
	client := &http.Client{
		Timeout:   10 * time.Second,
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
	if p == nil || p.Address == "" || p.Port == 0 {
		return client, nil
	}

	var auth *proxy.Auth
	if p.Username != "" {
		auth = &proxy.Auth{User: p.Username, Password: p.Password}
	}

	dialer, err := proxy.SOCKS5("tcp", net.JoinHostPort(p.Address, strconv.Itoa(p.Port)), auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 proxy: %w", err)
	}

	client.Transport = &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		},
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
	}
	return client, nil
}
