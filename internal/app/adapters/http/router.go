package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tmiclient/internal/app/adapters/http/handlers"
	"tmiclient/internal/app/adapters/http/middlewares"
	"tmiclient/internal/app/ports"
	"tmiclient/pkg/logger"
)

type Router struct {
	router      *gin.Engine
	handlers    *handlers.Handlers
	middlewares *middlewares.Middlewares

	log logger.Logger
}

// NewRouter serves /status openly. Metrics, pprof and the control API are
// only mounted when authToken is set. Channels joined or parted through the
// API are saved to store.
func NewRouter(log logger.Logger, chat ports.ChatPort, store ports.ChannelStorePort, authToken string) *Router {
	r := &Router{
		router:      gin.New(),
		handlers:    handlers.New(log, chat, store),
		middlewares: middlewares.New(),
		log:         log,
	}
	r.router.Use(gin.Recovery())

	r.router.GET("/status", r.handlers.StatusHandler)

	if authToken == "" {
		log.Warn("app.auth_token is empty, metrics and control API are disabled")
		return r
	}

	accounts := gin.BasicAuth(gin.Accounts{"admin": authToken})

	pprofGroup := r.router.Group("/", accounts)
	pprof.Register(pprofGroup)

	r.router.GET("/metrics", accounts, gin.WrapH(promhttp.Handler()))

	api := r.router.Group("/api", r.middlewares.Auth(authToken))
	api.POST("/join", r.handlers.JoinHandler)
	api.POST("/part", r.handlers.PartHandler)
	api.POST("/say", r.handlers.SayHandler)

	return r
}

func (r *Router) Handler() http.Handler {
	return r.router
}

// Run serves on addr until ctx is cancelled.
func (r *Router) Run(ctx context.Context, addr string) error {
	srv := r.newServer(addr, r.router)

	errCh := make(chan error, 1)
	go func() {
		r.log.Info("HTTP server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (r *Router) newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}
