package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dayplan/internal/auth"
	"github.com/mesh-intelligence/dayplan/internal/httpapi"
	"github.com/mesh-intelligence/dayplan/internal/sqlite"
	"github.com/mesh-intelligence/dayplan/internal/tasks"
)

const (
	shutdownTimeout = 10 * time.Second
	redisPingTime   = 3 * time.Second
)

func newServeCmd(f *rootFlags) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(f)
			if err != nil {
				return err
			}
			if listen != "" {
				s.ListenAddr = listen
			}
			logger, err := newLogger(s)
			if err != nil {
				return err
			}

			srv, err := buildServer(cmd.Context(), s, logger)
			if err != nil {
				return err
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, s.ListenAddr)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides listen_addr)")
	return cmd
}

// server owns the HTTP handler and the resources behind it.
type server struct {
	echo    *echo.Echo
	logger  *log.Logger
	backend *sqlite.Backend
	authn   *auth.Auth
	redis   *redis.Client
}

// buildServer attaches the datastore, connects the optional Redis revocation
// list and wires the HTTP routes.
func buildServer(ctx context.Context, s *Settings, logger *log.Logger) (*server, error) {
	srv := &server{logger: logger}

	backend := sqlite.NewBackend()
	if err := backend.Attach(s.Store); err != nil {
		return nil, fmt.Errorf("attaching datastore: %w", err)
	}
	srv.backend = backend

	store, err := backend.Tasks()
	if err != nil {
		srv.Close()
		return nil, err
	}

	var revoker auth.Revoker
	if s.RedisURL != "" {
		opts, err := redis.ParseURL(s.RedisURL)
		if err != nil {
			srv.Close()
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		srv.redis = redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTime)
		err = srv.redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			srv.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		revoker = auth.NewRedisRevoker(srv.redis)
	} else {
		logger.Warn("redis.url not set; logout is disabled")
	}

	authn, err := auth.New(auth.Options{
		Secret:   []byte(s.AuthSecret),
		JWKSURL:  s.AuthJWKSURL,
		Audience: s.AuthAudience,
		Issuer:   s.AuthIssuer,
		Revoker:  revoker,
	})
	if err != nil {
		srv.Close()
		return nil, fmt.Errorf("configuring auth: %w", err)
	}
	srv.authn = authn

	var reg *prometheus.Registry
	if s.MetricsEnabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	srv.echo = httpapi.New(httpapi.Config{
		Service:      tasks.NewService(store),
		Auth:         authn,
		Health:       backend,
		Logger:       logger,
		HideForeign:  s.HideForeign,
		Metrics:      reg,
		AllowOrigins: s.AllowOrigin,
	})
	return srv, nil
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("dayplan listening")
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// Close releases the datastore, auth and Redis resources.
func (s *server) Close() {
	if s.authn != nil {
		s.authn.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.WithError(err).Warn("closing redis")
		}
	}
	if s.backend != nil {
		if err := s.backend.Detach(); err != nil {
			s.logger.WithError(err).Warn("detaching datastore")
		}
	}
}
