// Package httpapi exposes the report relay over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nekos-API/Nekos.Land/internal/logging"
	"github.com/Nekos-API/Nekos.Land/internal/server/services"
)

// ReportPath is the route of the original front-end's report endpoint.
const ReportPath = "/api/nekos-api/images/:imageId/report"

type Server struct {
	address         string
	reports         services.ReportService
	users           UserResolver
	logger          logging.Logger
	requestTimeout  time.Duration
	shutdownTimeout time.Duration
}

func NewServer(addr string, l logging.Logger, rs services.ReportService, users UserResolver, requestTimeout, shutdownTimeout time.Duration) *Server {
	return &Server{
		address:         addr,
		reports:         rs,
		users:           users,
		logger:          l.With("module", "http_server"),
		requestTimeout:  requestTimeout,
		shutdownTimeout: shutdownTimeout,
	}
}

// Router builds the gin engine. It is separate from Run so tests can drive
// it through httptest.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.loggerMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/", s.timeoutMiddleware(), s.bearerMiddleware())
	api.POST(ReportPath, s.reportImage)

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
