// Package server exposes the explain pipeline over HTTP. The surface is
// deliberately thin: routing, CORS, and error shaping only — everything
// else lives in the explain service.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"asmexplain/internal/api"
	"asmexplain/internal/explain"
)

// Explainer is the part of the explain service the HTTP layer needs.
type Explainer interface {
	Explain(ctx context.Context, req *api.Request) (*api.Response, error)
	Options() api.AvailableOptions
}

// Router builds the gin engine for the service.
func Router(svc Explainer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("asm-explain"))
	router.Use(corsMiddleware())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Options())
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/", func(c *gin.Context) {
		var req api.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse(err))
			return
		}

		start := time.Now()
		resp, err := svc.Explain(c.Request.Context(), &req)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, explain.ErrInvalidRequest) {
				status = http.StatusBadRequest
			}
			log.Error().Err(err).
				Str("language", req.Language).
				Str("compiler", req.Compiler).
				Msg("explain request failed")
			c.JSON(status, api.ErrorResponse(err))
			return
		}

		log.Info().
			Str("language", req.Language).
			Str("compiler", req.Compiler).
			Bool("cached", resp.Cached).
			Dur("duration", time.Since(start)).
			Msg("explain request served")
		c.JSON(http.StatusOK, resp)
	})

	return router
}

// Run serves the router until ctx is cancelled, then drains in-flight
// requests for up to 10 seconds.
func Run(ctx context.Context, addr string, svc Explainer) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: Router(svc).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info().Str("addr", addr).Msg("listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// corsMiddleware allows any origin: this is a public, credential-free API.
// Preflight results are cached for a day.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "*")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
