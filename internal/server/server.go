package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/snnyvrz/booklibrary/internal/config"
	"github.com/snnyvrz/booklibrary/internal/docs"
	"github.com/snnyvrz/booklibrary/internal/handler"
	"github.com/snnyvrz/booklibrary/internal/middleware"
	"github.com/snnyvrz/booklibrary/internal/repository"
)

type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Books     repository.BookRepository
	Log       *zap.Logger
	StartTime time.Time
	Version   string
}

// NewRouter wires middleware, health probes, the book API under /api and the
// swagger UI.
func NewRouter(d Deps) *gin.Engine {
	gin.SetMode(d.Config.GinMode)

	e := gin.New()
	e.Use(
		middleware.RequestID(),
		middleware.AccessLog(d.Log),
		middleware.Recovery(d.Log),
	)

	_ = e.SetTrustedProxies([]string{
		"127.0.0.1",
		"::1",
	})

	docs.SwaggerInfo.BasePath = "/api"

	healthHandler := handler.NewHealthHandler(d.DB, d.StartTime, d.Version)
	healthHandler.RegisterRoutes(e)

	api := e.Group("/api")
	{
		bookHandler := handler.NewBookHandler(d.Books, d.Log)
		bookHandler.RegisterRoutes(api)
	}

	e.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return e
}

// Run serves h on cfg.Addr() until ctx is cancelled, then drains in-flight
// requests for at most cfg.ShutdownTimeout.
func Run(ctx context.Context, cfg *config.Config, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "http server failed")
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down http server", zap.Duration("timeout", cfg.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http server shutdown")
	}
	return nil
}
