package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barberbot/internal/access"
	"barberbot/internal/session"
)

// Options configuración del servidor de administración
type Options struct {
	Addr       string
	Store      session.Store
	Gate       *access.Gate
	Logger     *zap.Logger
	RatePerMin int
	Now        func() time.Time
}

// Server API HTTP para inspeccionar y archivar conversaciones
type Server struct {
	opts   Options
	router *gin.Engine
}

// New arma el router con sus middlewares y rutas
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("admin: store requerido")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Addr == "" {
		opts.Addr = ":3000"
	}
	if opts.RatePerMin <= 0 {
		opts.RatePerMin = 120
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(opts.Logger), newRateLimiter(opts.RatePerMin).middleware(opts.Logger))

	s := &Server{opts: opts, router: router}
	s.registerRoutes()
	return s, nil
}

// Handler expone el router, útil para tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run escucha hasta que se cancela el contexto y luego cierra ordenadamente
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.opts.Logger.Info("🌐 API de administración escuchando", zap.String("addr", s.opts.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin: %w", err)
	}
	return nil
}
