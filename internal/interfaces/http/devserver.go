// Package http hosts a minimal local dev server so the engine can be
// exercised end-to-end without an external Vite process. It implements
// the host collaborator surface the engine consumes: a configured port
// and an on-close notification.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type DevServer struct {
	port int
	srv  *http.Server
	log  zerolog.Logger

	mu      sync.Mutex
	onClose []func()
}

func NewDevServer(port int, dir string, log zerolog.Logger) *DevServer {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	router.Use(cors.New(corsConfig))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.NoRoute(gin.WrapH(http.FileServer(http.Dir(dir))))

	return &DevServer{
		port: port,
		srv: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		},
		log: log,
	}
}

func (s *DevServer) ConfiguredPort() int {
	return s.port
}

// OnClose registers a callback fired when the server shuts down.
func (s *DevServer) OnClose(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = append(s.onClose, fn)
}

func (s *DevServer) Start() error {
	s.log.Info().Int("port", s.port).Msg("dev server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *DevServer) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	s.mu.Lock()
	callbacks := s.onClose
	s.onClose = nil
	s.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
	return err
}
