// Package server exposes the job service over HTTP and WebSocket.
package server

import (
	"context"
	_ "embed"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/ytget/yt-batch/internal/download"
)

//go:embed web/index.html
var indexHTML []byte

// Server wires routes onto an echo instance
type Server struct {
	echo     *echo.Echo
	svc      download.JobService
	hub      *Hub
	upgrader websocket.Upgrader
}

// New creates the HTTP server. hub may be nil, which disables /ws.
func New(svc download.JobService, hub *Hub) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo: e,
		svc:  svc,
		hub:  hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(echomw.RequestID())
	s.echo.Use(requestLogger())

	s.echo.GET("/", s.index)
	s.echo.GET("/healthz", s.health)
	s.echo.POST("/download", s.submit)
	s.echo.GET("/progress/:id", s.progress)
	s.echo.GET("/download_zip/:id", s.downloadZip)
	s.echo.GET("/jobs", s.listJobs)
	if s.hub != nil {
		s.echo.GET("/ws", s.handleWebSocket)
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr and blocks until Shutdown. A clean shutdown returns nil.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
