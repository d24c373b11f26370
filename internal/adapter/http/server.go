package http

import (
	"net/http"

	"github.com/torisu/jimaku/internal/adapter/http/middleware"
	"github.com/torisu/jimaku/internal/service"
)

type Server struct {
	mux        *http.ServeMux
	handlers   *Handlers
	sseHandler *SSEHandler
}

func NewServer(audioSvc AudioService, hub *service.Hub, maxSizeMB int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:        mux,
		handlers:   NewHandlers(audioSvc, maxSizeMB),
		sseHandler: NewSSEHandler(hub),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /upload", s.handlers.Upload())
	s.mux.HandleFunc("GET /audio/{id}", s.handlers.AudioInfo())
	s.mux.HandleFunc("GET /audio/{id}/subtitles", s.handlers.Subtitles())
	s.mux.HandleFunc("GET /audio/{id}/srt", s.handlers.ExportSRT())
	s.mux.HandleFunc("GET /jobs", s.handlers.ActiveJobs())
	s.mux.HandleFunc("GET /events", s.sseHandler.Events())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	middleware.SecurityHeaders(s.mux).ServeHTTP(w, r)
}
