package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xhad/ragd/internal/models"
)

// Answerer produces a streamed answer for a conversation. Satisfied by
// rag.Orchestrator.
type Answerer interface {
	Answer(ctx context.Context, messages []models.Message, onToken func(string) error) error
}

// Config configures the HTTP server.
type Config struct {
	Addr string
}

// Server exposes the query path over HTTP: POST /chat streams plain text,
// GET /ws streams JSON frames over a websocket, GET /health reports
// liveness. Every internal failure is logged in full server-side and
// surfaces to the client only as an opaque 500.
type Server struct {
	config   Config
	answerer Answerer
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

type chatRequest struct {
	Messages []models.Message `json:"messages"`
}

type wsFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

func New(config Config, answerer Answerer, logger *zap.Logger) *Server {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		config:   config,
		answerer: answerer,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("starting server", zap.String("addr", s.config.Addr))
	return http.ListenAndServe(s.config.Addr, s.Handler())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, &models.MalformedRequestError{Reason: err.Error()})
		return
	}
	if len(req.Messages) == 0 {
		s.fail(w, &models.MalformedRequestError{Reason: "no messages in request body"})
		return
	}

	flusher, _ := w.(http.Flusher)
	started := false

	err := s.answerer.Answer(r.Context(), req.Messages, func(token string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			started = true
		}
		if _, err := io.WriteString(w, token); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		if started {
			// Headers are gone; all we can do is log and cut the body.
			s.logger.Error("chat stream aborted", zap.Error(err))
			return
		}
		s.fail(w, err)
	}
}

// fail logs the real error and answers with the opaque 500 body. No
// provider detail ever reaches the client.
func (s *Server) fail(w http.ResponseWriter, err error) {
	s.logger.Error("chat request failed", zap.Error(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(`{"error":"Internal server error"}`))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Error("websocket read failed", zap.Error(err))
			}
			return
		}

		err := s.answerer.Answer(r.Context(), req.Messages, func(token string) error {
			return conn.WriteJSON(wsFrame{Type: "stream", Content: token})
		})
		if err != nil {
			s.logger.Error("websocket chat failed", zap.Error(err))
			conn.WriteJSON(wsFrame{Type: "error", Content: "Internal server error"})
			continue
		}
		conn.WriteJSON(wsFrame{Type: "done"})
	}
}
