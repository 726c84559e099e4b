package chat

import (
	"fmt"
	"log/slog"
	"net"
)

// Server owns the listening socket and spawns one handler per accepted
// connection. The accept loop never blocks on any individual connection.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	reg      *Registry
	handler  *Handler
	listener net.Listener
}

func NewServer(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	reg := NewRegistry()
	router := NewRouter(reg, logger)
	return &Server{
		cfg:     cfg,
		logger:  logger,
		reg:     reg,
		handler: NewHandler(reg, router, cfg, logger),
	}
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln

	go s.acceptLoop(ln)

	s.logger.Info("server started", "addr", ln.Addr().String())
	return nil
}

// Addr reports the bound listen address, useful when Addr was ":0".
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop() {
	s.logger.Info("shutting down")

	if s.listener != nil {
		_ = s.listener.Close()
	}
	for _, sess := range s.reg.Sessions() {
		sess.Close()
	}

	s.logger.Info("shutdown complete")
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			// Accept fails once the listener closes; that's shutdown.
			return
		}

		s.logger.Info("client connected", "addr", conn.RemoteAddr().String())
		go s.handler.Handle(conn)
	}
}
