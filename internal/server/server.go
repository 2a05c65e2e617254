package server

import (
	"net/http"
	"time"

	"htadmin/internal/account"
	"htadmin/internal/config"
	"htadmin/internal/policy"
)

type Server struct {
	cfg config.Config
	h   http.Handler
}

func New(cfg config.Config, pol *policy.Policy, accounts *account.Service) (*Server, error) {
	app, err := newApp(cfg, pol, accounts)
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, h: app.routes()}, nil
}

func (s *Server) Handler() http.Handler { return s.h }

func (s *Server) ListenAndServe() error {
	httpSrv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return httpSrv.ListenAndServe()
}
