package framework

import (
	"context"
	"net/http"

	"github.com/golang/glog"
)

// HTTPServer runs an http.Server as a Runnable.
type HTTPServer struct {
	Server *http.Server
	name   string
}

// NewHTTPServer creates an HTTPServer listening on addr.
func NewHTTPServer(name, addr string, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		Server: &http.Server{Addr: addr, Handler: handler},
		name:   name,
	}
}

// Name implements Named.
func (s *HTTPServer) Name() string {
	return s.name
}

// Run implements Runnable.
func (s *HTTPServer) Run(ctx context.Context) error {
	glog.Infof("%s listening on %s", s.name, s.Server.Addr)
	return RunWithContextCancel(ctx, func() {
		s.Server.Close()
	}, s.Server.ListenAndServe)
}
