// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api serves a distributor over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
	"github.com/gorilla/rpc/v2"
	"github.com/pires/go-proxyproto"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/Juneo-io/epochminter/distributor/metrics"
	"github.com/Juneo-io/epochminter/utils/json"
)

const (
	baseURL = "/ext"

	DistributorEndpoint = baseURL + "/" + ServiceName
	MetricsEndpoint     = baseURL + "/metrics"
	HealthEndpoint      = baseURL + "/health"
	EventsEndpoint      = baseURL + "/events"
)

var errDuplicateRoute = errors.New("route already registered")

type Config struct {
	Host string `json:"host"`
	Port uint16 `json:"port"`
	// AllowedOrigins of cross-origin and websocket requests. "*" allows every
	// origin.
	AllowedOrigins    []string      `json:"allowedOrigins"`
	ReadHeaderTimeout time.Duration `json:"readHeaderTimeout"`
	ShutdownTimeout   time.Duration `json:"shutdownTimeout"`
	// ProxyProtocol reads the caller address from the PROXY protocol header
	// a load balancer prepends to each connection.
	ProxyProtocol bool `json:"proxyProtocol"`
	// JWTSecret signs the tokens of privileged callers. Empty disables
	// authentication, so every caller is anonymous.
	JWTSecret []byte `json:"-"`
}

// Address returns the host:port the server listens on.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// Listen opens the TCP listener of the server.
func Listen(config Config) (net.Listener, error) {
	listener, err := net.Listen("tcp", config.Address())
	if err != nil {
		return nil, fmt.Errorf("couldn't listen on %s: %w", config.Address(), err)
	}
	if config.ProxyProtocol {
		listener = &proxyproto.Listener{Listener: listener}
	}
	return listener, nil
}

type Server struct {
	log      *zap.Logger
	config   Config
	listener net.Listener
	router   *mux.Router
	routes   map[string]struct{}
	srv      *http.Server
}

// NewServer serves on [listener] once dispatched.
func NewServer(log *zap.Logger, config Config, listener net.Listener) *Server {
	router := mux.NewRouter()
	auth := newAuthenticator(config.JWTSecret)
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowCredentials: true,
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
	}).Handler(router)
	handler := auth.wrap(corsHandler)

	return &Server{
		log:      log,
		config:   config,
		listener: listener,
		router:   router,
		routes:   make(map[string]struct{}),
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: config.ReadHeaderTimeout,
		},
	}
}

// AddRoute serves [handler] at [path]. Responses are gzipped when the client
// accepts it.
func (s *Server) AddRoute(path string, handler http.Handler) error {
	return s.addRoute(path, gziphandler.GzipHandler(handler))
}

// AddStreamRoute serves [handler] at [path] without compression, so that
// the connection can be hijacked.
func (s *Server) AddStreamRoute(path string, handler http.Handler) error {
	return s.addRoute(path, handler)
}

func (s *Server) addRoute(path string, handler http.Handler) error {
	if _, ok := s.routes[path]; ok {
		return fmt.Errorf("%w: %s", errDuplicateRoute, path)
	}
	s.routes[path] = struct{}{}
	s.router.Handle(path, handler)
	s.log.Info("adding route",
		zap.String("url", s.URL()+path),
	)
	return nil
}

// URL returns the base URL of the server.
func (s *Server) URL() string {
	return "http://" + s.listener.Addr().String()
}

// Dispatch serves until the server is shut down.
func (s *Server) Dispatch() error {
	s.log.Info("HTTP API server listening",
		zap.Stringer("address", s.listener.Addr()),
	)
	err := s.srv.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	err := s.srv.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return s.srv.Close()
	}
	return err
}

// Close stops serving immediately and releases the listener. It may be
// called whether or not the server was dispatched.
func (s *Server) Close() error {
	err := s.srv.Close()
	if closeErr := s.listener.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
		err = errors.Join(err, closeErr)
	}
	return err
}

// NewRPCHandler returns the JSON-RPC 2.0 handler of [service]. Every request
// is recorded by [interceptor].
func NewRPCHandler(service *Service, interceptor metrics.APIInterceptor) (http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	server.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	server.RegisterInterceptFunc(interceptor.InterceptRequest)
	server.RegisterAfterFunc(interceptor.AfterRequest)
	return server, server.RegisterService(service, ServiceName)
}
