// Package api configures and exposes the HTTP server, routes,
// metrics, docs and related middleware for the lead intake service.
package api

import (
	_ "embed"
	"leadintake/internal/api/handler/leadhandler"
	"leadintake/internal/config"
	"leadintake/pkg/controller"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
)

// v1Spec contains the embedded OpenAPI specification of the API.
//
//go:embed specs/v1.yaml
var v1Spec []byte

// Options holds configuration for the HTTP server and its dependencies.
// It is typically created from a config.Config via NewOptions.
// All durations are used to configure server timeouts, and zero values
// should be considered as using the defaults provided by net/http where applicable.
type Options struct {
	// Addr is the TCP address the server listens on, e.g. ":8080".
	Addr string
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
	// RequestTimeout bounds request handling; a timed out request gets a JSON 500.
	RequestTimeout time.Duration
	// MaxHeaderBytes controls the maximum number of bytes the server
	// will read parsing the request header's keys and values, including the request line.
	MaxHeaderBytes int
	// MaxBodyBytes limits the size of request bodies.
	MaxBodyBytes int64
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
	// LeadPath is the HTTP path of the lead intake endpoint.
	LeadPath string
	// PprofEnabled mounts the profiling endpoints.
	PprofEnabled bool
	// CORSOrigin is the allowed origin sent in CORS headers.
	CORSOrigin string
}

// NewOptions constructs an Options value from the provided application configuration.
// It maps HTTP server-related settings from config.Config to the Options used by the API server.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Addr:              cfg.HTTP.Addr,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MaxBodyBytes:      cfg.HTTP.MaxBodyBytes,
		MetricsPath:       cfg.HTTP.MetricsPath,
		LeadPath:          cfg.HTTP.LeadPath,
		PprofEnabled:      cfg.HTTP.PprofEnabled,
		CORSOrigin:        cfg.HTTP.CORSOrigin,
	}
}

// Deps are the collaborators of the HTTP server.
type Deps struct {
	leadhandler.Deps

	// Gatherer serves the metrics endpoint; nil uses prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// NewHandler wires up the routes and middlewares:
// - lead intake endpoint (LeadPath)
// - liveness probe (/healthz)
// - Prometheus metrics endpoint (MetricsPath)
// - embedded OpenAPI spec and Swagger UI
// - pprof endpoints for profiling, when enabled
// The mux is wrapped with body limit, recover, CORS and logging middlewares
// and a request timeout.
func NewHandler(deps Deps, opts Options) http.Handler {
	mux := http.NewServeMux()

	// prometheus metrics server
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle(opts.MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// specs file
	mux.HandleFunc("/specs/v1.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(v1Spec)
	})
	// swagger playground
	mux.Handle("/docs/", v5emb.New(
		"Lead Intake Service",
		"/specs/v1.yaml",
		"/docs/",
	))

	mux.HandleFunc("/healthz", leadhandler.Health)
	mux.Handle(opts.LeadPath, leadhandler.New(deps.Deps))

	// pprof
	if opts.PprofEnabled {
		controller.RegisterPprof(mux)
	}

	var handler http.Handler = mux
	handler = controller.WithBodyLimit(opts.MaxBodyBytes, handler)
	handler = controller.WithRecover(handler)

	// cors
	handler = controller.WithCORS(opts.CORSOrigin, handler)

	// logger
	handler = controller.WithLogger(handler)

	handler = controller.WithTimeout(opts.RequestTimeout, handler)

	return handler
}

// NewServer returns a configured *http.Server serving NewHandler.
func NewServer(deps Deps, opts Options) *http.Server {
	return &http.Server{
		Addr:              opts.Addr,
		Handler:           NewHandler(deps, opts),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
	}
}
