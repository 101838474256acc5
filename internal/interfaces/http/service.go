package httpinterface

import (
	"context"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/fedbook/internal/core/application"
	"github.com/tdex-network/fedbook/internal/core/ports"
	interfaces "github.com/tdex-network/fedbook/internal/interfaces"
)

const shutdownTimeout = 5 * time.Second

type ServiceOpts struct {
	Address    string
	Federation *application.Federation
	// PubSub is optional, webhook endpoints are served only if defined.
	PubSub ports.PubSub
	// Registry is optional, a new one with go and process collectors is used
	// if nil.
	Registry       *prometheus.Registry
	EnableProfiler bool
}

func (o ServiceOpts) validate() error {
	if o.Federation == nil {
		return ErrNullFederation
	}
	return nil
}

type service struct {
	address string
	server  *http.Server
	metrics *metrics
}

// NewService returns the http interface of the daemon.
func NewService(opts ServiceOpts) (interfaces.Service, error) {
	router, metrics, err := newRouter(opts)
	if err != nil {
		return nil, err
	}

	return &service{
		address: opts.Address,
		server:  &http.Server{Addr: opts.Address, Handler: router},
		metrics: metrics,
	}, nil
}

// NewHandler returns the http handler serving the daemon api. The returned
// func must be called to release it.
func NewHandler(opts ServiceOpts) (http.Handler, func(), error) {
	router, metrics, err := newRouter(opts)
	if err != nil {
		return nil, nil, err
	}
	return router, metrics.close, nil
}

func (s *service) Start() error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	go func() {
		if err := s.server.Serve(lis); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("http server stopped unexpectedly")
		}
	}()

	log.Infof("http interface is listening on %s", s.address)
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop http server")
	}
	s.metrics.close()
	log.Debug("stopped http interface")
}

func newRouter(opts ServiceOpts) (*gin.Engine, *metrics, error) {
	if err := opts.validate(); err != nil {
		return nil, nil, err
	}

	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	metrics, err := newMetrics(registry, opts.Federation)
	if err != nil {
		return nil, nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	h := &handler{opts.Federation, opts.PubSub}
	h.registerRoutes(router)
	router.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	))

	if opts.EnableProfiler {
		profiler := router.Group("/debug/pprof")
		{
			profiler.GET("/", gin.WrapF(pprof.Index))
			profiler.GET("/cmdline", gin.WrapF(pprof.Cmdline))
			profiler.GET("/profile", gin.WrapF(pprof.Profile))
			profiler.GET("/symbol", gin.WrapF(pprof.Symbol))
			profiler.GET("/trace", gin.WrapF(pprof.Trace))
			profiler.GET("/:profile", func(c *gin.Context) {
				pprof.Handler(c.Param("profile")).ServeHTTP(c.Writer, c.Request)
			})
		}
	}

	return router, metrics, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debugf("%s %s", c.Request.Method, c.Request.URL.Path)
	}
}
