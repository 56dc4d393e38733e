package bot

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/snippymart/whatsapp-bot/pkg/catalog"
	"github.com/snippymart/whatsapp-bot/pkg/config"
	"github.com/snippymart/whatsapp-bot/pkg/dedup"
	"github.com/snippymart/whatsapp-bot/pkg/hours"
	"github.com/snippymart/whatsapp-bot/pkg/metrics"
	"github.com/snippymart/whatsapp-bot/pkg/router"
	"github.com/snippymart/whatsapp-bot/pkg/session"
)

// Service owns the HTTP surface and the maintenance timers. Request
// handling and sweeps have independent lifecycles: sweeps run on fixed
// intervals uncoupled from traffic.
type Service struct {
	cfg      *config.Config
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	router   *router.Router
	sessions session.Store
	dedup    dedup.Deduplicator
	gate     *hours.Gate
	catalog  *catalog.Service

	server    *http.Server
	startedAt time.Time
	stopCh    chan struct{}
}

func NewService(cfg *config.Config, rt *router.Router, sessions session.Store, dd dedup.Deduplicator,
	gate *hours.Gate, cat *catalog.Service, logger *logrus.Logger, m *metrics.Metrics) *Service {
	return &Service{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		router:   rt,
		sessions: sessions,
		dedup:    dd,
		gate:     gate,
		catalog:  cat,
		stopCh:   make(chan struct{}),
	}
}

func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting dispatch service")
	s.startedAt = time.Now()

	// A cold catalog is not fatal; the cache refreshes on demand.
	if _, err := s.catalog.Reload(ctx); err != nil {
		s.logger.WithError(err).Warn("Initial catalog load failed")
	}

	s.server = s.createHTTPServer()
	go func() {
		s.logger.WithField("port", s.cfg.Port).Info("Starting HTTP server")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	go s.maintenanceLoop(ctx)

	s.logger.WithField("instance_id", s.cfg.InstanceID).Info("Dispatch service started successfully")
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("Stopping dispatch service")
	close(s.stopCh)

	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Error("Failed to shutdown HTTP server gracefully")
			return err
		}
	}

	s.logger.Info("Dispatch service stopped")
	return nil
}

func (s *Service) createHTTPServer() *http.Server {
	r := mux.NewRouter()

	r.HandleFunc("/webhook", s.handleVerify).Methods("GET")
	r.HandleFunc("/webhook", s.handleWebhook).Methods("POST")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/status", s.handleStatus).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.Use(loggingMiddleware(s.logger))

	return &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// maintenanceLoop drives the periodic sweeps: dedup cleanup, stale-session
// cleanup, and business-hours polling, each on its own ticker.
func (s *Service) maintenanceLoop(ctx context.Context) {
	dedupTicker := time.NewTicker(s.cfg.DedupSweepInterval())
	sessionTicker := time.NewTicker(s.cfg.TranscriptTTL())
	hoursTicker := time.NewTicker(s.cfg.HoursPollInterval())
	defer dedupTicker.Stop()
	defer sessionTicker.Stop()
	defer hoursTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-dedupTicker.C:
			removed := s.dedup.Sweep(ctx)
			if removed > 0 {
				s.metrics.SweepRemoved.WithLabelValues("dedup").Add(float64(removed))
			}
		case <-sessionTicker.C:
			removed := s.sessions.SweepStale(time.Now(), session.TTLs{
				Session:    s.cfg.SessionTTL(),
				Transcript: s.cfg.TranscriptTTL(),
				Handoff:    s.cfg.HandoffTTL(),
			})
			if removed > 0 {
				s.metrics.SweepRemoved.WithLabelValues("session").Add(float64(removed))
			}
			s.metrics.ActiveSessions.Set(float64(s.sessions.Len()))
		case <-hoursTicker.C:
			// Window transitions must fire even with no traffic, or the
			// auto-reply set would only reset on the next inbound event.
			s.gate.Observe(time.Now())
		}
	}
}

func loggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Debug("HTTP request processed")
		})
	}
}

func (s *Service) uptime() string {
	return time.Since(s.startedAt).Round(time.Second).String()
}
