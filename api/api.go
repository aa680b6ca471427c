package api

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/didip/tollbooth/v5"
	"github.com/didip/tollbooth/v5/limiter"
	chimiddleware "github.com/go-chi/chi/middleware"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/sebest/xff"
	"github.com/tigrisdata/inviter/conf"
	"github.com/tigrisdata/inviter/crypto"
	"github.com/tigrisdata/inviter/invitation"
	"github.com/tigrisdata/inviter/mailer"
	"github.com/tigrisdata/inviter/storage"
)

const (
	audHeaderName         = "X-JWT-AUD"
	defaultReminderCached = 1024
)

// API is the main REST API
type API struct {
	handler       http.Handler
	store         storage.Store
	publisher     invitation.Publisher
	globalConfig  *conf.GlobalConfiguration
	config        *conf.Configuration
	mailer        mailer.Mailer
	reminderCache *lru.Cache
	version       string
	now           func() time.Time
}

// NewAPIWithVersion creates a new REST API using the specified version
func NewAPIWithVersion(ctx context.Context, globalConfig *conf.GlobalConfiguration, config *conf.Configuration, store storage.Store, publisher invitation.Publisher, version string) *API {
	cacheSize := globalConfig.API.ReminderCacheSize
	if cacheSize <= 0 {
		cacheSize = defaultReminderCached
	}
	reminderCache, err := lru.New(cacheSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create reminder cache")
	}

	api := &API{
		store:         store,
		publisher:     publisher,
		globalConfig:  globalConfig,
		config:        config,
		mailer:        mailer.NewMailer(config),
		reminderCache: reminderCache,
		version:       version,
		now:           time.Now,
	}

	var verifyLimiter *limiter.Limiter
	if rate := globalConfig.API.VerifyRateLimit; rate > 0 {
		verifyLimiter = tollbooth.NewLimiter(rate/60, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour}).SetBurst(int(rate))
	}

	xffmw, _ := xff.Default()
	r := newRouter()
	r.UseBypass(xffmw.Handler)
	r.UseBypass(chimiddleware.RequestID)
	r.UseBypass(newStructuredLogger(log.Logger))
	r.UseBypass(chimiddleware.Recoverer)
	r.UseBypass(traceRequest)

	r.Get("/health", api.HealthCheck)

	r.Route("/invitations", func(r *router) {
		r.With(api.requireOperator).Get("/", api.ListInvitations)
		r.With(api.requireOperator).Post("/", api.CreateInvitation)
		r.With(api.limitHandler(verifyLimiter)).Post("/verify", api.VerifyInvitation)

		r.Route("/{code}", func(r *router) {
			r.Get("/status", api.InvitationStatus)
			r.With(api.requireOperator).Get("/", api.GetInvitation)
			r.With(api.requireOperator).Post("/consume", api.ConsumeInvitation)
			r.With(api.requireOperator).Post("/cancel", api.CancelInvitation)
			r.With(api.requireOperator).Post("/reminder", api.RemindInvitation)
		})
	})

	corsHandler := cors.New(cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", audHeaderName},
		AllowCredentials: true,
	})

	api.handler = corsHandler.Handler(r)
	return api
}

func (a *API) newLifecycle() *invitation.Lifecycle {
	prefix := a.config.Invitation.CodePrefix
	return invitation.New(a.store, a.publisher,
		invitation.WithClock(a.now),
		invitation.WithCodeGenerator(func() string { return crypto.InvitationCode(prefix) }),
	)
}

// HealthCheck reports the service version.
func (a *API) HealthCheck(w http.ResponseWriter, r *http.Request) error {
	return sendJSON(w, http.StatusOK, map[string]string{
		"version":     a.version,
		"name":        "inviter",
		"description": "inviter issues and validates single-use invitation codes",
	})
}

// ListenAndServe starts the REST API
func (a *API) ListenAndServe(hostAndPort string) {
	server := &http.Server{
		Addr:    hostAndPort,
		Handler: a.handler,
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		waitForTermination(done)
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("http server shutdown failed")
		}
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server listen failed")
	}
}

// waitForTermination blocks until the system signals termination or done has a value
func waitForTermination(done <-chan struct{}) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	select {
	case sig := <-signals:
		log.Info().Str("signal", sig.String()).Msg("Triggering shutdown from signal")
	case <-done:
		log.Info().Msg("Shutting down...")
	}
}
