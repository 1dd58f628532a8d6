// Package api exposes the rental service over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voltride/voltride-backend/bike"
	"github.com/voltride/voltride-backend/internal/media"
	"github.com/voltride/voltride-backend/internal/middleware"
	"github.com/voltride/voltride-backend/internal/o11y"
	"github.com/voltride/voltride-backend/internal/query"
	"github.com/voltride/voltride-backend/internal/verifier"
	"github.com/voltride/voltride-backend/payment"
	"github.com/voltride/voltride-backend/penalty"
	"github.com/voltride/voltride-backend/ride"
	"github.com/voltride/voltride-backend/user"
	"github.com/voltride/voltride-backend/zone"
)

// The store interfaces below are the slices of the repositories the handlers
// touch. Lifecycle transitions go through ride.Lifecycle instead.

type BikeStore interface {
	List(ctx context.Context, p query.Params) ([]bike.Bike, int64, error)
	FindNearby(ctx context.Context, lat, lng, distance float64, unit string) ([]bike.Bike, error)
	Get(ctx context.Context, id string) (bike.Bike, error)
	Insert(ctx context.Context, b *bike.Bike) error
	Update(ctx context.Context, id string, b bike.Bike) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[bike.Status]int64, error)
}

type RideStore interface {
	Get(ctx context.Context, id string) (ride.Ride, error)
	ListByUser(ctx context.Context, userID string) ([]ride.Ride, error)
	UpdatePayment(ctx context.Context, id string, p ride.PaymentInfo) error
	CountByStatus(ctx context.Context) (map[ride.Status]int64, error)
}

type UserStore interface {
	Get(ctx context.Context, id string) (user.User, error)
	Register(ctx context.Context, u *user.User, password string) error
	Authenticate(ctx context.Context, email, password string) (user.User, error)
	UpdateProfile(ctx context.Context, id, name, phone string) error
	AddDocument(ctx context.Context, id string, doc user.Document) error
	SetDocumentVerified(ctx context.Context, id, docID string, verified bool) error
}

type PaymentStore interface {
	Get(ctx context.Context, id string) (payment.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]payment.Payment, error)
	Create(ctx context.Context, p *payment.Payment) error
	MarkCompleted(ctx context.Context, id, transactionID string) error
	MarkFailed(ctx context.Context, id string) error
}

type PenaltyStore interface {
	Get(ctx context.Context, id string) (penalty.Penalty, error)
	ListByUser(ctx context.Context, userID string) ([]penalty.Penalty, error)
	Pay(ctx context.Context, id, paymentID string) (penalty.Penalty, error)
	Reopen(ctx context.Context, id string) (penalty.Penalty, error)
	Dispute(ctx context.Context, id, reason string) (penalty.Penalty, error)
}

type ZoneStore interface {
	List(ctx context.Context) ([]zone.Zone, error)
	Insert(ctx context.Context, z *zone.Zone) error
}

type Config struct {
	Bikes     BikeStore
	Rides     RideStore
	Users     UserStore
	Payments  PaymentStore
	Penalties PenaltyStore
	Zones     ZoneStore

	Lifecycle *ride.Lifecycle
	Processor payment.Processor
	Media     media.Store
	Verifier  verifier.Client

	Obs *o11y.Observability

	AuthDomain string
	Audience   string
	// AuthSecret guards the credential-check endpoint called by the
	// identity tenant's custom database connection.
	AuthSecret string

	// Auth, when set, replaces JWT validation. Acceptance tests use it to
	// inject identities without a token issuer.
	Auth gin.HandlerFunc

	MetricsUsername string
	MetricsPassword string
}

type API struct {
	r *gin.Engine

	bikes     BikeStore
	rides     RideStore
	users     UserStore
	payments  PaymentStore
	penalties PenaltyStore
	zones     ZoneStore

	lifecycle *ride.Lifecycle
	processor payment.Processor
	media     media.Store
	verifier  verifier.Client

	authSecret string
	logger     *slog.Logger
}

func New(cfg Config) (*API, error) {
	a := &API{
		r:          gin.New(),
		bikes:      cfg.Bikes,
		rides:      cfg.Rides,
		users:      cfg.Users,
		payments:   cfg.Payments,
		penalties:  cfg.Penalties,
		zones:      cfg.Zones,
		lifecycle:  cfg.Lifecycle,
		processor:  cfg.Processor,
		media:      cfg.Media,
		verifier:   cfg.Verifier,
		authSecret: cfg.AuthSecret,
		logger:     cfg.Obs.Logger,
	}

	a.r.Use(gin.Recovery())
	a.r.Use(middleware.Tracing())
	a.r.Use(middleware.Logging(cfg.Obs.Logger))
	a.r.Use(middleware.Metrics(cfg.Obs.Registry))

	jwt := cfg.Auth
	if jwt == nil {
		var err error
		jwt, err = middleware.JWT(cfg.AuthDomain, cfg.Audience)
		if err != nil {
			return nil, err
		}
	}

	a.r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	a.r.GET("/metrics",
		gin.BasicAuth(gin.Accounts{cfg.MetricsUsername: cfg.MetricsPassword}),
		gin.WrapH(promhttp.HandlerFor(cfg.Obs.Registry, promhttp.HandlerOpts{})),
	)

	v1 := a.r.Group("/api")

	v1.POST("/auth/register", a.registerHandler)
	v1.POST("/auth/login", a.loginHandler)

	v1.GET("/bikes", a.listBikesHandler)
	v1.GET("/bikes/available", a.availableBikesHandler)
	v1.GET("/bikes/:id", a.getBikeHandler)
	v1.GET("/zones", a.listZonesHandler)

	authed := v1.Group("", jwt)
	{
		authed.GET("/rides", a.listRidesHandler)
		authed.GET("/rides/:id", a.getRideHandler)
		authed.POST("/rides", a.createRideHandler)
		authed.PUT("/rides/:id/start", a.startRideHandler)
		authed.PUT("/rides/:id/end", a.endRideHandler)
		authed.PUT("/rides/:id/rate", a.rateRideHandler)
		authed.PUT("/rides/:id/cancel", a.cancelRideHandler)

		authed.GET("/users/me", a.meHandler)
		authed.PUT("/users/me", a.updateMeHandler)
		authed.POST("/users/me/documents", a.submitDocumentHandler)

		authed.GET("/payments", a.listPaymentsHandler)
		authed.GET("/payments/:id", a.getPaymentHandler)

		authed.GET("/penalties", a.listPenaltiesHandler)
		authed.PUT("/penalties/:id/pay", a.payPenaltyHandler)
		authed.PUT("/penalties/:id/dispute", a.disputePenaltyHandler)
	}

	admin := v1.Group("", jwt, requireAdmin)
	{
		admin.POST("/bikes", a.createBikeHandler)
		admin.PUT("/bikes/:id", a.updateBikeHandler)
		admin.DELETE("/bikes/:id", a.deleteBikeHandler)
		admin.POST("/zones", a.createZoneHandler)
		admin.GET("/admin/stats", a.statsHandler)
	}

	return a, nil
}

func (a *API) Router() *gin.Engine {
	return a.r
}

// requireAdmin rejects tokens without the admin role.
func requireAdmin(c *gin.Context) {
	if !middleware.IsAdmin(c) {
		respondError(c, http.StatusForbidden, "admin access required")
		c.Abort()
		return
	}
	c.Next()
}
