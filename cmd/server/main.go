package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/voltride/voltride-backend/api"
	"github.com/voltride/voltride-backend/bike"
	"github.com/voltride/voltride-backend/internal/media"
	"github.com/voltride/voltride-backend/internal/o11y"
	"github.com/voltride/voltride-backend/internal/store"
	"github.com/voltride/voltride-backend/internal/verifier"
	"github.com/voltride/voltride-backend/payment"
	"github.com/voltride/voltride-backend/penalty"
	"github.com/voltride/voltride-backend/ride"
	"github.com/voltride/voltride-backend/telemetry"
	"github.com/voltride/voltride-backend/user"
	"github.com/voltride/voltride-backend/zone"
)

var cli = struct {
	MongoURI string `name:"mongo-uri" env:"MONGO_URI" default:"mongodb://localhost:27017"`
	Database string `name:"database" env:"MONGO_DATABASE" default:"voltride"`
	Port     int    `name:"port" env:"PORT" default:"8080"`

	AuthDomain string `name:"auth-domain" env:"AUTH_DOMAIN"`
	Audience   string `name:"audience" env:"AUDIENCE"`
	AuthSecret string `name:"auth-secret" env:"AUTH_SECRET"`

	StripeKey      string `name:"stripe-key" env:"STRIPE_KEY"`
	StripeCurrency string `name:"stripe-currency" env:"STRIPE_CURRENCY" default:"inr"`

	VerifierURL string `name:"verifier-url" env:"VERIFIER_URL"`
	VerifierKey string `name:"verifier-key" env:"VERIFIER_KEY"`

	AWSRegion   string `name:"aws-region" env:"AWS_REGION" default:"ap-south-1"`
	MediaBucket string `name:"media-bucket" env:"MEDIA_BUCKET"`

	MQTTBroker string `name:"mqtt-broker" env:"MQTT_BROKER"`

	OTLPEndpoint string `name:"otlp-endpoint" env:"OTLP_ENDPOINT" default:"localhost:4318"`

	MetricsUsername string `name:"metrics-username" env:"METRICS_USERNAME"`
	MetricsPassword string `name:"metrics-password" env:"METRICS_PASSWORD"`
}{}

func main() {
	if err := run(); err != nil {
		log.Fatalf("unexpected error: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	_ = godotenv.Load()
	kong.Parse(&cli)

	client, err := store.Connect(ctx, cli.MongoURI)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cli.Database)
	if err := store.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	obs, cleanup, err := o11y.Setup(ctx, cli.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer cleanup()

	bikes := bike.NewRepository(db.Collection(store.Bikes))
	rides := ride.NewRepository(db)
	users := user.NewRepository(db.Collection(store.Users))
	payments := payment.NewRepository(db.Collection(store.Payments))
	penalties := penalty.NewRepository(db.Collection(store.Penalties))
	zones := zone.NewRepository(db.Collection(store.Zones))

	lifecycle := ride.NewLifecycle(rides, bikes, users).
		WithLogger(obs.Logger).
		WithParkingEnforcement(zone.NewService(zones), penalties)

	var processor payment.Processor
	if cli.StripeKey != "" {
		processor = payment.NewStripeProcessor(cli.StripeKey, cli.StripeCurrency)
	} else {
		obs.Logger.Warn("no stripe key configured, charges are simulated")
		processor = payment.NewFakeProcessor()
	}

	var mediaStore media.Store
	if cli.MediaBucket != "" {
		mediaStore, err = media.NewS3Store(cli.AWSRegion, cli.MediaBucket)
		if err != nil {
			return err
		}
	} else {
		obs.Logger.Warn("no media bucket configured, ride images are kept in memory")
		mediaStore = media.NewFakeStore()
	}

	var docVerifier verifier.Client
	if cli.VerifierURL != "" {
		docVerifier = verifier.NewHTTPClient(cli.VerifierURL, cli.VerifierKey)
	} else {
		obs.Logger.Warn("no verifier configured, documents will not verify")
		docVerifier = verifier.NewFakeClient()
	}

	if cli.MQTTBroker != "" {
		sub := telemetry.NewSubscriber(cli.MQTTBroker, "voltride-backend",
			bikes, rides, telemetry.NewIncidentRepository(db), obs.Logger)
		if err := sub.Start(); err != nil {
			return err
		}
		defer sub.Stop()
	}

	a, err := api.New(api.Config{
		Bikes:     bikes,
		Rides:     rides,
		Users:     users,
		Payments:  payments,
		Penalties: penalties,
		Zones:     zones,

		Lifecycle: lifecycle,
		Processor: processor,
		Media:     mediaStore,
		Verifier:  docVerifier,

		Obs: obs,

		AuthDomain: cli.AuthDomain,
		Audience:   cli.Audience,
		AuthSecret: cli.AuthSecret,

		MetricsUsername: cli.MetricsUsername,
		MetricsPassword: cli.MetricsPassword,
	})
	if err != nil {
		return err
	}

	serv := http.Server{
		Addr:    fmt.Sprintf(":%d", cli.Port),
		Handler: a.Router(),
	}

	go func() {
		if err := serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = serv.Shutdown(ctx)
	if err != nil {
		return err
	}
	return nil
}
