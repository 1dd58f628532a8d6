// Package acceptance runs the HTTP surface against a real MongoDB. Tests are
// skipped unless MONGO_TEST_URI points at a reachable instance.
package acceptance

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/voltride/voltride-backend/api"
	"github.com/voltride/voltride-backend/bike"
	"github.com/voltride/voltride-backend/internal/geo"
	"github.com/voltride/voltride-backend/internal/media"
	"github.com/voltride/voltride-backend/internal/o11y"
	"github.com/voltride/voltride-backend/internal/store"
	"github.com/voltride/voltride-backend/internal/verifier"
	"github.com/voltride/voltride-backend/payment"
	"github.com/voltride/voltride-backend/penalty"
	"github.com/voltride/voltride-backend/ride"
	"github.com/voltride/voltride-backend/user"
	"github.com/voltride/voltride-backend/zone"
)

type TestServer struct {
	Client *mongo.Client
	DB     *mongo.Database
	Router *gin.Engine

	Bikes *bike.Repository
	Users *user.Repository
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set, skipping acceptance tests")
	}

	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := store.Connect(ctx, uri)
	require.NoError(t, err)

	db := client.Database("voltride_test")
	cleanupTestData(t, db)
	require.NoError(t, store.EnsureIndexes(ctx, db))

	bikes := bike.NewRepository(db.Collection(store.Bikes))
	rides := ride.NewRepository(db)
	users := user.NewRepository(db.Collection(store.Users))
	payments := payment.NewRepository(db.Collection(store.Payments))
	penalties := penalty.NewRepository(db.Collection(store.Penalties))
	zones := zone.NewRepository(db.Collection(store.Zones))

	lifecycle := ride.NewLifecycle(rides, bikes, users).
		WithParkingEnforcement(zone.NewService(zones), penalties)

	obs, cleanup, err := o11y.Setup(ctx, "localhost:4318")
	require.NoError(t, err)
	t.Cleanup(cleanup)

	a, err := api.New(api.Config{
		Bikes:     bikes,
		Rides:     rides,
		Users:     users,
		Payments:  payments,
		Penalties: penalties,
		Zones:     zones,
		Lifecycle: lifecycle,
		Processor: payment.NewFakeProcessor(),
		Media:     media.NewFakeStore(),
		Verifier:  verifier.NewFakeClient(),
		Obs:       obs,
		Auth:      fakeAuthMiddleware(),
	})
	require.NoError(t, err)

	return &TestServer{
		Client: client,
		DB:     db,
		Router: a.Router(),
		Bikes:  bikes,
		Users:  users,
	}
}

func (ts *TestServer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = ts.Client.Disconnect(ctx)
}

func cleanupTestData(t *testing.T, db *mongo.Database) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, coll := range []string{store.Bikes, store.Rides, store.Users, store.Payments, store.Penalties, store.Zones, store.Incidents} {
		if _, err := db.Collection(coll).DeleteMany(ctx, map[string]any{}); err != nil {
			t.Logf("warning: failed to clean %s: %v", coll, err)
		}
	}
}

// fakeAuthMiddleware injects the identity from the X-User-ID header in place
// of JWT validation.
func fakeAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "authentication required"})
			return
		}

		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: userID},
		}
		ctx := context.WithValue(c.Request.Context(), jwtmiddleware.ContextKey{}, claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (ts *TestServer) request(t *testing.T, method, path string, body any, userID string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func (ts *TestServer) GET(t *testing.T, path, userID string) *httptest.ResponseRecorder {
	return ts.request(t, http.MethodGet, path, nil, userID)
}

func (ts *TestServer) POST(t *testing.T, path string, body any, userID string) *httptest.ResponseRecorder {
	return ts.request(t, http.MethodPost, path, body, userID)
}

func (ts *TestServer) PUT(t *testing.T, path string, body any, userID string) *httptest.ResponseRecorder {
	return ts.request(t, http.MethodPut, path, body, userID)
}

// CreateTestBike seeds an available bike at the given location.
func (ts *TestServer) CreateTestBike(t *testing.T, number string, lat, lng float64) bike.Bike {
	t.Helper()

	b := bike.Bike{
		BikeNumber:     number,
		Model:          "City S1",
		BatteryLevel:   90,
		Range:          45,
		Status:         bike.StatusAvailable,
		PricePerMinute: 0.5,
		PricePerKm:     5,
		BaseFare:       20,
		Location:       geo.NewPoint(lat, lng),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ts.Bikes.Insert(ctx, &b))
	return b
}

// CreateTestUser seeds a document-verified rider.
func (ts *TestServer) CreateTestUser(t *testing.T, email string) user.User {
	t.Helper()

	u := user.User{
		Name:               "Test Rider",
		Email:              email,
		AgreedToTerms:      true,
		IsDocumentVerified: true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ts.Users.Register(ctx, &u, "s3cretpass"))

	require.NoError(t, ts.DB.Collection(store.Users).FindOneAndUpdate(ctx,
		map[string]any{"_id": u.ID},
		map[string]any{"$set": map[string]any{"isDocumentVerified": true}},
	).Err())
	return u
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}
