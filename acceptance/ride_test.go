package acceptance

import (
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltride/voltride-backend/bike"
	"github.com/voltride/voltride-backend/ride"
)

func TestRideLifecycle(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	u := ts.CreateTestUser(t, "rider@example.com")
	b := ts.CreateTestBike(t, "VOLT-0001", 28.6139, 77.2090)

	// Book
	w := ts.POST(t, "/api/rides", map[string]any{
		"bikeId":    b.ID.Hex(),
		"sourceLat": 28.6139, "sourceLng": 77.2090,
	}, u.ID.Hex())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var booked ride.Ride
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &booked))
	assert.Equal(t, ride.StatusBooked, booked.Status)

	// Booking locks the bike
	w = ts.GET(t, "/api/bikes/"+b.ID.Hex(), "")
	require.Equal(t, http.StatusOK, w.Code)
	var locked bike.Bike
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &locked))
	assert.Equal(t, bike.StatusInUse, locked.Status)

	// Start
	w = ts.PUT(t, "/api/rides/"+booked.ID.Hex()+"/start", nil, u.ID.Hex())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// End
	w = ts.PUT(t, "/api/rides/"+booked.ID.Hex()+"/end", nil, u.ID.Hex())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var completed ride.Ride
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &completed))
	assert.Equal(t, ride.StatusCompleted, completed.Status)
	assert.NotNil(t, completed.EndTime)
	assert.Equal(t, completed.Fare.TotalFare,
		completed.Fare.BaseFare+completed.Fare.DistanceCharge+completed.Fare.TimeCharge+completed.Fare.Taxes)

	// The bike is released
	w = ts.GET(t, "/api/bikes/"+b.ID.Hex(), "")
	var released bike.Bike
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &released))
	assert.Equal(t, bike.StatusAvailable, released.Status)

	// Rate
	w = ts.PUT(t, "/api/rides/"+booked.ID.Hex()+"/rate", map[string]any{
		"rating": 5, "review": "smooth ride",
	}, u.ID.Hex())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rated ride.Ride
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &rated))
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 5, *rated.Rating)
}

func TestCancelReleasesBike(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	u := ts.CreateTestUser(t, "canceller@example.com")
	b := ts.CreateTestBike(t, "VOLT-0002", 28.6139, 77.2090)

	w := ts.POST(t, "/api/rides", map[string]any{"bikeId": b.ID.Hex()}, u.ID.Hex())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var booked ride.Ride
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &booked))

	w = ts.PUT(t, "/api/rides/"+booked.ID.Hex()+"/cancel", nil, u.ID.Hex())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.GET(t, "/api/bikes/"+b.ID.Hex(), "")
	var released bike.Bike
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &released))
	assert.Equal(t, bike.StatusAvailable, released.Status)
}

func TestDoubleBookingRejected(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	u1 := ts.CreateTestUser(t, "first@example.com")
	u2 := ts.CreateTestUser(t, "second@example.com")
	b := ts.CreateTestBike(t, "VOLT-0003", 28.6139, 77.2090)

	w := ts.POST(t, "/api/rides", map[string]any{"bikeId": b.ID.Hex()}, u1.ID.Hex())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.POST(t, "/api/rides", map[string]any{"bikeId": b.ID.Hex()}, u2.ID.Hex())
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "bike not available", decode(t, w).Message)
}
